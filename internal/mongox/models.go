package mongox

import (
	"time"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// Document field names follow the storefront's persisted record shapes.

type userModel struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	FullName  string    `bson:"fullName"`
	Balance   int64     `bson:"balance"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toUserModel(u *ledger.User) *userModel {
	return &userModel{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Balance:   u.Balance,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func fromUserModel(m *userModel) *ledger.User {
	role := ledger.Role(m.Role)
	if !role.Valid() {
		role = ledger.RoleUser
	}
	return &ledger.User{
		ID:        m.ID,
		Email:     m.Email,
		FullName:  m.FullName,
		Balance:   m.Balance,
		Role:      role,
		CreatedAt: m.CreatedAt,
	}
}

type serviceModel struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Slug      string    `bson:"slug"`
	Price     int64     `bson:"price"`
	Desc      string    `bson:"desc"`
	Color     string    `bson:"color"`
	Icon      string    `bson:"icon"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toServiceModel(s *ledger.Service) *serviceModel {
	return &serviceModel{
		ID:        s.ID,
		Title:     s.Title,
		Slug:      s.Slug,
		Price:     s.Price,
		Desc:      s.Desc,
		Color:     s.Color,
		Icon:      s.Icon,
		CreatedAt: s.CreatedAt,
	}
}

func fromServiceModel(m *serviceModel) *ledger.Service {
	return &ledger.Service{
		ID:        m.ID,
		Title:     m.Title,
		Slug:      m.Slug,
		Price:     m.Price,
		Desc:      m.Desc,
		Color:     m.Color,
		Icon:      m.Icon,
		CreatedAt: m.CreatedAt,
	}
}

type payloadModel struct {
	Type     string `bson:"type"`
	IDNumber string `bson:"idNumber"`
	Details  string `bson:"details"`
}

type orderModel struct {
	ID           string       `bson:"_id"`
	UserID       string       `bson:"userId"`
	ServiceSlug  string       `bson:"serviceSlug"`
	ServiceTitle string       `bson:"serviceTitle"`
	Price        int64        `bson:"price"`
	Payload      payloadModel `bson:"payload"`
	Status       string       `bson:"status"`
	CreatedAt    time.Time    `bson:"createdAt"`
}

func toOrderModel(o *ledger.Order) *orderModel {
	return &orderModel{
		ID:           o.ID,
		UserID:       o.UserID,
		ServiceSlug:  o.ServiceSlug,
		ServiceTitle: o.ServiceTitle,
		Price:        o.Price,
		Payload:      payloadModel(o.Payload),
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
	}
}

func fromOrderModel(m *orderModel) *ledger.Order {
	status := ledger.OrderStatus(m.Status)
	if status == "" {
		status = ledger.OrderPending
	}
	return &ledger.Order{
		ID:           m.ID,
		UserID:       m.UserID,
		ServiceSlug:  m.ServiceSlug,
		ServiceTitle: m.ServiceTitle,
		Price:        m.Price,
		Payload:      ledger.Payload(m.Payload),
		Status:       status,
		CreatedAt:    m.CreatedAt,
	}
}

type rechargeModel struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Amount    int64     `bson:"amount"`
	TrxID     string    `bson:"trxId"`
	Note      string    `bson:"note"`
	Method    string    `bson:"method"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toRechargeModel(r *ledger.Recharge) *rechargeModel {
	return &rechargeModel{
		ID:        r.ID,
		UserID:    r.UserID,
		Amount:    r.Amount,
		TrxID:     r.TrxID,
		Note:      r.Note,
		Method:    r.Method,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func fromRechargeModel(m *rechargeModel) *ledger.Recharge {
	status := ledger.RechargeStatus(m.Status)
	if status == "" {
		status = ledger.RechargePending
	}
	return &ledger.Recharge{
		ID:        m.ID,
		UserID:    m.UserID,
		Amount:    m.Amount,
		TrxID:     m.TrxID,
		Note:      m.Note,
		Method:    m.Method,
		Status:    status,
		CreatedAt: m.CreatedAt,
	}
}
