package firestorex

import (
	"time"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

// Field names match the documents the storefront has always written.

type userDoc struct {
	Email     string    `firestore:"email"`
	FullName  string    `firestore:"fullName"`
	Balance   int64     `firestore:"balance"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type serviceDoc struct {
	Title     string    `firestore:"title"`
	Slug      string    `firestore:"slug"`
	Price     int64     `firestore:"price"`
	Desc      string    `firestore:"desc"`
	Color     string    `firestore:"color"`
	Icon      string    `firestore:"icon"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type payloadDoc struct {
	Type     string `firestore:"type"`
	IDNumber string `firestore:"idNumber"`
	Details  string `firestore:"details"`
}

type orderDoc struct {
	UserID       string     `firestore:"userId"`
	ServiceSlug  string     `firestore:"serviceSlug"`
	ServiceTitle string     `firestore:"serviceTitle"`
	Price        int64      `firestore:"price"`
	Payload      payloadDoc `firestore:"payload"`
	Status       string     `firestore:"status"`
	CreatedAt    time.Time  `firestore:"createdAt"`
}

type rechargeDoc struct {
	UserID    string    `firestore:"userId"`
	Amount    int64     `firestore:"amount"`
	TrxID     string    `firestore:"trxId"`
	Note      string    `firestore:"note"`
	Method    string    `firestore:"method"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d *userDoc) toLedger(id string) *ledger.User {
	role := ledger.Role(d.Role)
	if !role.Valid() {
		role = ledger.RoleUser
	}
	return &ledger.User{ID: id, Email: d.Email, FullName: d.FullName, Balance: d.Balance, Role: role, CreatedAt: d.CreatedAt}
}

func (d *serviceDoc) toLedger(id string) *ledger.Service {
	return &ledger.Service{
		ID:        id,
		Title:     d.Title,
		Slug:      d.Slug,
		Price:     d.Price,
		Desc:      d.Desc,
		Color:     d.Color,
		Icon:      d.Icon,
		CreatedAt: d.CreatedAt,
	}
}

func (d *orderDoc) toLedger(id string) *ledger.Order {
	status := ledger.OrderStatus(d.Status)
	if status == "" {
		status = ledger.OrderPending
	}
	return &ledger.Order{
		ID:           id,
		UserID:       d.UserID,
		ServiceSlug:  d.ServiceSlug,
		ServiceTitle: d.ServiceTitle,
		Price:        d.Price,
		Payload:      ledger.Payload(d.Payload),
		Status:       status,
		CreatedAt:    d.CreatedAt,
	}
}

func (d *rechargeDoc) toLedger(id string) *ledger.Recharge {
	status := ledger.RechargeStatus(d.Status)
	if status == "" {
		status = ledger.RechargePending
	}
	return &ledger.Recharge{
		ID:        id,
		UserID:    d.UserID,
		Amount:    d.Amount,
		TrxID:     d.TrxID,
		Note:      d.Note,
		Method:    d.Method,
		Status:    status,
		CreatedAt: d.CreatedAt,
	}
}
