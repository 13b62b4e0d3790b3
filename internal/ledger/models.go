package ledger

import "time"

// RechargeMethod is the only payment channel recharges are accepted through.
const RechargeMethod = "bKash"

// DefaultServiceColor is applied to services created without a color.
const DefaultServiceColor = "var(--green)"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Balance   int64     `json:"balance"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Price     int64     `json:"price"`
	Desc      string    `json:"desc"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Payload is the customer-supplied order form, stored verbatim.
type Payload struct {
	Type     string `json:"type"`
	IDNumber string `json:"idNumber"`
	Details  string `json:"details"`
}

type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	ServiceSlug  string      `json:"serviceSlug"`
	ServiceTitle string      `json:"serviceTitle"`
	Price        int64       `json:"price"` // captured at order time
	Payload      Payload     `json:"payload"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type Recharge struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Amount    int64          `json:"amount"`
	TrxID     string         `json:"trxId"`
	Note      string         `json:"note"`
	Method    string         `json:"method"`
	Status    RechargeStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}
