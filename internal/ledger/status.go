package ledger

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDone       OrderStatus = "done"
	OrderRejected   OrderStatus = "rejected"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderProcessing: true, OrderDone: true, OrderRejected: true},
	OrderProcessing: {OrderDone: true, OrderRejected: true},
	OrderDone:       {},
	OrderRejected:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

type RechargeStatus string

const (
	RechargePending  RechargeStatus = "pending"
	RechargeApproved RechargeStatus = "approved"
)

func (s RechargeStatus) Valid() bool {
	return s == RechargePending || s == RechargeApproved
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }
