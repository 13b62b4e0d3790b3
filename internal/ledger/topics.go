package ledger

const (
	TopicOrderPlaced        = "ledger.order.placed"
	TopicOrderStatusChanged = "ledger.order.status"
	TopicRechargeSubmitted  = "ledger.recharge.submitted"
	TopicRechargeApproved   = "ledger.recharge.approved"
)

// Topics lists every topic the ledger publishes to.
var Topics = []string{
	TopicOrderPlaced,
	TopicOrderStatusChanged,
	TopicRechargeSubmitted,
	TopicRechargeApproved,
}

// Partition key = user id, so one user's balance events keep their order.
func PartitionKey(userID string) []byte { return []byte(userID) }
