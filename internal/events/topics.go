package events

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
	TopicPaymentConfirmed   = "payment.confirmed"
	TopicPurchaseRecorded   = "purchase.recorded"
)

var topicByEvent = map[string]string{
	EventOrderCreated:       TopicOrderCreated,
	EventOrderStatusChanged: TopicOrderStatusChanged,
	EventPaymentConfirmed:   TopicPaymentConfirmed,
	EventPurchaseRecorded:   TopicPurchaseRecorded,
}

func TopicFor(eventType string) (string, bool) {
	t, ok := topicByEvent[eventType]
	return t, ok
}

// Partition key = order_id so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
