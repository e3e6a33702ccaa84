package orders

const (
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
)

// Partition key = invoice number, supaya event untuk satu order tetap urut.
func PartitionKey(invoice string) []byte { return []byte(invoice) }
