package mqtt

// Publisher sends one sensor reading to the broker.
type Publisher interface {
	// Publish delivers payload on topic, retrying transient failures.
	Publish(topic string, payload []byte) error
}
