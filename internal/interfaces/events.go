package interfaces

// EventPublisher abstracts the message broker so services and tests do not
// depend on kafka directly.
type EventPublisher interface {
	PublishMessage(key, value []byte) error
}
