package events

// Subscriber receives every published event. Send must not block for long;
// transports buffer internally.
type Subscriber interface {
	Send(Event) error
	Close() error
}
