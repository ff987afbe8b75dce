package ports

// Sender delivers one outbound message to a single transport connection.
// Delivery is fire-and-forget from the core's perspective; a failed send on a
// dying socket is reported to the caller but never retried by the core.
type Sender interface {
	Send(v interface{}) error
}
