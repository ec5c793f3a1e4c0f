package packet

// Origin identifies the component that sent a packet.
type Origin interface {
	Name() string
}

// Packet is implemented by every message type carried on a Channel.
//
// Concrete packet types embed Envelope, which provides the provenance methods.
// Packets travel as pointers so that Stamp can record provenance in place.
type Packet interface {
	Sender() Origin
	SenderChannelName() string
	Stamp(sender Origin, channel string)
}

// Envelope holds packet provenance. Embed it in concrete packet types.
type Envelope struct {
	sender        Origin
	senderChannel string
}

// Sender returns the component that transmitted the packet, or nil before transmission.
func (e *Envelope) Sender() Origin {
	return e.sender
}

// SenderChannelName returns the name of the output channel the packet left from.
func (e *Envelope) SenderChannelName() string {
	return e.senderChannel
}

// Stamp records provenance. Any previous stamp is overwritten.
func (e *Envelope) Stamp(sender Origin, channel string) {
	e.sender = sender
	e.senderChannel = channel
}

// Value is a generic packet carrying an opaque payload.
type Value[T any] struct {
	Envelope
	Payload T
}

// NewValue wraps payload in a packet.
func NewValue[T any](payload T) *Value[T] {
	return &Value[T]{Payload: payload}
}
