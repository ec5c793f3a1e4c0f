package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/riskflow/internal/packet"
)

// TransmitObserver is told about every successful transmission.
type TransmitObserver func(t *Transmitter, packets int)

// Transmitter is a directed, single-fire edge moving the whole batch of one
// output channel into one input channel of another component.
//
// States: idle → fired. Transmit moves idle → fired exactly once per reset
// cycle; the graph resets every transmitter at the start of each step.
type Transmitter struct {
	sender   *Component
	source   *packet.Channel
	receiver *Component
	target   *packet.Channel

	senderChannelName string
	transmitted       bool

	logger   *slog.Logger
	observer TransmitObserver
}

// NewTransmitter binds (sender, source) to (receiver, target).
//
// source must be an output channel of sender and target an input channel of
// receiver, and both must carry the same packet type. The sender channel name
// is derived here and never changes. The transmitter is registered with both
// components.
func NewTransmitter(sender *Component, source *packet.Channel, receiver *Component, target *packet.Channel) (*Transmitter, error) {
	name, ok := sender.outputName(source)
	if !ok {
		return nil, newGraphError(ErrCodeUnknownChannel, sender.name, source.Name(), "source is not an output channel of sender")
	}
	if !receiver.ownsInput(target) {
		return nil, newGraphError(ErrCodeUnknownChannel, receiver.name, target.Name(), "target is not an input channel of receiver")
	}
	if !target.Compatible(source) {
		return nil, &packet.TypeMismatchError{Channel: target.Name(), Expected: target.Type(), Actual: source.Type()}
	}
	t := &Transmitter{
		sender:            sender,
		source:            source,
		receiver:          receiver,
		target:            target,
		senderChannelName: name,
		logger:            slog.Default(),
	}
	sender.outgoing = append(sender.outgoing, t)
	receiver.incoming = append(receiver.incoming, t)
	return t, nil
}

// Transmit stamps every source packet with the sender's provenance, appends
// the entire source batch to the target and notifies the receiver. The call
// returns after the receiver, and anything it fired in turn, has finished.
//
// A second call before Reset returns *RetransmissionError and leaves the
// target unchanged.
func (t *Transmitter) Transmit(ctx context.Context) error {
	if t.transmitted {
		return &RetransmissionError{
			Sender:     t.sender.name,
			Receiver:   t.receiver.name,
			Channel:    t.senderChannelName,
			PacketType: fmt.Sprint(t.source.Type()),
		}
	}

	t.source.Stamp(t.sender, t.senderChannelName)
	if err := t.target.AppendAll(t.source); err != nil {
		return err
	}
	t.transmitted = true

	if t.logger.Enabled(ctx, slog.LevelDebug) {
		t.logger.LogAttrs(ctx, slog.LevelDebug, "transmitted",
			slog.String("channel", t.senderChannelName),
			slog.Int("packets", t.source.Len()),
			slog.String("sender", t.sender.name),
			slog.String("receiver", t.receiver.name),
			slog.String("sender_kind", t.sender.kind),
			slog.String("receiver_kind", t.receiver.kind),
		)
	}
	if t.observer != nil {
		t.observer(t, t.source.Len())
	}

	return t.receiver.NotifyTransmitted(ctx, t)
}

// Reset returns the transmitter to idle.
func (t *Transmitter) Reset() {
	t.transmitted = false
}

// Transmitted reports whether the transmitter fired since the last reset.
func (t *Transmitter) Transmitted() bool {
	return t.transmitted
}

// Sender returns the producing component.
func (t *Transmitter) Sender() *Component {
	return t.sender
}

// Receiver returns the consuming component.
func (t *Transmitter) Receiver() *Component {
	return t.receiver
}

// Source returns the sender's output channel.
func (t *Transmitter) Source() *packet.Channel {
	return t.source
}

// Target returns the receiver's input channel.
func (t *Transmitter) Target() *packet.Channel {
	return t.target
}

// SenderChannelName returns the name stamped on transmitted packets.
func (t *Transmitter) SenderChannelName() string {
	return t.senderChannelName
}

func (t *Transmitter) String() string {
	return fmt.Sprintf("%s sends to %s, packet type: %v, senderChannelName %s",
		t.sender.name, t.receiver.name, t.source.Type(), t.senderChannelName)
}
