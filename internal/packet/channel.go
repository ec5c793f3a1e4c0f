package packet

import (
	"fmt"
	"iter"
	"reflect"
)

// defaultCapacity is the initial backing array size for a new channel.
const defaultCapacity = 8

// TypeMismatchError reports a packet or channel whose element type does not
// match the declared type of the receiving channel.
type TypeMismatchError struct {
	Channel  string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on channel %q: expected %v, got %v", e.Channel, e.Expected, e.Actual)
}

// Channel is an ordered sequence of packets of a single declared type.
//
// A Channel is owned by exactly one component and is not safe for concurrent
// use; the engine drives all channels from a single goroutine.
type Channel struct {
	name    string
	elem    reflect.Type
	packets []Packet
}

// NewChannel declares a channel whose packets have concrete type T.
// T is normally a pointer to a struct embedding Envelope.
func NewChannel[T Packet](name string) *Channel {
	return NewChannelOf(name, reflect.TypeFor[T]())
}

// NewChannelOf declares a channel with an element type known only at runtime.
func NewChannelOf(name string, elem reflect.Type) *Channel {
	return &Channel{
		name:    name,
		elem:    elem,
		packets: make([]Packet, 0, defaultCapacity),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Type returns the declared element type.
func (c *Channel) Type() reflect.Type {
	return c.elem
}

// Compatible reports whether packets of other can be appended to c.
func (c *Channel) Compatible(other *Channel) bool {
	return c.elem == other.elem
}

// Append adds p to the end of the channel.
// Returns *TypeMismatchError if p is not of the declared type; the channel is unchanged.
func (c *Channel) Append(p Packet) error {
	if t := reflect.TypeOf(p); t != c.elem {
		return &TypeMismatchError{Channel: c.name, Expected: c.elem, Actual: t}
	}
	c.packets = append(c.packets, p)
	return nil
}

// AppendAll appends every packet of src in order.
// The copy is all-or-nothing: incompatible channels are rejected before any packet moves.
func (c *Channel) AppendAll(src *Channel) error {
	if !c.Compatible(src) {
		return &TypeMismatchError{Channel: c.name, Expected: c.elem, Actual: src.elem}
	}
	c.packets = append(c.packets, src.packets...)
	return nil
}

// Clear empties the channel. The backing array is kept for reuse and the
// released slots are zeroed so that old packets can be collected.
func (c *Channel) Clear() {
	clear(c.packets)
	c.packets = c.packets[:0]
}

// Len returns the number of packets.
func (c *Channel) Len() int {
	return len(c.packets)
}

// At returns the packet at index i.
func (c *Channel) At(i int) Packet {
	return c.packets[i]
}

// All iterates over the packets in order.
func (c *Channel) All() iter.Seq2[int, Packet] {
	return func(yield func(int, Packet) bool) {
		for i, p := range c.packets {
			if !yield(i, p) {
				return
			}
		}
	}
}

// Stamp stamps every packet in the channel with the given provenance.
func (c *Channel) Stamp(sender Origin, channel string) {
	for _, p := range c.packets {
		p.Stamp(sender, channel)
	}
}

// Each calls fn for every packet of type T in order. It is a typed view over a
// channel declared with NewChannel[T].
func Each[T Packet](c *Channel, fn func(T)) {
	for _, p := range c.packets {
		if v, ok := p.(T); ok {
			fn(v)
		}
	}
}

func (c *Channel) String() string {
	return fmt.Sprintf("%s[%v](%d)", c.name, c.elem, len(c.packets))
}
