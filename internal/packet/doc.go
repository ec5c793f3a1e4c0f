// Package packet defines the messages exchanged between simulation components
// and the typed channels that carry them.
//
// A Packet is created by a component during its computation step and handed to
// one of the component's output channels. Provenance (sender and sender channel
// name) is stamped exactly once, by the transmitter that moves the packet to the
// receiving component. After transmission a packet is treated as immutable.
//
// A Channel is an ordered, homogeneous batch: every packet in it has the same
// concrete Go type, declared when the channel is created. Channels are cleared
// and refilled every simulation step and keep their backing array between steps,
// so steady-state simulation does not allocate per step.
package packet
