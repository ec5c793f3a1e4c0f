// Package components provides the built-in actuarial component kinds.
//
// Every kind is a constructor registered in a Library; the model loader
// builds graphs from kind names and parameter maps.
package components

import "github.com/roach88/riskflow/internal/packet"

// Claim is a single loss flowing through the graph.
type Claim struct {
	packet.Envelope
	Amount float64
}

// Channel names shared by the built-in kinds.
const (
	ChannelOutClaims = "outClaims"
	ChannelInClaims  = "inClaims"
	ChannelOutCeded  = "outCeded"
	ChannelOutNet    = "outNet"
)
