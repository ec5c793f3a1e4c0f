// Package wiring implements the simulation graph: components, the
// transmitters that connect them, and the per-step firing protocol.
//
// ARCHITECTURE:
//
// Synchronous notify-driven firing:
// Within one step a source component computes, then its transmitters fire in
// wiring order. Each transmitter stamps provenance on the batch, appends it to
// the receiver's input channel and notifies the receiver before returning.
// A receiver whose last input has arrived computes immediately, inside that
// notification, and transmits further down. The call stack is the schedule:
// there is no ready queue.
//
// This is sound because the graph is acyclic (checked once by Seal) and the
// number of steps is bounded by iterations × periods.
//
// Single-fire edges:
// A transmitter fires at most once per reset cycle. The graph resets every
// transmitter, clears every channel and forgets every notification at the
// start of each step, i.e. once per (iteration, period). A second Transmit
// before that is a *RetransmissionError and aborts the run.
//
// Determinism:
// Components, channels and transmitters are kept in declaration order and the
// topological order breaks ties by declaration order, so the same model fires
// in the same order on every run.
//
// Nothing in this package is safe for concurrent use.
package wiring
