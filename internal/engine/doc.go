// Package engine runs simulations: it drives a sealed wiring.Graph through
// iterations × periods and funnels the collected records into a sink.
//
// ARCHITECTURE:
//
// Single-goroutine step loop:
// One step is one (iteration, period) cell. For each step the runner
//  1. resets the graph (transmitters idle, channels empty)
//  2. fires components in topological order; transmissions notify
//     receivers synchronously, so a step has no suspension point
//  3. resolves collected observations to records via result.Mapping
//  4. hands the step's records to the sink as one batch
//
// After the last step the sink is flushed. Start wraps Run in a goroutine
// and reports the Outcome on a channel that receives exactly one value.
//
// Determinism:
// Iteration i draws from rand.NewPCG(seed, i). Component order, transmitter
// order and mapping ids depend only on declaration order, so equal inputs
// yield equal record sequences.
//
// Failure:
// The first error aborts the run. Records of the failing step never reach
// the sink; earlier steps may already be flushed.
package engine
