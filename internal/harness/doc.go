// Package harness runs model scenarios for conformance testing.
//
// A scenario is a YAML file naming a model directory, optional overrides of
// iterations, periods and seed, and assertions over the collected results:
//
//	name: quota_share
//	model: ../models/quota_share
//	iterations: 2
//	assertions:
//	  - type: firing_order
//	    order: [source, qs, ceded, net]
//	  - type: field_sum
//	    path: ceded
//	    field: ultimate
//	    sum: 200
//
// Scenarios execute the real loader, graph and runner against an in-memory
// sink. Seeds are fixed, so a scenario's trace is reproducible and can be
// compared against a golden file with RunWithGolden.
package harness
