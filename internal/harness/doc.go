// Package harness provides conformance testing for the reactive
// expression engine.
//
// The harness loads YAML scenarios, executes their steps against a
// live state, and records an ordered trace of evaluations, writes and
// effect firings for golden snapshot comparison.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	state:
//	  count: 1
//	  user: { name: Ada }
//	steps:
//	  - eval: "count + 1"
//	    expect: 2
//	  - observe: "user.name"
//	    as: name_watcher
//	  - write: { path: "user.name", value: "Grace" }
//	  - compose: { aliases: { item: "items[0]" } }
//	  - cleanup: true
//	  - trigger: "count"
//	assertions:
//	  - expr: "user.name"
//	    expect: "Grace"
//
// Each step performs exactly one operation. Observe steps register a
// watcher whose re-runs appear in the trace as observe_update events.
// Compose pushes a child scope (subsequent steps run in it); cleanup
// pops the innermost scope.
//
// # Deterministic Testing
//
// Scenarios execute with a fixed state ID generator so traces are
// identical across runs and safe for golden file comparison. Values in
// the trace are rendered with sorted object keys for the same reason.
package harness
