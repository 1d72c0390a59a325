// Package harness runs migration conformance scenarios.
//
// A scenario names one or more directories of legacy CUE records, imports
// them into a fresh repository, runs the migration with a fixed run id and
// checks the outcome against the scenario's expectations and, optionally, a
// golden snapshot.
//
// # Scenario Format
//
//	name: two-curve-usd
//	description: "Funding and 3M forward curves in USD"
//	inputs:
//	  - inputs/usd
//	run_id: scenario-usd
//	config:
//	  curve_renames: { LEGACY: Modern }
//	expect:
//	  constructions: [DefaultTwoCurveUSD]
//	  curves: ["FUNDING USD", "FORWARD_3M USD"]
//	  mappers: ["DEFAULT USD"]
//	  failures: 0
//	  gaps: 1
//
// Input paths are relative to the scenario file. Name lists are compared as
// sets against every target record the run wrote (or, with dry_run, planned).
// Omitted lists and counts are not checked.
//
// # Deterministic Snapshots
//
// Every run tags its writes with the scenario's run_id (or
// runid.DefaultConstant), so the canonical snapshot of a scenario is
// byte-identical across runs and can be compared with a golden file stored
// at testdata/golden/<name>.golden.
package harness
