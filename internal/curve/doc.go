// Package curve holds the migrated, per-node-typed curve configuration model:
// curve nodes, interpolated curve definitions, node id mappers and curve
// construction configurations.
//
// Every target record is built once and then treated as immutable. Node
// values are comparable structs, so structurally identical nodes collapse in
// a NodeSet, and NodeIDMapper updates go through WithSlot and Renamed, which
// copy rather than alias the underlying maps.
package curve
