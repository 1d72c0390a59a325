package curve

import (
	"encoding/json"
	"fmt"
)

// Record kinds as stored in the config repository.
const (
	KindInterpolatedCurveDefinition    = "InterpolatedCurveDefinition"
	KindNodeIDMapper                   = "CurveNodeIdMapper"
	KindCurveConstructionConfiguration = "CurveConstructionConfiguration"
)

// NodeSet is an insertion-ordered set of nodes. Adding a node equal to one
// already present is a no-op.
type NodeSet struct {
	nodes []Node
	seen  map[Node]struct{}
}

// NewNodeSet creates a set holding nodes, in order, without duplicates.
func NewNodeSet(nodes ...Node) *NodeSet {
	s := &NodeSet{}
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

// Add inserts n and reports whether it was new.
func (s *NodeSet) Add(n Node) bool {
	if s.seen == nil {
		s.seen = make(map[Node]struct{})
	}
	if _, ok := s.seen[n]; ok {
		return false
	}
	s.seen[n] = struct{}{}
	s.nodes = append(s.nodes, n)
	return true
}

// Len returns the number of distinct nodes.
func (s *NodeSet) Len() int { return len(s.nodes) }

// Nodes returns the nodes in insertion order.
func (s *NodeSet) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// InterpolatedCurveDefinition is the migrated form of a yield curve
// definition.
type InterpolatedCurveDefinition struct {
	Name              string
	Nodes             []Node
	Interpolator      string
	LeftExtrapolator  string
	RightExtrapolator string
}

type curveDefinitionJSON struct {
	Name              string            `json:"name"`
	Nodes             []json.RawMessage `json:"nodes"`
	Interpolator      string            `json:"interpolator"`
	LeftExtrapolator  string            `json:"left_extrapolator"`
	RightExtrapolator string            `json:"right_extrapolator"`
}

// MarshalJSON encodes nodes with their type discriminator.
func (d InterpolatedCurveDefinition) MarshalJSON() ([]byte, error) {
	out := curveDefinitionJSON{
		Name:              d.Name,
		Nodes:             make([]json.RawMessage, 0, len(d.Nodes)),
		Interpolator:      d.Interpolator,
		LeftExtrapolator:  d.LeftExtrapolator,
		RightExtrapolator: d.RightExtrapolator,
	}
	for i, n := range d.Nodes {
		raw, err := MarshalNode(n)
		if err != nil {
			return nil, fmt.Errorf("node[%d]: %w", i, err)
		}
		out.Nodes = append(out.Nodes, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *InterpolatedCurveDefinition) UnmarshalJSON(data []byte) error {
	var in curveDefinitionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	nodes := make([]Node, 0, len(in.Nodes))
	for i, raw := range in.Nodes {
		n, err := UnmarshalNode(raw)
		if err != nil {
			return fmt.Errorf("node[%d]: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	*d = InterpolatedCurveDefinition{
		Name:              in.Name,
		Nodes:             nodes,
		Interpolator:      in.Interpolator,
		LeftExtrapolator:  in.LeftExtrapolator,
		RightExtrapolator: in.RightExtrapolator,
	}
	return nil
}
