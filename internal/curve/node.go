package curve

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// NodeType discriminates the node variants in serialized form.
type NodeType string

const (
	NodeCash                   NodeType = "cash"
	NodeFRA                    NodeType = "fra"
	NodeSwap                   NodeType = "swap"
	NodeRateFuture             NodeType = "rate_future"
	NodeContinuouslyCompounded NodeType = "continuously_compounded_rate"
	NodePeriodicallyCompounded NodeType = "periodically_compounded_rate"
)

// Node is a typed curve node. The set of implementations is closed; every
// implementation is a comparable struct so nodes compare by value.
type Node interface {
	NodeType() NodeType
	MapperName() string
	node()
}

// CashNode is a deposit from Start to Maturity.
type CashNode struct {
	Start      tenor.Tenor      `json:"start"`
	Maturity   tenor.Tenor      `json:"maturity"`
	Convention ident.ExternalID `json:"convention"`
	Mapper     string           `json:"mapper"`
}

// FRANode is a forward rate agreement fixing over [FixingStart, FixingEnd].
type FRANode struct {
	FixingStart tenor.Tenor      `json:"fixing_start"`
	FixingEnd   tenor.Tenor      `json:"fixing_end"`
	Convention  ident.ExternalID `json:"convention"`
	Mapper      string           `json:"mapper"`
}

// SwapNode is a two-leg swap.
type SwapNode struct {
	Start      tenor.Tenor      `json:"start"`
	Maturity   tenor.Tenor      `json:"maturity"`
	PayLeg     ident.ExternalID `json:"pay_leg"`
	ReceiveLeg ident.ExternalID `json:"receive_leg"`
	Mapper     string           `json:"mapper"`
}

// RateFutureNode is the FutureCount-th future after StartTenor.
type RateFutureNode struct {
	FutureCount     int              `json:"future_count"`
	StartTenor      tenor.Tenor      `json:"start_tenor"`
	FutureTenor     tenor.Tenor      `json:"future_tenor"`
	UnderlyingTenor tenor.Tenor      `json:"underlying_tenor"`
	Convention      ident.ExternalID `json:"convention"`
	Mapper          string           `json:"mapper"`
}

// ContinuouslyCompoundedRateNode is a zero rate quoted with continuous
// compounding.
type ContinuouslyCompoundedRateNode struct {
	Tenor  tenor.Tenor `json:"tenor"`
	Mapper string      `json:"mapper"`
}

// PeriodicallyCompoundedRateNode is a zero rate compounded PeriodsPerYear
// times a year.
type PeriodicallyCompoundedRateNode struct {
	Tenor          tenor.Tenor `json:"tenor"`
	PeriodsPerYear int         `json:"periods_per_year"`
	Mapper         string      `json:"mapper"`
}

func (CashNode) NodeType() NodeType                       { return NodeCash }
func (FRANode) NodeType() NodeType                        { return NodeFRA }
func (SwapNode) NodeType() NodeType                       { return NodeSwap }
func (RateFutureNode) NodeType() NodeType                 { return NodeRateFuture }
func (ContinuouslyCompoundedRateNode) NodeType() NodeType { return NodeContinuouslyCompounded }
func (PeriodicallyCompoundedRateNode) NodeType() NodeType { return NodePeriodicallyCompounded }

func (n CashNode) MapperName() string                       { return n.Mapper }
func (n FRANode) MapperName() string                        { return n.Mapper }
func (n SwapNode) MapperName() string                       { return n.Mapper }
func (n RateFutureNode) MapperName() string                 { return n.Mapper }
func (n ContinuouslyCompoundedRateNode) MapperName() string { return n.Mapper }
func (n PeriodicallyCompoundedRateNode) MapperName() string { return n.Mapper }

func (CashNode) node()                       {}
func (FRANode) node()                        {}
func (SwapNode) node()                       {}
func (RateFutureNode) node()                 {}
func (ContinuouslyCompoundedRateNode) node() {}
func (PeriodicallyCompoundedRateNode) node() {}

// MarshalNode encodes n as a JSON object with a "type" discriminator.
func MarshalNode(n Node) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(n.NodeType())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

// UnmarshalNode decodes the output of MarshalNode.
func UnmarshalNode(data []byte) (Node, error) {
	var head struct {
		Type NodeType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode node type: %w", err)
	}

	switch head.Type {
	case NodeCash:
		return decodeAs[CashNode](data)
	case NodeFRA:
		return decodeAs[FRANode](data)
	case NodeSwap:
		return decodeAs[SwapNode](data)
	case NodeRateFuture:
		return decodeAs[RateFutureNode](data)
	case NodeContinuouslyCompounded:
		return decodeAs[ContinuouslyCompoundedRateNode](data)
	case NodePeriodicallyCompounded:
		return decodeAs[PeriodicallyCompoundedRateNode](data)
	default:
		return nil, fmt.Errorf("unknown node type %q", head.Type)
	}
}

func decodeAs[T Node](data []byte) (Node, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s node: %w", v.NodeType(), err)
	}
	return v, nil
}
