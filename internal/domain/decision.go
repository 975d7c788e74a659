package domain

// DecisionKind tags the outcome of translating a target leverage.
type DecisionKind string

const (
	DecisionHold  DecisionKind = "HOLD"
	DecisionTrade DecisionKind = "TRADE"
)

// Decision is the output of the target-leverage translator: either hold with
// a reason, or trade a positive quantity on one side.
type Decision struct {
	Kind       DecisionKind
	Reason     string // set on Hold
	Side       OrderSide
	Quantity   float64 // base units, > 0 on Trade
	ReduceOnly bool
}

func Hold(reason string) Decision {
	return Decision{Kind: DecisionHold, Reason: reason}
}

func Trade(side OrderSide, quantity float64, reduceOnly bool) Decision {
	return Decision{Kind: DecisionTrade, Side: side, Quantity: quantity, ReduceOnly: reduceOnly}
}

func (d Decision) IsHold() bool { return d.Kind == DecisionHold }
