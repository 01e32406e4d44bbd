package composite

// Rule scores candidate pixel values during compositing; the highest
// score wins. Compositing policies vary by product and use case, so the
// rule is pluggable rather than hardcoded.
type Rule interface {
	// Name identifies the rule in configuration and logs.
	Name() string

	// Score ranks a candidate value; larger is better.
	Score(value int32) int64
}

// MaxValue is the default rule: the highest vegetation-index value in
// the window wins. High VI during a window is a strong vegetation
// signal and a weak signal of residual cloud or atmosphere.
type MaxValue struct{}

func (MaxValue) Name() string { return "max-value" }

func (MaxValue) Score(value int32) int64 { return int64(value) }

// ByName resolves a configured rule name. Unknown names fall back to
// the default rule.
func ByName(name string) Rule {
	switch name {
	case "", MaxValue{}.Name():
		return MaxValue{}
	default:
		return nil
	}
}
