package conditions

import "fmt"

// StateView provides the minimal read access needed to evaluate requirements.
// This avoids an import cycle with the state package.
type StateView interface {
	// CurrencyValue returns the live value for a currency keyword, and
	// whether the keyword is defined at all.
	CurrencyValue(keyWord string) (float64, bool)
	// HasItem reports whether the player currently holds an item.
	HasItem(keyWord string) bool
}

// Evaluate checks a single requirement against live state.
//
// Currency comparisons are strict: a value exactly equal to the threshold
// never satisfies the requirement. An unknown currency keyword fails closed.
func Evaluate(req Condition, view StateView) bool {
	switch req.Type {
	case KindItem:
		return view.HasItem(req.KeyWord) == req.Value.AsBool()
	case KindCurrency:
		v, ok := view.CurrencyValue(req.KeyWord)
		if !ok {
			return false
		}
		if req.IsGreaterThan() {
			return v > req.Value.AsNumber()
		}
		return v < req.Value.AsNumber()
	default:
		return false
	}
}

// EvaluateAll reports whether every requirement in the list is met.
// An empty list is vacuously met.
func EvaluateAll(reqs []Condition, view StateView) bool {
	for _, r := range reqs {
		if !Evaluate(r, view) {
			return false
		}
	}
	return true
}

// Describe renders a condition as a human-readable rule summary for the
// authoring UI. displayNames maps currency keywords to their player-facing
// names; an unmapped keyword falls back to the raw keyword.
func Describe(c Condition, displayNames map[string]string) string {
	name := c.KeyWord
	if dn, ok := displayNames[c.KeyWord]; ok && dn != "" {
		name = dn
	}

	if c.AddedAs == RoleEffect {
		if c.Type == KindItem {
			if c.Value.AsBool() {
				return fmt.Sprintf("gain %s", name)
			}
			return fmt.Sprintf("lose %s", name)
		}
		delta := c.Value.AsNumber()
		if delta < 0 {
			return fmt.Sprintf("lose %g %s", -delta, name)
		}
		return fmt.Sprintf("gain %g %s", delta, name)
	}

	if c.Type == KindItem {
		if c.Value.AsBool() {
			return fmt.Sprintf("requires %s", name)
		}
		return fmt.Sprintf("requires not having %s", name)
	}
	if c.IsGreaterThan() {
		return fmt.Sprintf("requires %s above %g", name, c.Value.AsNumber())
	}
	return fmt.Sprintf("requires %s below %g", name, c.Value.AsNumber())
}
