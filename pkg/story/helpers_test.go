package story

import "github.com/kmills-dev/storyloom/pkg/conditions"

// stubView is a minimal conditions.StateView for tests in this package.
type stubView struct {
	currencies map[string]float64
	items      map[string]bool
}

func (s stubView) CurrencyValue(keyWord string) (float64, bool) {
	v, ok := s.currencies[keyWord]
	return v, ok
}

func (s stubView) HasItem(keyWord string) bool {
	return s.items[keyWord]
}

func currencyReq(keyWord string, threshold float64, greaterThan bool) conditions.Condition {
	return conditions.Condition{
		AddedAs:     conditions.RoleRequirement,
		Type:        conditions.KindCurrency,
		KeyWord:     keyWord,
		Value:       conditions.NumberValue(threshold),
		GreaterThan: &greaterThan,
	}
}
