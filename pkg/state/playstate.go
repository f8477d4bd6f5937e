package state

import (
	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// PlayState is the live mapping of currency values and item flags during
// one test-mode session. It is rebuilt from currency definitions every time
// test mode starts and is never persisted.
//
// Mutating operations return a new PlayState and leave the receiver
// untouched, so a halted or abandoned walk can always be inspected at any
// earlier snapshot.
type PlayState struct {
	defs       []story.Currency
	currencies map[string]float64
	items      map[string]bool
}

// UserCurrency pairs a currency definition with its live session value.
type UserCurrency struct {
	Currency  story.Currency `json:"currency"`
	UserValue float64        `json:"userValue"`
}

// New seeds a play state from the project's currency definitions. Every
// currency starts at its StartingValue; no items are possessed.
func New(currencies []story.Currency) *PlayState {
	ps := &PlayState{
		defs:       append([]story.Currency(nil), currencies...),
		currencies: make(map[string]float64, len(currencies)),
		items:      make(map[string]bool),
	}
	for _, c := range currencies {
		ps.currencies[c.KeyWord] = c.StartingValue
	}
	return ps
}

// CurrencyValue implements conditions.StateView.
func (ps *PlayState) CurrencyValue(keyWord string) (float64, bool) {
	v, ok := ps.currencies[keyWord]
	return v, ok
}

// HasItem implements conditions.StateView.
func (ps *PlayState) HasItem(keyWord string) bool {
	return ps.items[keyWord]
}

// WithCurrency returns a copy with one currency set to an explicit value.
// Used by the test harness to let an author seed starting state. Setting an
// undefined keyword is a no-op.
func (ps *PlayState) WithCurrency(keyWord string, value float64) *PlayState {
	if _, ok := ps.currencies[keyWord]; !ok {
		return ps
	}
	next := ps.clone()
	next.currencies[keyWord] = value
	return next
}

// WithItem returns a copy with one possession flag set.
func (ps *PlayState) WithItem(keyWord string, possessed bool) *PlayState {
	next := ps.clone()
	next.items[keyWord] = possessed
	return next
}

// Readout returns the currencies paired with their live values, in
// definition order, for display during a test run.
func (ps *PlayState) Readout() []UserCurrency {
	out := make([]UserCurrency, 0, len(ps.defs))
	for _, def := range ps.defs {
		out = append(out, UserCurrency{Currency: def, UserValue: ps.currencies[def.KeyWord]})
	}
	return out
}

// Items returns the possession flags currently set.
func (ps *PlayState) Items() map[string]bool {
	out := make(map[string]bool, len(ps.items))
	for k, v := range ps.items {
		out[k] = v
	}
	return out
}

func (ps *PlayState) clone() *PlayState {
	next := &PlayState{
		defs:       ps.defs,
		currencies: make(map[string]float64, len(ps.currencies)),
		items:      make(map[string]bool, len(ps.items)),
	}
	for k, v := range ps.currencies {
		next.currencies[k] = v
	}
	for k, v := range ps.items {
		next.items[k] = v
	}
	return next
}

// ApplyEffect applies a single effect, returning the resulting state.
//
// A currency effect adds its signed delta to the running total, with no
// clamping; the value can go negative. An item effect sets the possession
// flag. An effect naming an undefined currency keyword is a no-op rather
// than an error.
func ApplyEffect(ps *PlayState, effect conditions.Condition) *PlayState {
	switch effect.Type {
	case conditions.KindCurrency:
		cur, ok := ps.currencies[effect.KeyWord]
		if !ok {
			return ps
		}
		next := ps.clone()
		next.currencies[effect.KeyWord] = cur + effect.Value.AsNumber()
		return next
	case conditions.KindItem:
		return ps.WithItem(effect.KeyWord, effect.Value.AsBool())
	default:
		return ps
	}
}

// ApplyEffects folds a reply's effect list over the state in list order.
// Order matters: effects targeting the same keyword compound.
func ApplyEffects(ps *PlayState, effects []conditions.Condition) *PlayState {
	for _, e := range effects {
		ps = ApplyEffect(ps, e)
	}
	return ps
}
