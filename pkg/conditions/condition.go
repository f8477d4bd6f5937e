package conditions

import (
	"encoding/json"
	"fmt"
)

// Role records whether a condition was authored as a gate or a mutation.
type Role string

const (
	RoleRequirement Role = "requirement"
	RoleEffect      Role = "effect"
)

// Kind is the game-state quantity a condition targets.
type Kind string

const (
	KindCurrency Kind = "currency"
	KindItem     Kind = "item"
)

// Condition is a single gating rule or state mutation attached to a reply
// or reference. The same shape serves both roles, discriminated by AddedAs.
type Condition struct {
	AddedAs Role   `json:"addedAs"`
	Type    Kind   `json:"type"`
	Value   Value  `json:"value"`
	KeyWord string `json:"keyWord"`

	// GreaterThan selects strict greater-than vs strict less-than comparison.
	// Only meaningful for currency requirements; item possession is boolean
	// equality and never carries it.
	GreaterThan *bool `json:"greaterThan,omitempty"`
}

// Value is the number-or-bool payload of a condition. Currency conditions
// carry a number (threshold or signed delta); item conditions carry a bool
// (possessed / not possessed). The JSON form is the bare scalar.
type Value struct {
	Number float64
	Bool   bool
	IsBool bool
}

// NumberValue builds a numeric condition value.
func NumberValue(n float64) Value {
	return Value{Number: n}
}

// BoolValue builds a boolean condition value.
func BoolValue(b bool) Value {
	return Value{Bool: b, IsBool: true}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Number)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	// Try bool first; a currency value is any JSON number.
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Value{Bool: b, IsBool: true}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("condition value must be a number or a bool: %w", err)
	}
	*v = Value{Number: n}
	return nil
}

// AsNumber returns the numeric payload. A boolean value coerces to 0 or 1.
func (v Value) AsNumber() float64 {
	if v.IsBool {
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Number
}

// AsBool returns the boolean payload. A numeric value coerces to != 0.
func (v Value) AsBool() bool {
	if v.IsBool {
		return v.Bool
	}
	return v.Number != 0
}

// IsGreaterThan reports whether the comparison direction is strict
// greater-than. Absent means strict less-than.
func (c Condition) IsGreaterThan() bool {
	return c.GreaterThan != nil && *c.GreaterThan
}

// Validate reports structural problems in an authored condition.
func (c Condition) Validate() error {
	switch c.AddedAs {
	case RoleRequirement, RoleEffect:
	default:
		return fmt.Errorf("condition addedAs must be %q or %q, got %q", RoleRequirement, RoleEffect, c.AddedAs)
	}
	switch c.Type {
	case KindCurrency, KindItem:
	default:
		return fmt.Errorf("condition type must be %q or %q, got %q", KindCurrency, KindItem, c.Type)
	}
	if c.KeyWord == "" {
		return fmt.Errorf("condition is missing a keyWord")
	}
	if c.Type == KindItem && c.GreaterThan != nil {
		return fmt.Errorf("item condition %q must not carry greaterThan", c.KeyWord)
	}
	return nil
}
