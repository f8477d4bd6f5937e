package conditions

import (
	"encoding/json"
	"testing"
)

// fakeView is a minimal StateView for evaluation tests
type fakeView struct {
	currencies map[string]float64
	items      map[string]bool
}

func (f fakeView) CurrencyValue(keyWord string) (float64, bool) {
	v, ok := f.currencies[keyWord]
	return v, ok
}

func (f fakeView) HasItem(keyWord string) bool {
	return f.items[keyWord]
}

func boolPtr(b bool) *bool { return &b }

func TestEvaluate_CurrencyStrictComparison(t *testing.T) {
	view := fakeView{currencies: map[string]float64{"gold": 50}}

	tests := []struct {
		name string
		req  Condition
		want bool
	}{
		{
			name: "greater than, value above threshold",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(30), GreaterThan: boolPtr(true)},
			want: true,
		},
		{
			name: "greater than, value below threshold",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(80), GreaterThan: boolPtr(true)},
			want: false,
		},
		{
			name: "greater than, value exactly equal is never met",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(50), GreaterThan: boolPtr(true)},
			want: false,
		},
		{
			name: "less than, value below threshold",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(80)},
			want: true,
		},
		{
			name: "less than, value exactly equal is never met",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(50)},
			want: false,
		},
		{
			name: "unknown keyword fails closed",
			req:  Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "mana", Value: NumberValue(0), GreaterThan: boolPtr(true)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.req, view); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_ItemPossession(t *testing.T) {
	view := fakeView{items: map[string]bool{"lantern": true}}

	tests := []struct {
		name string
		req  Condition
		want bool
	}{
		{
			name: "requires held item that is held",
			req:  Condition{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "lantern", Value: BoolValue(true)},
			want: true,
		},
		{
			name: "requires held item that is missing",
			req:  Condition{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "rope", Value: BoolValue(true)},
			want: false,
		},
		{
			name: "requires absence of an unheld item",
			req:  Condition{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "rope", Value: BoolValue(false)},
			want: true,
		},
		{
			name: "greaterThan has no effect on item requirements",
			req:  Condition{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "lantern", Value: BoolValue(true), GreaterThan: boolPtr(true)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.req, view); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	view := fakeView{
		currencies: map[string]float64{"gold": 40},
		items:      map[string]bool{"key": true},
	}

	met := []Condition{
		{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(50)},
		{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "key", Value: BoolValue(true)},
	}
	if !EvaluateAll(met, view) {
		t.Error("Expected all requirements to be met")
	}

	unmet := append(met, Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(40), GreaterThan: boolPtr(true)})
	if EvaluateAll(unmet, view) {
		t.Error("Expected requirement list with an unmet entry to fail")
	}

	if !EvaluateAll(nil, view) {
		t.Error("Expected empty requirement list to be vacuously met")
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
		wantBool bool
		validate func(*testing.T, Value)
	}{
		{
			name:     "numeric value",
			jsonData: `{"addedAs":"requirement","type":"currency","value":50,"keyWord":"gold","greaterThan":true}`,
			validate: func(t *testing.T, v Value) {
				if v.IsBool {
					t.Error("Expected numeric value")
				}
				if v.AsNumber() != 50 {
					t.Errorf("Expected 50, got %g", v.AsNumber())
				}
			},
		},
		{
			name:     "boolean value",
			jsonData: `{"addedAs":"effect","type":"item","value":true,"keyWord":"lantern"}`,
			validate: func(t *testing.T, v Value) {
				if !v.IsBool {
					t.Error("Expected boolean value")
				}
				if !v.AsBool() {
					t.Error("Expected true")
				}
			},
		},
		{
			name:     "negative delta",
			jsonData: `{"addedAs":"effect","type":"currency","value":-20,"keyWord":"gold"}`,
			validate: func(t *testing.T, v Value) {
				if v.AsNumber() != -20 {
					t.Errorf("Expected -20, got %g", v.AsNumber())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Condition
			if err := json.Unmarshal([]byte(tt.jsonData), &c); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			tt.validate(t, c.Value)

			data, err := json.Marshal(c)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			var back Condition
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Re-unmarshal failed: %v", err)
			}
			tt.validate(t, back.Value)
		})
	}
}

func TestCondition_Validate(t *testing.T) {
	valid := Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(10)}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid condition, got %v", err)
	}

	itemWithComparison := Condition{AddedAs: RoleRequirement, Type: KindItem, KeyWord: "key", Value: BoolValue(true), GreaterThan: boolPtr(false)}
	if err := itemWithComparison.Validate(); err == nil {
		t.Error("Expected item condition with greaterThan to be rejected")
	}

	missingKeyword := Condition{AddedAs: RoleEffect, Type: KindCurrency, Value: NumberValue(1)}
	if err := missingKeyword.Validate(); err == nil {
		t.Error("Expected condition without keyWord to be rejected")
	}
}

func TestDescribe(t *testing.T) {
	names := map[string]string{"gold": "Gold Coins"}

	tests := []struct {
		name string
		cond Condition
		want string
	}{
		{
			name: "currency requirement above",
			cond: Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(50), GreaterThan: boolPtr(true)},
			want: "requires Gold Coins above 50",
		},
		{
			name: "currency requirement below",
			cond: Condition{AddedAs: RoleRequirement, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(50)},
			want: "requires Gold Coins below 50",
		},
		{
			name: "currency effect negative delta",
			cond: Condition{AddedAs: RoleEffect, Type: KindCurrency, KeyWord: "gold", Value: NumberValue(-20)},
			want: "lose 20 Gold Coins",
		},
		{
			name: "item effect gain, unmapped keyword",
			cond: Condition{AddedAs: RoleEffect, Type: KindItem, KeyWord: "lantern", Value: BoolValue(true)},
			want: "gain lantern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.cond, names); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
