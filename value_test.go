package validus

import (
	"math"
	"testing"
)

func TestValueTruthy(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected bool
	}{
		{name: "nonzero number", value: Number(5), expected: true},
		{name: "negative number", value: Number(-5), expected: true},
		{name: "zero", value: Number(0), expected: false},
		{name: "true bool", value: Bool(true), expected: true},
		{name: "false bool", value: Bool(false), expected: false},
		{name: "non-empty string", value: Str("transmission"), expected: true},
		{name: "empty string", value: Str(""), expected: false},
		{name: "inf", value: Inf(), expected: true},
		{name: "negative inf", value: NegInf(), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Truthy(); got != tt.expected {
				t.Errorf("Truthy() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{name: "equal numbers", a: Number(5), b: Number(5), expected: true},
		{name: "unequal numbers", a: Number(5), b: Number(6), expected: false},
		{name: "equal strings", a: Str("plan"), b: Str("plan"), expected: true},
		{name: "equal bools", a: Bool(true), b: Bool(true), expected: true},
		{name: "inf equals inf", a: Inf(), b: Inf(), expected: true},
		{name: "inf not equal neg inf", a: Inf(), b: NegInf(), expected: false},
		{name: "inf not equal finite", a: Inf(), b: Number(1e18), expected: false},
		{name: "finite not equal inf", a: Number(50), b: Inf(), expected: false},
		{name: "number not equal string", a: Number(5), b: Str("5"), expected: false},
		{name: "bool not equal number", a: Bool(true), b: Number(1), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.expected {
				t.Errorf("Equal() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestValueLess(t *testing.T) {
	tests := []struct {
		name         string
		a, b         Value
		expectedLess bool
		expectedOK   bool
	}{
		{name: "number ordering", a: Number(-5), b: Number(0), expectedLess: true, expectedOK: true},
		{name: "number not less", a: Number(3), b: Number(2), expectedLess: false, expectedOK: true},
		{name: "string ordering", a: Str("alpha"), b: Str("beta"), expectedLess: true, expectedOK: true},
		{name: "inf unordered", a: Number(1), b: Inf(), expectedLess: false, expectedOK: false},
		{name: "inf unordered lhs", a: Inf(), b: Number(1), expectedLess: false, expectedOK: false},
		{name: "mixed kinds unordered", a: Number(1), b: Str("1"), expectedLess: false, expectedOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			less, ok := tt.a.Less(tt.b)
			if less != tt.expectedLess || ok != tt.expectedOK {
				t.Errorf("Less() = (%v, %v), expected (%v, %v)", less, ok, tt.expectedLess, tt.expectedOK)
			}
		})
	}
}

func TestValueOf(t *testing.T) {
	if v, ok := ValueOf(7); !ok || !v.Equal(Number(7)) {
		t.Errorf("ValueOf(int) = (%v, %v)", v, ok)
	}
	if v, ok := ValueOf(math.Inf(1)); !ok || !v.IsInf() {
		t.Errorf("ValueOf(+Inf) = (%v, %v)", v, ok)
	}
	if _, ok := ValueOf(nil); ok {
		t.Error("ValueOf(nil) should not produce a value")
	}
	if _, ok := ValueOf(map[string]int{}); ok {
		t.Error("ValueOf(map) should not produce a value")
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Number(5), "5"},
		{Number(-0.5), "-0.5"},
		{Bool(true), "true"},
		{Str("electricity"), "electricity"},
		{Inf(), "inf"},
		{NegInf(), "-inf"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.expected {
			t.Errorf("String() = %q, expected %q", got, tt.expected)
		}
	}
}
