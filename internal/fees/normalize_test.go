package fees

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{name: "nil", raw: nil, want: "0"},
		{name: "float", raw: 149.99, want: "149.99"},
		{name: "int", raw: 1000, want: "1000"},
		{name: "numeric string", raw: "42.50", want: "42.5"},
		{name: "padded string", raw: "  17.25  ", want: "17.25"},
		{name: "garbled string", raw: "12abc", want: "0"},
		{name: "empty string", raw: "", want: "0"},
		{name: "null literal", raw: "null", want: "0"},
		{name: "json number", raw: json.Number("88.1"), want: "88.1"},
		{name: "quoted raw message", raw: json.RawMessage(`"73.02"`), want: "73.02"},
		{name: "unsupported type", raw: struct{}{}, want: "0"},
		{name: "negative passthrough", raw: "-5.5", want: "-5.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.raw)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ParseAmount(%v) = %s, want %s", tc.raw, got, tc.want)
			}
		})
	}
}
