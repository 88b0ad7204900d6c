package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"999.99", 99999, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٥", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"92233720368547758.99", 0, false},
		{"92233720368547758.075", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestParseDecimalAllowsZero(t *testing.T) {
	got, err := ParseDecimal("0")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestParseDecimalNeverWrapsNegative(t *testing.T) {
	for _, in := range []string{"92233720368547758.99", "92233720368547758.9"} {
		got, err := ParseDecimal(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
		assert.Zero(t, got, in)
	}
}

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, Money{Cents: 1}.Validate())
	assert.ErrorIs(t, Money{Cents: 0}.Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, Money{Cents: -500}.Validate(), ErrInvalidAmount)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1500.00", FromMajor(1500).String())
	assert.Equal(t, "0.05", FromMinorUnits(5).String())
	assert.Equal(t, "-12.30", FromMinorUnits(-1230).String())
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
		Goal   Money `json:"goal"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 12.5, "goal": "10000"}`), &payload))
	assert.Equal(t, int64(1250), payload.Amount.Cents)
	assert.Equal(t, int64(1000000), payload.Goal.Cents)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 12.50, "goal": 10000.00}`, string(out))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 33.3, RoundTo(100.0/3.0, 1))
	assert.Equal(t, 0.667, RoundTo(2.0/3.0, 3))
	assert.Equal(t, 250.0, RoundTo(250, 2))
}
