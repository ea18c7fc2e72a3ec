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
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 15000})
	require.NoError(t, err)
	assert.Equal(t, `"150.00"`, string(b))

	b, err = json.Marshal(Money{Cents: -3000})
	require.NoError(t, err)
	assert.Equal(t, `"-30.00"`, string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12.345"`), &m))
	assert.Equal(t, int64(1235), m.Cents)

	require.NoError(t, json.Unmarshal([]byte(`99.9`), &m))
	assert.Equal(t, int64(9990), m.Cents)

	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &m))
}

func TestMoneyJSONRejectsOutOfRange(t *testing.T) {
	for _, in := range []string{
		`"100000000000000000000"`,
		`100000000000000000000`,
		`"922337203685477.59"`,
		`"-5.00"`,
	} {
		m := Money{Cents: 42}
		err := json.Unmarshal([]byte(in), &m)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
		assert.Equal(t, int64(42), m.Cents, in)
	}

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"922337203685477.58"`), &m))
	assert.Equal(t, int64(maxCents), m.Cents)
}

func TestMoneyDivRound(t *testing.T) {
	assert.Equal(t, int64(333), Money{Cents: 1000}.DivRound(3).Cents)
	assert.Equal(t, int64(5), Money{Cents: 9}.DivRound(2).Cents) // 4.5 rounds up
	assert.Equal(t, int64(0), Money{Cents: 1000}.DivRound(0).Cents)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "125.00", Percentage(Money{Cents: 15000}, Money{Cents: 12000}).String())
	assert.Equal(t, "33.33", Percentage(Money{Cents: 1}, Money{Cents: 3}).String())
	assert.Equal(t, "66.67", Percentage(Money{Cents: 2}, Money{Cents: 3}).String())
	assert.Equal(t, "0.00", Percentage(Money{Cents: 500}, Money{}).String())

	b, err := json.Marshal(Percentage(Money{Cents: 1}, Money{Cents: 8}))
	require.NoError(t, err)
	assert.Equal(t, `12.50`, string(b))
}
