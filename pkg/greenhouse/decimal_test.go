package greenhouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		maxWhole int
		want     string
		ok       bool
	}{
		{"150.00", 6, "150.00", true},
		{"21.5", 3, "21.5", true},
		{"0.03", 3, "0.03", true},
		{"-4.20", 3, "-4.20", true},
		{"+7", 3, "+7", true},
		{".5", 3, ".5", true},
		{"007.00", 3, "007.00", true},
		{" 42.00 ", 3, "42.00", true},
		{"999.99", 3, "999.99", true},
		{"1000.00", 3, "", false},
		{"21.505", 3, "", false},
		{"", 3, "", false},
		{".", 3, "", false},
		{"-", 3, "", false},
		{"21.5.0", 3, "", false},
		{"abc", 3, "", false},
		{"1e3", 3, "", false},
	}

	for _, tc := range cases {
		d, err := ParseDecimal(tc.in, tc.maxWhole, 2)
		if tc.ok {
			require.NoError(t, err, "value %q", tc.in)
			assert.Equal(t, tc.want, d.String(), "value %q", tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDecimal, "value %q", tc.in)
		}
	}
}

func TestDecimalScan(t *testing.T) {
	var d Decimal

	require.NoError(t, d.Scan("150.00"))
	assert.Equal(t, "150.00", d.String())

	require.NoError(t, d.Scan([]byte("21.50")))
	assert.Equal(t, "21.50", d.String())

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, "", d.String())

	assert.Error(t, d.Scan(struct{}{}))
}

func TestDecimalValue(t *testing.T) {
	d, err := ParseDecimal("150.00", 6, 2)
	require.NoError(t, err)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "150.00", v)
}
