package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "integer amount", raw: "100", want: "100.00"},
		{name: "one decimal place", raw: "99.5", want: "99.50"},
		{name: "two decimal places", raw: "1234.56", want: "1234.56"},
		{name: "zero", raw: "0", want: "0.00"},
		{name: "zero with decimals", raw: "0.00", want: "0.00"},
		{name: "three decimal places", raw: "1.123", wantErr: ErrTooManyDecimals},
		{name: "trailing zero third decimal", raw: "1.100", wantErr: ErrTooManyDecimals},
		{name: "negative amount", raw: "-1.00", wantErr: ErrNegative},
		{name: "not a number", raw: "abc", wantErr: ErrNotANumber},
		{name: "empty input", raw: "", wantErr: ErrNotANumber},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLimit(tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, Format(got))
		})
	}
}

func TestParseLimitRoundTrip(t *testing.T) {
	t.Parallel() // Enable parallel execution

	// For all valid 2-decimal non-negative amounts a, ParseLimit(Format(a)) == a.
	for _, raw := range []string{"0.00", "0.01", "1.00", "19.99", "500.00", "123456.78"} {
		a, err := ParseLimit(raw)
		require.NoError(t, err, "ParseLimit(%q)", raw)

		back, err := ParseLimit(Format(a))
		require.NoError(t, err, "round trip of %q", raw)

		if !back.Equal(a) {
			t.Errorf("round trip changed value: %s != %s", Format(back), Format(a))
		}
	}
}

func TestParseDebt(t *testing.T) {
	t.Parallel() // Enable parallel execution
	maxDebt := decimal.RequireFromString("500.00")

	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "within range", raw: "400.00", want: "400.00"},
		{name: "exactly max", raw: "500.00", want: "500.00"},
		{name: "zero", raw: "0", want: "0.00"},
		{name: "above max", raw: "600.00", wantErr: ErrOutOfRange},
		{name: "just above max", raw: "500.01", wantErr: ErrOutOfRange},
		{name: "negative", raw: "-10", wantErr: ErrOutOfRange},
		{name: "three decimals", raw: "100.001", wantErr: ErrTooManyDecimals},
		{name: "not a number", raw: "lots", wantErr: ErrNotANumber},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDebt(tc.raw, maxDebt)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, Format(got))
		})
	}
}

func TestParseTransferAmount(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "plain amount", raw: "250.75", want: "250.75"},
		{name: "at the ceiling", raw: "1000000000.00", want: "1000000000.00"},
		{name: "above the ceiling", raw: "1000000000.01", wantErr: ErrOverflow},
		{name: "negative", raw: "-0.01", wantErr: ErrNegative},
		{name: "three decimals", raw: "0.005", wantErr: ErrTooManyDecimals},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTransferAmount(tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, Format(got))
		})
	}
}

func TestComparisonsAreExact(t *testing.T) {
	t.Parallel() // Enable parallel execution

	// 0.1 + 0.2 must compare equal to 0.3 exactly; this is the whole
	// point of carrying decimals instead of floats.
	a, err := ParseLimit("0.1")
	require.NoError(t, err)
	b, err := ParseLimit("0.2")
	require.NoError(t, err)
	c, err := ParseLimit("0.3")
	require.NoError(t, err)

	if !a.Add(b).Equal(c) {
		t.Errorf("0.1 + 0.2 != 0.3 under decimal arithmetic")
	}
}
