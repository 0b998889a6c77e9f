package vnpay

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppay/internal/payment"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		amount string
		rate   int64
		want   int64
	}{
		{"10.00", 25000, 25000000},
		{"19.99", 25000, 49975000},
		{"0.01", 25000, 25000},
		{"150000", 1, 15000000},
		{"99.995", 1, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToMinor(decimal.RequireFromString(tt.amount), decimal.NewFromInt(tt.rate))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinor_Rejects(t *testing.T) {
	_, err := ToMinor(decimal.RequireFromString("0.4"), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)

	_, err = ToMinor(decimal.RequireFromString("-5"), decimal.NewFromInt(25000))
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)

	_, err = ToMinor(decimal.RequireFromString("5"), decimal.Zero)
	assert.ErrorIs(t, err, payment.ErrConfiguration)
}

func TestFromMinor(t *testing.T) {
	tests := []struct {
		minor int64
		rate  int64
		want  string
	}{
		{25000000, 25000, "10"},
		{49975000, 25000, "19.99"},
		{100, 3, "0.33"},
		{500, 200, "0.03"}, // 0.025 rounds half-up
		{15000000, 1, "150000"},
	}

	for _, tt := range tests {
		got := FromMinor(tt.minor, decimal.NewFromInt(tt.rate))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "FromMinor(%d, %d) = %s", tt.minor, tt.rate, got)
	}
}

func TestMinorRoundTrip(t *testing.T) {
	rate := decimal.NewFromInt(25000)
	for _, s := range []string{"0.01", "1.23", "10.00", "59.99", "1234.56"} {
		amount := decimal.RequireFromString(s)
		minor, err := ToMinor(amount, rate)
		require.NoError(t, err)
		assert.True(t, amount.Equal(FromMinor(minor, rate)), s)
	}
}
