package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTrunc(t *testing.T) {
	assert.True(t, d("12.99").Equal(Trunc(d("12.999"))))
	assert.True(t, d("12.99").Equal(Trunc(d("12.99"))))
	assert.True(t, d("-3.45").Equal(Trunc(d("-3.456"))))
}

func TestClampNonNegative(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ClampNonNegative(d("-0.01"))))
	assert.True(t, d("5.00").Equal(ClampNonNegative(d("5.00"))))
	assert.True(t, decimal.Zero.Equal(ClampNonNegative(decimal.Zero)))
}

func TestMin(t *testing.T) {
	assert.True(t, d("1.00").Equal(Min(d("1.00"), d("2.00"))))
	assert.True(t, d("1.00").Equal(Min(d("2.00"), d("1.00"))))
}

func TestPercent(t *testing.T) {
	assert.True(t, d("11.50").Equal(Percent(d("115.00"), d("10"))))
	// 33.333... truncates, never rounds
	assert.True(t, d("33.33").Equal(Percent(d("100.00"), d("33.3333"))))
}
