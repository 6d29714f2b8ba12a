package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

func TestResolveUnitPrice(t *testing.T) {
	optionID := uuid.New()
	product := &model.Product{ID: uuid.New(), Price: d("500.00")}
	selected := []model.OptionValue{
		{ID: uuid.New(), OptionID: optionID, Value: "large", PriceModifier: d("75.00")},
	}

	price, err := ResolveUnitPrice(product, selected, []uuid.UUID{optionID})
	require.NoError(t, err)
	assert.True(t, d("575.00").Equal(price))
}

func TestResolveUnitPrice_TwoOptions(t *testing.T) {
	sizeOption := uuid.New()
	extrasOption := uuid.New()
	product := &model.Product{ID: uuid.New(), Price: d("500.00")}
	selected := []model.OptionValue{
		{OptionID: sizeOption, Value: "large", PriceModifier: d("50.00")},
		{OptionID: extrasOption, Value: "cheese", PriceModifier: d("25.00")},
	}

	price, err := ResolveUnitPrice(product, selected, []uuid.UUID{sizeOption, extrasOption})
	require.NoError(t, err)
	assert.True(t, d("575.00").Equal(price))
	assert.True(t, d("1725.00").Equal(lineTotal(price, 3)))
}

func TestResolveUnitPrice_NegativeModifierClampsAtZero(t *testing.T) {
	optionID := uuid.New()
	product := &model.Product{ID: uuid.New(), Price: d("3.00")}
	selected := []model.OptionValue{
		{OptionID: optionID, Value: "voucher", PriceModifier: d("-10.00")},
	}

	price, err := ResolveUnitPrice(product, selected, []uuid.UUID{optionID})
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestResolveUnitPrice_TruncatesToCurrencyPrecision(t *testing.T) {
	optionID := uuid.New()
	product := &model.Product{ID: uuid.New(), Price: d("10.00")}
	selected := []model.OptionValue{
		{OptionID: optionID, Value: "extra", PriceModifier: d("0.999")},
	}

	price, err := ResolveUnitPrice(product, selected, []uuid.UUID{optionID})
	require.NoError(t, err)
	assert.True(t, d("10.99").Equal(price))
}

func TestResolveUnitPrice_UnmappedOptionRejected(t *testing.T) {
	product := &model.Product{ID: uuid.New(), Price: d("500.00")}
	stray := []model.OptionValue{
		{OptionID: uuid.New(), Value: "extra cheese", PriceModifier: d("5.00")},
	}

	_, err := ResolveUnitPrice(product, stray, nil)
	assert.ErrorIs(t, err, ErrInvalidOptionSelection)
}

func TestResolveUnitPrice_NoOptions(t *testing.T) {
	product := &model.Product{ID: uuid.New(), Price: d("42.50")}
	price, err := ResolveUnitPrice(product, nil, nil)
	require.NoError(t, err)
	assert.True(t, d("42.50").Equal(price))
}
