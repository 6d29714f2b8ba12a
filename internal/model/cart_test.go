package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCartItem_SelectionKey_OrderIndependent(t *testing.T) {
	productID := uuid.New()
	a := uuid.New()
	b := uuid.New()

	first := &CartItem{ProductID: productID, SelectedOptionIDs: []uuid.UUID{a, b}}
	second := &CartItem{ProductID: productID, SelectedOptionIDs: []uuid.UUID{b, a}}
	assert.Equal(t, first.SelectionKey(), second.SelectionKey())
}

func TestCartItem_SelectionKey_DifferentSelections(t *testing.T) {
	productID := uuid.New()
	withOption := &CartItem{ProductID: productID, SelectedOptionIDs: []uuid.UUID{uuid.New()}}
	plain := &CartItem{ProductID: productID}
	assert.NotEqual(t, withOption.SelectionKey(), plain.SelectionKey())

	otherProduct := &CartItem{ProductID: uuid.New()}
	assert.NotEqual(t, plain.SelectionKey(), otherProduct.SelectionKey())
}
