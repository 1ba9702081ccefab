package transport

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

func TestFlexInt(t *testing.T) {
	t.Parallel()

	var req CartUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","product_id":"5","quantity":3}`), &req))
	assert.Equal(t, FlexInt(5), req.ProductID)
	qty, err := req.Qty()
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	require.NoError(t, json.Unmarshal([]byte(`{"product_id":" -2 "}`), &req))
	assert.Equal(t, FlexInt(-2), req.ProductID)

	assert.Error(t, json.Unmarshal([]byte(`{"product_id":"abc"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"product_id":1.5}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"product_id":true}`), &req))
}

func TestCartUpdateRequestQuantity(t *testing.T) {
	t.Parallel()

	req := NewCartUpdateRequest(1)
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","product_id":5}`), &req))
	qty, err := req.Qty()
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	req = NewCartUpdateRequest(1)
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","product_id":5,"quantity":"0"}`), &req))
	qty, err = req.Qty()
	require.NoError(t, err)
	assert.Zero(t, qty)

	req = NewCartUpdateRequest(1)
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","product_id":5,"quantity":null}`), &req))
	_, err = req.Qty()
	assert.ErrorIs(t, err, ErrNullQuantity)
}

func TestNewProductPriceIsNumber(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(NewProduct(models.Product{ID: 5, Price: decimal.RequireFromString("450.00"), IsFeatured: true}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":450`)
	assert.Contains(t, string(b), `"is_featured":true`)
}

func TestNewOrderSummarizesItems(t *testing.T) {
	t.Parallel()

	o := NewOrder(models.Order{
		ID:          7,
		TotalAmount: decimal.RequireFromString("955.50"),
		Items: []models.OrderItem{
			{ProductID: 5, Quantity: 2, Price: decimal.NewFromInt(450), Product: &models.Product{Name: "Arduino Uno R3"}},
			{ProductID: 22, Quantity: 1, Price: decimal.RequireFromString("55.50")},
		},
	})
	assert.Equal(t, "Arduino Uno R3 (x2), product 22 (x1)", o.Items)
	assert.Equal(t, 955.5, o.TotalAmount)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, 55.5, o.Lines[1].Price)
}
