package erptest

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID    int64        `json:"id"`
	Order erp.Many2One `json:"order_id"`
	Name  erp.Text     `json:"name"`
}

func seeded() *Reader {
	return NewReader().Add(erp.ModelSaleOrderLine,
		Record{"id": 3, "order_id": []any{10, "S10"}, "name": "c"},
		Record{"id": 1, "order_id": []any{10, "S10"}, "name": "a"},
		Record{"id": 2, "order_id": []any{11, "S11"}, "name": "b"},
	)
}

func TestSearchReadEvaluatesDomain(t *testing.T) {
	r := seeded()

	var out []line
	err := r.SearchRead(context.Background(), erp.ModelSaleOrderLine, erp.Where(erp.In("order_id", []int64{10})), []string{"order_id", "name"}, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, "S10", out[0].Order.Name)

	out = nil
	d := erp.Or(erp.Eq("name", "b"), erp.Eq("id", 3))
	require.NoError(t, r.SearchRead(context.Background(), erp.ModelSaleOrderLine, d, nil, &out))
	assert.Len(t, out, 2)
}

func TestMissingFieldsDecodeAsFalse(t *testing.T) {
	r := seeded()
	var out []line
	require.NoError(t, r.SearchRead(context.Background(), erp.ModelSaleOrderLine, nil, []string{"order_id", "name", "missing"}, &out))
	assert.Len(t, out, 3)
}

func TestFailHook(t *testing.T) {
	r := seeded()
	boom := errors.New("boom")
	r.Fail = func(c Call, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	}

	var out []line
	require.NoError(t, r.SearchRead(context.Background(), erp.ModelSaleOrderLine, nil, nil, &out))
	assert.ErrorIs(t, r.SearchRead(context.Background(), erp.ModelSaleOrderLine, nil, nil, &out), boom)
	assert.Len(t, r.CallsTo(erp.ModelSaleOrderLine), 2)
}

func TestFieldsGet(t *testing.T) {
	r := seeded().Schema(erp.ModelPayment, "move_id")

	fields, err := r.FieldsGet(context.Background(), erp.ModelPayment)
	require.NoError(t, err)
	assert.True(t, fields.Has("move_id"))

	fields, err = r.FieldsGet(context.Background(), erp.ModelSaleOrderLine)
	require.NoError(t, err)
	assert.True(t, fields.Has("order_id"))

	_, err = r.FieldsGet(context.Background(), erp.ModelPartialReconcile)
	assert.True(t, erp.IsRemote(err))
}
