package erp

import (
	"context"
	"fmt"
)

// Models read by the dashboard.
const (
	ModelProductTemplate  = "product.template"
	ModelProduct          = "product.product"
	ModelSaleOrder        = "sale.order"
	ModelSaleOrderLine    = "sale.order.line"
	ModelMove             = "account.move"
	ModelMoveLine         = "account.move.line"
	ModelPartialReconcile = "account.partial.reconcile"
	ModelPayment          = "account.payment"
	ModelTeam             = "crm.team"
)

// DefaultChunkSize bounds the ids sent in one "in" predicate.
const DefaultChunkSize = 500

// Chunk splits ids into consecutive groups of at most size.
func Chunk(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(ids) == 0 {
		return nil
	}
	out := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

// ReadIn reads model records whose field is one of ids, one request per chunk.
// Any chunk failure fails the whole read.
func ReadIn[T any](ctx context.Context, r Reader, model, field string, ids []int64, chunkSize int, extra Domain, fields []string) ([]T, error) {
	var out []T
	for i, chunk := range Chunk(ids, chunkSize) {
		var page []T
		domain := Where(In(field, chunk)).Extend(extra)
		if err := r.SearchRead(ctx, model, domain, fields, &page); err != nil {
			return nil, fmt.Errorf("read %s chunk %d: %w", model, i+1, err)
		}
		out = append(out, page...)
	}
	return out, nil
}

// UniqueIDs drops zeros and duplicates, keeping first-seen order.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
