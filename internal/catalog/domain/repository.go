package domain

import "context"

type Repository interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	ListProducts(ctx context.Context, templateIDs []int64) ([]Product, error)
}
