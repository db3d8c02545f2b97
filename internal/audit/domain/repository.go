package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, run *Run) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Run, error)
}
