package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/cuadra/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, run *domain.Run) error {
	if run == nil {
		return nil
	}
	return db.WithContext(ctx).Create(run).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Run, error) {
	var runs []*domain.Run
	stmt := db.WithContext(ctx).Model(&domain.Run{})

	if page := strings.TrimSpace(filter.Page); page != "" {
		stmt = stmt.Where("page = ?", page)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
