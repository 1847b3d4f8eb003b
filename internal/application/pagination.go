package application

import (
	"context"
	"errors"

	coreapp "github.com/nexusiam/iamcore/pkg/application"
	"gorm.io/gorm"
)

// Page is the pagination request every list query embeds, following the
// same request/response shape across every read model so the query bus
// never needs per-aggregate pagination handling.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (p Page) normalize() (offset, limit int) {
	limit = p.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// PageResult wraps a list query's rows with the total row count matching
// the filter, so a client can render pagination controls without a second
// round trip.
type PageResult[T any] struct {
	Rows  []T `json:"rows"`
	Total int64 `json:"total"`
}

// getRow loads a single projection row by id, translating gorm's not-found
// into the boundary NotFoundError every query handler returns.
func getRow[T any](ctx context.Context, db *gorm.DB, resource, id string) (T, error) {
	var row T
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, coreapp.NewNotFoundError(resource, id)
		}
		return zero, err
	}
	return row, nil
}

// getRowByScope loads a single projection row matched by an arbitrary scope
// rather than its primary key, for lookups keyed on a secondary column
// (e.g. an IDP intent's CSRF state). Translates not-found the same way
// getRow does.
func getRowByScope[T any](ctx context.Context, db *gorm.DB, resource string, scope func(*gorm.DB) *gorm.DB) (T, error) {
	var row T
	err := scope(db.WithContext(ctx).Model(new(T))).First(&row).Error
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, coreapp.NewNotFoundError(resource, "")
		}
		return zero, err
	}
	return row, nil
}

// listRows runs scope against two independent query chains — one for the
// total count, one for the page of rows — since reusing a single *gorm.DB
// chain across Count and Find would let the count call's clauses bleed into
// the row fetch.
func listRows[T any](ctx context.Context, db *gorm.DB, page Page, scope func(*gorm.DB) *gorm.DB) (PageResult[T], error) {
	if scope == nil {
		scope = func(q *gorm.DB) *gorm.DB { return q }
	}
	offset, limit := page.normalize()

	var total int64
	if err := scope(db.WithContext(ctx).Model(new(T))).Count(&total).Error; err != nil {
		return PageResult[T]{}, err
	}

	var rows []T
	if err := scope(db.WithContext(ctx).Model(new(T))).Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return PageResult[T]{}, err
	}
	return PageResult[T]{Rows: rows, Total: total}, nil
}
