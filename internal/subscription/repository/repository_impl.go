// Package repository implements subscription persistence over gorm.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fakturo/fakturo/internal/actor"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/subscription/domain"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).First(&subscription, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	stmt := db.WithContext(ctx)
	// sqlite has no row locks; the whole database is single-writer there.
	if stmt.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var subscription domain.Subscription
	err := stmt.First(&subscription, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) ListNotCancelled(ctx context.Context, db *gorm.DB) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("cancelled_date IS NULL").
		Order("id").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repository) UpdateEndBilledDate(ctx context.Context, db *gorm.DB, subscription *domain.Subscription, a actor.Actor) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET end_billed_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		subscription.EndBilledDate,
		subscription.ID,
	).Error
}

func (r *repository) InsertLineItem(ctx context.Context, db *gorm.DB, item *lineitemdomain.LineItem, a actor.Actor) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	return db.WithContext(ctx).Create(item).Error
}
