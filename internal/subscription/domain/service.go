package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fakturo/fakturo/internal/actor"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
)

var (
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrSubscriptionCancelled = errors.New("cannot extend a cancelled subscription")
)

// Repository is the persistence collaborator. The engine never performs its
// own locking beyond the row lock the repository takes inside a transaction.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListNotCancelled(ctx context.Context, db *gorm.DB) ([]Subscription, error)
	UpdateEndBilledDate(ctx context.Context, db *gorm.DB, subscription *Subscription, a actor.Actor) error
	InsertLineItem(ctx context.Context, db *gorm.DB, item *lineitemdomain.LineItem, a actor.Actor) error
}

// Service advances subscriptions through billing periods.
//
// Extend performs exactly one period advance: it creates one subscription
// line item and moves end_billed_date forward, atomically. Calling it twice
// advances two periods; guarding against double-invocation within one billing
// cycle is the caller's contract.
type Service interface {
	Extend(ctx context.Context, subscriptionID snowflake.ID, a actor.Actor) (*lineitemdomain.LineItem, error)
	GetByID(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
}
