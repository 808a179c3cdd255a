// Package domain contains persistence models and contracts for
// subscriptions and their billing-period advances.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
)

// Subscription captures a customer's recurring billing agreement.
// end_billed_date is the last day already invoiced; a set cancelled_date is
// terminal and permits no further extension.
type Subscription struct {
	ID            snowflake.ID                `gorm:"primaryKey"`
	PlanID        snowflake.ID                `gorm:"not null;index"`
	CustomerID    snowflake.ID                `gorm:"not null;index"`
	StartDate     time.Time                   `gorm:"not null"`
	EndBilledDate *time.Time                  `gorm:""`
	CancelledDate *time.Time                  `gorm:""`
	DiscountValue decimal.Decimal             `gorm:"type:numeric(14,4);not null;default:0"`
	DiscountType  lineitemdomain.DiscountType `gorm:"type:text;not null;default:'percent'"`
	CreatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

func (s Subscription) IsCancelled() bool {
	return s.CancelledDate != nil
}
