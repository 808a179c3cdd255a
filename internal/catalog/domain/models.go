// Package domain contains persistence models for the product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry.
type Product struct {
	ID          snowflake.ID     `gorm:"primaryKey"`
	Name        string           `gorm:"type:text;not null"`
	Description string           `gorm:"type:text;not null;default:''"`
	Price       *decimal.Decimal `gorm:"type:numeric(14,2)"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// BillingPlan prices a product on a recurring cadence. Immutable per billing
// run; plan changes take effect on the next run.
type BillingPlan struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	ProductID         snowflake.ID    `gorm:"not null;index"`
	Price             decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Recurrence        string          `gorm:"type:text;not null;default:'yearly'"`
	BillDaysBeforeEnd int             `gorm:"not null;default:20"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingPlan) TableName() string { return "billing_plans" }

// WorkType prices hourly work billed through work line items.
type WorkType struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	Name         string          `gorm:"type:text;not null"`
	PricePerHour decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (WorkType) TableName() string { return "work_types" }
