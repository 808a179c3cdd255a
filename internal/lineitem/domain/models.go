// Package domain contains the invoice line-item model and its money
// semantics. A line item is created once per billing advance and becomes
// immutable once attached to an issued invoice.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of line-item variants.
type Kind string

const (
	KindProduct        Kind = "product"
	KindSubscription   Kind = "subscription"
	KindWork           Kind = "work"
	KindVehicleExpense Kind = "expense_vehicle"
)

// DiscountType selects how DiscountValue is applied.
type DiscountType string

const (
	DiscountPercent  DiscountType = "percent"
	DiscountAbsolute DiscountType = "absolute"
)

var (
	ErrInvalidKind       = errors.New("invalid_line_item_kind")
	ErrInvalidKindFields = errors.New("line_item_fields_do_not_match_kind")
	ErrNegativeDiscount  = errors.New("negative_discount_value")
)

// LineItem is one billable entry on an invoice. Field presence depends on
// Kind and is validated at construction, mirroring the per-kind database
// check constraints.
type LineItem struct {
	ID                 snowflake.ID    `gorm:"primaryKey"`
	Kind               Kind            `gorm:"type:text;not null"`
	CustomerID         snowflake.ID    `gorm:"not null;index"`
	InvoiceID          *snowflake.ID   `gorm:"index"`
	Price              decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Quantity           decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DiscountValue      decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0"`
	DiscountType       DiscountType    `gorm:"type:text;not null;default:'percent'"`
	ProductID          *snowflake.ID   `gorm:"index"`
	SubscriptionID     *snowflake.ID   `gorm:"index"`
	WorkTypeID         *snowflake.ID   `gorm:"index"`
	VehicleID          *snowflake.ID   `gorm:"index"`
	CommentTitle       string          `gorm:"type:text;not null;default:''"`
	CommentDescription string          `gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "line_items" }

// Validate enforces the per-kind field invariants. Mixed-kind field
// combinations are rejected here rather than by nullable-field checks
// scattered through callers.
func (li LineItem) Validate() error {
	if li.DiscountValue.IsNegative() {
		return ErrNegativeDiscount
	}
	if li.DiscountType != DiscountPercent && li.DiscountType != DiscountAbsolute {
		return fmt.Errorf("%w: discount type %q", ErrInvalidKindFields, li.DiscountType)
	}

	switch li.Kind {
	case KindProduct:
		if li.ProductID == nil || li.SubscriptionID != nil || li.WorkTypeID != nil || li.VehicleID != nil ||
			li.CommentTitle != "" || li.CommentDescription != "" {
			return fmt.Errorf("%w: kind=product", ErrInvalidKindFields)
		}
	case KindSubscription:
		if li.SubscriptionID == nil || li.ProductID == nil || li.CommentTitle == "" ||
			li.WorkTypeID != nil || li.VehicleID != nil || li.CommentDescription != "" {
			return fmt.Errorf("%w: kind=subscription", ErrInvalidKindFields)
		}
	case KindWork:
		if li.WorkTypeID == nil || li.CommentTitle == "" ||
			li.ProductID != nil || li.SubscriptionID != nil || li.VehicleID != nil {
			return fmt.Errorf("%w: kind=work", ErrInvalidKindFields)
		}
	case KindVehicleExpense:
		if li.VehicleID == nil || li.CommentTitle == "" || li.CommentDescription == "" ||
			li.ProductID != nil || li.SubscriptionID != nil || li.WorkTypeID != nil {
			return fmt.Errorf("%w: kind=expense_vehicle", ErrInvalidKindFields)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, li.Kind)
	}
	return nil
}
