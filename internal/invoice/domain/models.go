// Package domain contains persistence models and contracts for invoices.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fakturo/fakturo/internal/actor"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/paymentref"
)

var (
	ErrInvoiceNotFound        = errors.New("invoice_not_found")
	ErrDuplicateInvoiceNumber = errors.New("duplicate_invoice_number")
)

// Invoice is an issued document owning its attached line items. The numeric
// primary identifier doubles as the base of the QR payment reference.
type Invoice struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	CustomerID    snowflake.ID      `gorm:"not null;index"`
	InvoiceNumber string            `gorm:"type:text;not null;uniqueIndex"`
	Date          time.Time         `gorm:"not null"`
	DueDate       time.Time         `gorm:"not null"`
	HeaderText    string            `gorm:"type:text;not null;default:''"`
	FooterText    string            `gorm:"type:text;not null;default:''"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

type CreateInvoiceRequest struct {
	CustomerID    snowflake.ID
	InvoiceNumber string
	Date          time.Time
	DueDate       time.Time
	HeaderText    string
	FooterText    string
	Metadata      map[string]any
}

// Service aggregates line items into invoice documents.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest, a actor.Actor) (*Invoice, error)
	GetByID(ctx context.Context, invoiceID snowflake.ID) (*Invoice, error)
	AttachOpenItems(ctx context.Context, invoiceID, customerID snowflake.ID, a actor.Actor) (int, error)
	ListItems(ctx context.Context, invoiceID snowflake.ID) ([]lineitemdomain.LineItem, error)
	TotalSum(ctx context.Context, invoiceID snowflake.ID) (decimal.Decimal, error)
	PaymentReference(invoice *Invoice) (string, error)
	QRPayload(ctx context.Context, invoiceID snowflake.ID, debtor paymentref.Party) (paymentref.Payload, error)
}
