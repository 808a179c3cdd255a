// Package service implements invoice aggregation: attaching line items,
// summing totals, and deriving the QR payment reference.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fakturo/fakturo/internal/actor"
	"github.com/fakturo/fakturo/internal/config"
	"github.com/fakturo/fakturo/internal/invoice/domain"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/paymentref"
	"github.com/fakturo/fakturo/pkg/db"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	BillingCfg *config.BillingConfigHolder `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	billingCfg *config.BillingConfigHolder
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		billingCfg: p.BillingCfg,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest, a actor.Actor) (*domain.Invoice, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	invoice := &domain.Invoice{
		ID:            s.genID.Generate(),
		CustomerID:    req.CustomerID,
		InvoiceNumber: req.InvoiceNumber,
		Date:          req.Date,
		DueDate:       req.DueDate,
		HeaderText:    req.HeaderText,
		FooterText:    req.FooterText,
		Metadata:      normalizeMetadata(req.Metadata),
	}
	if err := s.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, req.InvoiceNumber)
		}
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("actor", a.Name),
	)
	return invoice, nil
}

func normalizeMetadata(input map[string]any) datatypes.JSONMap {
	if len(input) == 0 {
		return datatypes.JSONMap{}
	}
	output := datatypes.JSONMap{}
	for k, v := range input {
		output[k] = v
	}
	return output
}

func (s *Service) GetByID(ctx context.Context, invoiceID snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
		}
		return nil, err
	}
	return &invoice, nil
}

// AttachOpenItems claims the customer's not-yet-invoiced line items for the
// invoice and returns how many were attached. Items are immutable once
// attached; this is the only mutation the engine performs on them.
func (s *Service) AttachOpenItems(ctx context.Context, invoiceID, customerID snowflake.ID, a actor.Actor) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	var attached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&domain.Invoice{}, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
			}
			return err
		}
		res := tx.Model(&lineitemdomain.LineItem{}).
			Where("customer_id = ? AND invoice_id IS NULL", customerID).
			Update("invoice_id", invoiceID)
		if res.Error != nil {
			return res.Error
		}
		attached = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(attached), nil
}

func (s *Service) ListItems(ctx context.Context, invoiceID snowflake.ID) ([]lineitemdomain.LineItem, error) {
	var items []lineitemdomain.LineItem
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TotalSum sums the rounded totals of all attached line items. Each line is
// rounded before summation, so ordering cannot affect the result; an empty
// invoice sums to 0.00.
func (s *Service) TotalSum(ctx context.Context, invoiceID snowflake.ID) (decimal.Decimal, error) {
	items, err := s.ListItems(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total())
	}
	return sum, nil
}

// PaymentReference derives the 27-digit QR reference from the invoice's
// numeric identifier. It is recomputed on demand, never stored.
func (s *Service) PaymentReference(invoice *domain.Invoice) (string, error) {
	if invoice == nil {
		return "", domain.ErrInvoiceNotFound
	}
	return paymentref.GenerateReferenceFromID(int64(invoice.ID))
}

// QRPayload assembles the QR-bill payment part for the renderer, using the
// configured creditor and the invoice's aggregated total.
func (s *Service) QRPayload(ctx context.Context, invoiceID snowflake.ID, debtor paymentref.Party) (paymentref.Payload, error) {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return paymentref.Payload{}, err
	}
	total, err := s.TotalSum(ctx, invoiceID)
	if err != nil {
		return paymentref.Payload{}, err
	}

	billing := config.DefaultBillingConfig()
	if s.billingCfg != nil {
		billing = s.billingCfg.Get()
	}
	creditor := paymentref.Party{
		Name:       billing.Creditor.Name,
		Street:     billing.Creditor.Street,
		PostalCode: billing.Creditor.PostalCode,
		City:       billing.Creditor.City,
		Country:    billing.Creditor.Country,
	}
	return paymentref.NewPayload(billing.Creditor.Account, creditor, debtor, total, invoice.InvoiceNumber, int64(invoice.ID))
}
