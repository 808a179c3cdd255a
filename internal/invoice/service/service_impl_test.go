package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/fakturo/internal/actor"
	"github.com/fakturo/fakturo/internal/invoice/domain"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/paymentref"
)

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&lineitemdomain.LineItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})

	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) seedInvoice(t *testing.T, number string) *domain.Invoice {
	t.Helper()

	invoice, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		CustomerID:    f.node.Generate(),
		InvoiceNumber: number,
		Date:          time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}, actor.User("alice"))
	require.NoError(t, err)
	return invoice
}

func (f *fixture) seedItem(t *testing.T, invoiceID *snowflake.ID, customerID snowflake.ID, price string) {
	t.Helper()

	productID := f.node.Generate()
	item := lineitemdomain.LineItem{
		ID:           f.node.Generate(),
		Kind:         lineitemdomain.KindProduct,
		CustomerID:   customerID,
		InvoiceID:    invoiceID,
		Price:        decimal.RequireFromString(price),
		Quantity:     decimal.NewFromInt(1),
		DiscountType: lineitemdomain.DiscountPercent,
		ProductID:    &productID,
	}
	require.NoError(t, item.Validate())
	require.NoError(t, f.db.Create(&item).Error)
}

func TestTotalSum(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, "2024-001")

	f.seedItem(t, &invoice.ID, invoice.CustomerID, "9.00")
	f.seedItem(t, &invoice.ID, invoice.CustomerID, "10.00")

	total, err := f.svc.TotalSum(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.00", total.StringFixed(2))
}

func TestTotalSumEmptyInvoice(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, "2024-002")

	total, err := f.svc.TotalSum(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", total.StringFixed(2))
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	f.seedInvoice(t, "2024-003")

	_, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		CustomerID:    f.node.Generate(),
		InvoiceNumber: "2024-003",
		Date:          time.Now().UTC(),
		DueDate:       time.Now().UTC(),
	}, actor.User("alice"))
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoiceNumber)
}

func TestCreateRequiresActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		CustomerID:    f.node.Generate(),
		InvoiceNumber: "2024-004",
	}, actor.Actor{})
	assert.ErrorIs(t, err, actor.ErrMissingActor)
}

func TestAttachOpenItems(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, "2024-005")
	other := f.node.Generate()

	f.seedItem(t, nil, invoice.CustomerID, "25.00")
	f.seedItem(t, nil, invoice.CustomerID, "75.00")
	f.seedItem(t, nil, other, "99.00") // different customer, stays open

	attached, err := f.svc.AttachOpenItems(context.Background(), invoice.ID, invoice.CustomerID, actor.System())
	require.NoError(t, err)
	assert.Equal(t, 2, attached)

	items, err := f.svc.ListItems(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	total, err := f.svc.TotalSum(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", total.StringFixed(2))

	_, err = f.svc.AttachOpenItems(context.Background(), f.node.Generate(), invoice.CustomerID, actor.System())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestPaymentReference(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, "2024-006")

	ref, err := f.svc.PaymentReference(invoice)
	require.NoError(t, err)

	assert.Len(t, ref, 27)
	check, err := paymentref.Modulo10Recursive(ref[:26])
	require.NoError(t, err)
	assert.Equal(t, check, ref[26:])
	assert.Contains(t, ref, fmt.Sprintf("%d", invoice.ID))
}

func TestQRPayload(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, "2024-007")
	f.seedItem(t, &invoice.ID, invoice.CustomerID, "123.45")

	payload, err := f.svc.QRPayload(context.Background(), invoice.ID, paymentref.Party{
		Name:       "Max Mustermann",
		Street:     "Musterweg 2",
		PostalCode: "4000",
		City:       "Basel",
		Country:    "CH",
	})
	require.NoError(t, err)

	assert.Equal(t, "123.45", payload.Amount)
	assert.Equal(t, "CHF", payload.Currency)
	assert.Equal(t, "Rechnung 2024-007", payload.AdditionalInformation)
	assert.Len(t, payload.Reference, 27)
	assert.Equal(t, "Max Mustermann", payload.Debtor.Name)
}
