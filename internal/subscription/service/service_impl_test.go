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
	catalogdomain "github.com/fakturo/fakturo/internal/catalog/domain"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/recurrence"
	"github.com/fakturo/fakturo/internal/subscription/domain"
	"github.com/fakturo/fakturo/internal/subscription/repository"
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
		&catalogdomain.Product{},
		&catalogdomain.BillingPlan{},
		&domain.Subscription{},
		&lineitemdomain.LineItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.New(),
	})

	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) seedSubscription(t *testing.T, recurrenceUnit string, startDate time.Time, endBilled *time.Time) *domain.Subscription {
	t.Helper()

	product := catalogdomain.Product{ID: f.node.Generate(), Name: "Hosting XL", Description: "Webhosting"}
	require.NoError(t, f.db.Create(&product).Error)

	plan := catalogdomain.BillingPlan{
		ID:                f.node.Generate(),
		ProductID:         product.ID,
		Price:             decimal.RequireFromString("240.00"),
		Recurrence:        recurrenceUnit,
		BillDaysBeforeEnd: 20,
	}
	require.NoError(t, f.db.Create(&plan).Error)

	subscription := domain.Subscription{
		ID:            f.node.Generate(),
		PlanID:        plan.ID,
		CustomerID:    f.node.Generate(),
		StartDate:     startDate,
		EndBilledDate: endBilled,
		DiscountValue: decimal.Zero,
		DiscountType:  lineitemdomain.DiscountPercent,
	}
	require.NoError(t, f.db.Create(&subscription).Error)
	return &subscription
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtendFirstPeriodMonthly(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2000, time.January, 1), nil)

	item, err := f.svc.Extend(context.Background(), sub.ID, actor.System())
	require.NoError(t, err)

	assert.Equal(t, lineitemdomain.KindSubscription, item.Kind)
	assert.Equal(t, "01.01.2000 - 31.01.2000", item.CommentTitle)
	assert.Equal(t, "240.00", item.Price.StringFixed(2))
	assert.Equal(t, "1", item.Quantity.String())
	require.NotNil(t, item.SubscriptionID)
	assert.Equal(t, sub.ID, *item.SubscriptionID)

	var reloaded domain.Subscription
	require.NoError(t, f.db.First(&reloaded, "id = ?", sub.ID).Error)
	require.NotNil(t, reloaded.EndBilledDate)
	assert.Equal(t, date(2000, time.January, 31), reloaded.EndBilledDate.UTC())

	var count int64
	require.NoError(t, f.db.Model(&lineitemdomain.LineItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestExtendTwiceAdvancesTwoPeriods(t *testing.T) {
	f := newFixture(t)
	end := date(2023, time.September, 30)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2023, time.January, 1), &end)

	_, err := f.svc.Extend(context.Background(), sub.ID, actor.System())
	require.NoError(t, err)
	var afterFirst domain.Subscription
	require.NoError(t, f.db.First(&afterFirst, "id = ?", sub.ID).Error)
	assert.Equal(t, date(2023, time.October, 31), afterFirst.EndBilledDate.UTC())

	_, err = f.svc.Extend(context.Background(), sub.ID, actor.System())
	require.NoError(t, err)
	var afterSecond domain.Subscription
	require.NoError(t, f.db.First(&afterSecond, "id = ?", sub.ID).Error)
	assert.Equal(t, date(2023, time.November, 30), afterSecond.EndBilledDate.UTC())

	var count int64
	require.NoError(t, f.db.Model(&lineitemdomain.LineItem{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestExtendYearlyCopiesDiscount(t *testing.T) {
	f := newFixture(t)
	end := date(2023, time.September, 30)
	sub := f.seedSubscription(t, string(recurrence.Yearly), date(2022, time.October, 1), &end)
	require.NoError(t, f.db.Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{"discount_value": "10", "discount_type": string(lineitemdomain.DiscountAbsolute)}).Error)

	item, err := f.svc.Extend(context.Background(), sub.ID, actor.User("alice"))
	require.NoError(t, err)

	assert.Equal(t, "01.10.2023 - 30.09.2024", item.CommentTitle)
	assert.Equal(t, lineitemdomain.DiscountAbsolute, item.DiscountType)
	assert.Equal(t, "10.00", item.DiscountValue.StringFixed(2))
	assert.Equal(t, "230.00", item.Total().StringFixed(2))
}

func TestExtendCancelledSubscription(t *testing.T) {
	f := newFixture(t)
	end := date(2023, time.September, 30)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2023, time.January, 1), &end)
	cancelled := date(2023, time.October, 15)
	require.NoError(t, f.db.Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Update("cancelled_date", cancelled).Error)

	_, err := f.svc.Extend(context.Background(), sub.ID, actor.System())
	assert.ErrorIs(t, err, domain.ErrSubscriptionCancelled)

	var reloaded domain.Subscription
	require.NoError(t, f.db.First(&reloaded, "id = ?", sub.ID).Error)
	assert.Equal(t, end, reloaded.EndBilledDate.UTC())

	var count int64
	require.NoError(t, f.db.Model(&lineitemdomain.LineItem{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestExtendMissingActor(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2023, time.January, 1), nil)

	_, err := f.svc.Extend(context.Background(), sub.ID, actor.Actor{})
	assert.ErrorIs(t, err, actor.ErrMissingActor)
}

func TestExtendUnknownSubscription(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Extend(context.Background(), f.node.Generate(), actor.System())
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestExtendUnknownRecurrenceUnit(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, "weekly", date(2023, time.January, 1), nil)

	_, err := f.svc.Extend(context.Background(), sub.ID, actor.System())
	assert.ErrorIs(t, err, recurrence.ErrUnknownRecurrence)

	var count int64
	require.NoError(t, f.db.Model(&lineitemdomain.LineItem{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestExtendRollsBackOnInvalidLineItem(t *testing.T) {
	f := newFixture(t)
	end := date(2023, time.September, 30)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2023, time.January, 1), &end)
	// an unknown discount type fails line-item validation after the lock
	require.NoError(t, f.db.Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Update("discount_type", "voucher").Error)

	_, err := f.svc.Extend(context.Background(), sub.ID, actor.System())
	assert.ErrorIs(t, err, lineitemdomain.ErrInvalidKindFields)

	var reloaded domain.Subscription
	require.NoError(t, f.db.First(&reloaded, "id = ?", sub.ID).Error)
	assert.Equal(t, end, reloaded.EndBilledDate.UTC())

	var count int64
	require.NoError(t, f.db.Model(&lineitemdomain.LineItem{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, string(recurrence.Monthly), date(2023, time.January, 1), nil)

	got, err := f.svc.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = f.svc.GetByID(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}
