// Package service implements the subscription extension operation: one
// billing-period advance producing exactly one line item.
package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/fakturo/internal/actor"
	catalogdomain "github.com/fakturo/fakturo/internal/catalog/domain"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	"github.com/fakturo/fakturo/internal/recurrence"
	"github.com/fakturo/fakturo/internal/subscription/domain"
	"github.com/fakturo/fakturo/pkg/repository"
)

const periodDateLayout = "02.01.2006"

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository

	planstore    repository.Repository[catalogdomain.BillingPlan]
	productstore repository.Repository[catalogdomain.Product]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		repo:  p.Repo,

		planstore:    repository.ProvideStore[catalogdomain.BillingPlan](p.DB),
		productstore: repository.ProvideStore[catalogdomain.Product](p.DB),
	}
}

func (s *Service) GetByID(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, subscriptionID)
	}
	return subscription, nil
}

// Extend advances the subscription by exactly one billing period: it creates
// one subscription line item covering the new period and moves
// end_billed_date to the period's last day. Both writes happen in one
// transaction against a row-locked subscription; a failure leaves no partial
// state behind.
func (s *Service) Extend(ctx context.Context, subscriptionID snowflake.ID, a actor.Actor) (*lineitemdomain.LineItem, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	var item *lineitemdomain.LineItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, subscriptionID)
		}
		if locked.IsCancelled() {
			return fmt.Errorf("%w: %s", domain.ErrSubscriptionCancelled, subscriptionID)
		}

		plan, product, err := s.loadPlan(ctx, tx, locked.PlanID)
		if err != nil {
			return err
		}
		unit, err := recurrence.ParseUnit(plan.Recurrence)
		if err != nil {
			return err
		}

		start := recurrence.NextStartBilledDate(locked.StartDate, locked.EndBilledDate)
		end, err := recurrence.NextEndBilledDate(locked.StartDate, locked.EndBilledDate, unit)
		if err != nil {
			return err
		}
		period := fmt.Sprintf("%s - %s", start.Format(periodDateLayout), end.Format(periodDateLayout))

		item = &lineitemdomain.LineItem{
			ID:             s.genID.Generate(),
			Kind:           lineitemdomain.KindSubscription,
			CustomerID:     locked.CustomerID,
			Price:          plan.Price,
			Quantity:       decimal.NewFromInt(1),
			DiscountValue:  locked.DiscountValue,
			DiscountType:   locked.DiscountType,
			ProductID:      &product.ID,
			SubscriptionID: &locked.ID,
			CommentTitle:   period,
		}
		if err := s.repo.InsertLineItem(ctx, tx, item, a); err != nil {
			return err
		}

		locked.EndBilledDate = &end
		if err := s.repo.UpdateEndBilledDate(ctx, tx, locked, a); err != nil {
			return err
		}

		s.log.Info("subscription extended",
			zap.String("subscription_id", locked.ID.String()),
			zap.String("period", period),
			zap.String("title", item.Title(product.Name, "")),
			zap.String("actor", a.Name),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) loadPlan(ctx context.Context, tx *gorm.DB, planID snowflake.ID) (*catalogdomain.BillingPlan, *catalogdomain.Product, error) {
	plan, err := s.planstore.WithTrx(tx).FindOne(ctx, &catalogdomain.BillingPlan{ID: planID})
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, fmt.Errorf("billing plan %s not found", planID)
	}

	product, err := s.productstore.WithTrx(tx).FindOne(ctx, &catalogdomain.Product{ID: plan.ProductID})
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("product %s not found", plan.ProductID)
	}
	return plan, product, nil
}
