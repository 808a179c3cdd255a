package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/fakturo/fakturo/internal/catalog/domain"
	invoicedomain "github.com/fakturo/fakturo/internal/invoice/domain"
	lineitemdomain "github.com/fakturo/fakturo/internal/lineitem/domain"
	subscriptiondomain "github.com/fakturo/fakturo/internal/subscription/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if conn.Dialector.Name() != "postgres" {
			// Versioned migrations target postgres. Other dialects are for
			// local runs and get the schema synthesized from the models.
			log.Named("migration").Info("non-postgres dialect, using auto migration",
				zap.String("dialect", conn.Dialector.Name()))
			return conn.AutoMigrate(
				&catalogdomain.Product{},
				&catalogdomain.BillingPlan{},
				&catalogdomain.WorkType{},
				&subscriptiondomain.Subscription{},
				&lineitemdomain.LineItem{},
				&invoicedomain.Invoice{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
