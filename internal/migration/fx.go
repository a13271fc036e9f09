package migration

import (
	"github.com/learnloop/learnloop/internal/config"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	paymentdomain "github.com/learnloop/learnloop/internal/payment/domain"
	promotiondomain "github.com/learnloop/learnloop/internal/promotion/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned SQL migrations target postgres. Other backends
			// (sqlite for local runs) rely on the gorm schema.
			return conn.AutoMigrate(
				&coursedomain.Course{},
				&coursedomain.Purchase{},
				&promotiondomain.Sale{},
				&promotiondomain.Coupon{},
				&paymentdomain.PendingOrder{},
				&paymentdomain.Payment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
