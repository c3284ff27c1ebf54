package migration

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	clientdomain "github.com/carebill/carebill/internal/client/domain"
	clientservicedomain "github.com/carebill/carebill/internal/clientservice/domain"
	"github.com/carebill/carebill/internal/config"
	historydomain "github.com/carebill/carebill/internal/history/domain"
	manualentrydomain "github.com/carebill/carebill/internal/manualentry/domain"
	"github.com/carebill/carebill/internal/seed"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, rates *config.RatesConfigHolder) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql development databases migrate from the
			// gorm models directly.
			if err := conn.AutoMigrate(
				&clientdomain.Client{},
				&servicetypedomain.ServiceType{},
				&clientservicedomain.ClientServiceConfig{},
				&clientservicedomain.PeriodOverride{},
				&manualentrydomain.ManualEntry{},
				&historydomain.HistoryEntry{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultServiceTypes(conn, node, rates)
	}),
)
