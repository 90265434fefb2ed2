package migration

import (
	"strings"

	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	"github.com/smallbiznis/pricebook/internal/config"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Versioned SQL migrations target postgres; other dialects
		// (sqlite for local work, mysql) take the schema from the models.
		return conn.AutoMigrate(
			&pricelistdomain.PriceList{},
			&itemdomain.PriceListItem{},
			&assignmentdomain.CustomerPriceAssignment{},
			&overridedomain.PriceOverride{},
			&syncdomain.PriceListSyncJob{},
		)
	}),
)
