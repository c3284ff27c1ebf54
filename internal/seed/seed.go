package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/config"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
)

// EnsureDefaultServiceTypes inserts the configured default service
// types unless a type with the same name already exists. Existing rows
// are never touched, operators may have adjusted rates.
func EnsureDefaultServiceTypes(conn *gorm.DB, node *snowflake.Node, holder *config.RatesConfigHolder) error {
	defaults := config.DefaultRatesConfig()
	if holder != nil {
		defaults = holder.Get()
	}

	now := time.Now().UTC()
	for _, def := range defaults.Defaults {
		var count int64
		if err := conn.Model(&servicetypedomain.ServiceType{}).
			Where("lower(name) = lower(?)", def.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		description := ""
		if def.Description != nil {
			description = *def.Description
		}

		serviceType := servicetypedomain.ServiceType{
			ID:               node.Generate(),
			Code:             slug.Make(def.Name),
			Name:             def.Name,
			Description:      description,
			IsMedical:        def.Medical,
			DefaultRateCents: def.RateCents,
			BillingMethod:    def.BillingMethod,
			UnitType:         def.UnitType,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := conn.Create(&serviceType).Error; err != nil {
			return err
		}
	}
	return nil
}
