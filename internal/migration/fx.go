package migration

import (
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
	auditdomain "github.com/smallbiznis/opsdesk/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	"github.com/smallbiznis/opsdesk/internal/config"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	inventorydomain "github.com/smallbiznis/opsdesk/internal/inventory/domain"
	ruledomain "github.com/smallbiznis/opsdesk/internal/rule/domain"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite and mysql are dev conveniences; let gorm derive the
			// schema from the models there.
			return conn.AutoMigrate(
				&workspacedomain.Workspace{},
				&workspacedomain.IntegrationLog{},
				&identitydomain.User{},
				&identitydomain.APIToken{},
				&contactdomain.Contact{},
				&conversationdomain.Conversation{},
				&conversationdomain.Message{},
				&bookingdomain.Offering{},
				&bookingdomain.Availability{},
				&bookingdomain.Booking{},
				&formdomain.Template{},
				&formdomain.Submission{},
				&inventorydomain.Item{},
				&inventorydomain.Usage{},
				&ruledomain.Rule{},
				&alertdomain.Alert{},
				&auditdomain.AuditLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
