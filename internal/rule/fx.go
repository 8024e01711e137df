package rule

import (
	"github.com/smallbiznis/opsdesk/internal/rule/repository"
	"github.com/smallbiznis/opsdesk/internal/rule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
