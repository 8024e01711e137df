package form

import (
	"github.com/smallbiznis/opsdesk/internal/form/repository"
	"github.com/smallbiznis/opsdesk/internal/form/service"
	"go.uber.org/fx"
)

var Module = fx.Module("form.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
