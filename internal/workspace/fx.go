package workspace

import (
	"github.com/smallbiznis/opsdesk/internal/workspace/repository"
	"github.com/smallbiznis/opsdesk/internal/workspace/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workspace.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
