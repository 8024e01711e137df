package identity

import (
	"github.com/smallbiznis/opsdesk/internal/identity/repository"
	"github.com/smallbiznis/opsdesk/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewVerifier),
)
