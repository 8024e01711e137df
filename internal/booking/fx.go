package booking

import (
	"github.com/smallbiznis/opsdesk/internal/booking/repository"
	"github.com/smallbiznis/opsdesk/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
