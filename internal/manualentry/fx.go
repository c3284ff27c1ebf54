package manualentry

import (
	"github.com/carebill/carebill/internal/manualentry/repository"
	"github.com/carebill/carebill/internal/manualentry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("manualentry.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
