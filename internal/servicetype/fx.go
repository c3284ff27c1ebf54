package servicetype

import (
	"github.com/carebill/carebill/internal/servicetype/repository"
	"github.com/carebill/carebill/internal/servicetype/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicetype.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
