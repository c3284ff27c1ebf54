package clientservice

import (
	"github.com/carebill/carebill/internal/clientservice/repository"
	"github.com/carebill/carebill/internal/clientservice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("clientservice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
