package client

import (
	"github.com/carebill/carebill/internal/client/repository"
	"github.com/carebill/carebill/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
