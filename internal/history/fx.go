package history

import (
	"github.com/carebill/carebill/internal/history/repository"
	"github.com/carebill/carebill/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
