package promotion

import (
	"github.com/learnloop/learnloop/internal/promotion/repository"
	"github.com/learnloop/learnloop/internal/promotion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promotion.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
