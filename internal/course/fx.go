package course

import (
	"github.com/learnloop/learnloop/internal/course/repository"
	"github.com/learnloop/learnloop/internal/course/service"
	"go.uber.org/fx"
)

var Module = fx.Module("course.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
