package payment

import (
	"github.com/learnloop/learnloop/internal/payment/gateway/razorpay"
	"github.com/learnloop/learnloop/internal/payment/repository"
	"github.com/learnloop/learnloop/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(razorpay.New),
	fx.Provide(service.New),
)
