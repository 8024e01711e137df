package eventbus

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Recorder Recorder `optional:"true"`
}

func NewFromParams(p Params) *Bus {
	opts := []Option{}
	if p.Recorder != nil {
		opts = append(opts, WithRecorder(p.Recorder))
	}
	return New(p.Log, opts...)
}

func registerHooks(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			bus.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Stop(ctx)
		},
	})
}

// Module wires the process-wide event bus.
var Module = fx.Module("eventbus",
	fx.Provide(NewFromParams),
	fx.Invoke(registerHooks),
)
