//go:build wireinject
// +build wireinject

package app

import (
	"context"

	socfg "smartorder/internal/config"

	"github.com/google/wire"
)

func buildAppWithWire(ctx context.Context, cfg *socfg.Config) (*App, error) {
	wire.Build(
		provideAppBuilder,
		provideAppFromBuilder,
	)
	return nil, nil
}
