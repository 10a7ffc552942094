package common

import (
	"context"

	"github.com/warp-contracts/stager/src/utils/config"
)

type contextKey int

const configKey contextKey = iota

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

func GetConfig(ctx context.Context) *config.Config {
	v, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil
	}
	return v
}
