package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address. Serves the RPC endpoint and monitoring.
	RESTListenAddress string

	// Path of the RPC endpoint
	Path string

	// Time limit for handling one request
	ServerRequestTimeout time.Duration

	// Max number of RPC requests per second, 0 disables limiting
	RequestsPerSecond float64

	// Burst size for the limiter
	RequestsBurst int
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.RESTListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.Path", "/rpc")
	viper.SetDefault("Gateway.ServerRequestTimeout", "120s")
	viper.SetDefault("Gateway.RequestsPerSecond", "50")
	viper.SetDefault("Gateway.RequestsBurst", "20")
}
