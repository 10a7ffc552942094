package config

import (
	"time"

	"github.com/spf13/viper"
)

type Transport struct {
	// Base URL of the peer environment (production, as seen from staging)
	PeerURL string

	// Path of the RPC endpoint on the peer
	Path string

	// Secret shared by both environments, used to sign every payload
	SharedSecret string

	// Upper bound for a single remote call
	RequestTimeout time.Duration

	// Skip TLS certificate verification of the peer
	DisableSSLVerification bool

	// Connection settings
	DialerTimeout       time.Duration
	DialerKeepAlive     time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
}

func setTransportDefaults() {
	viper.SetDefault("Transport.PeerURL", "http://127.0.0.1:4000")
	viper.SetDefault("Transport.Path", "/rpc")
	viper.SetDefault("Transport.SharedSecret", "")
	viper.SetDefault("Transport.RequestTimeout", "60s")
	viper.SetDefault("Transport.DisableSSLVerification", "false")
	viper.SetDefault("Transport.DialerTimeout", "30s")
	viper.SetDefault("Transport.DialerKeepAlive", "15s")
	viper.SetDefault("Transport.TLSHandshakeTimeout", "10s")
	viper.SetDefault("Transport.IdleConnTimeout", "31s")
}
