package config

import (
	"github.com/spf13/viper"
)

type Preflight struct {
	// Order in which content categories are verified, one per round trip
	Categories []string
}

func setPreflightDefaults() {
	viper.SetDefault("Preflight.Categories", []string{"attachments", "users", "posts", "custom_data"})
}
