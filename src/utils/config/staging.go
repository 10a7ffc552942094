package config

import (
	"time"

	"github.com/spf13/viper"
)

type Staging struct {
	// Max number of verify/status calls per second
	PollsPerSecond int

	// Give up polling import status after this time, 0 is no limit
	PollMaxElapsedTime time.Duration

	// Max interval between retried status calls
	PollMaxInterval time.Duration

	// Max number of verify round trips in one pre-flight
	MaxVerifyRounds int
}

func setStagingDefaults() {
	viper.SetDefault("Staging.PollsPerSecond", "2")
	viper.SetDefault("Staging.PollMaxElapsedTime", "30m")
	viper.SetDefault("Staging.PollMaxInterval", "10s")
	viper.SetDefault("Staging.MaxVerifyRounds", "100")
}
