package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	ImportModeInline     = "inline"
	ImportModeBackground = "background"
)

type Importer struct {
	// Where auto imports run: "inline" (inside the request) or "background" (separate process)
	Mode string

	// Executable started for background imports. Empty means the current binary.
	Executable string

	// Config file passed to the background process
	ConfigFile string

	// Gateway URL the background process calls back to run its job
	CallbackURL string

	// Post meta keys whose values reference other items by GUID
	RelationMetaKeys []string

	// Workers waiting for finished background processes
	ReaperPoolSize int

	// Max number of import durations kept for the moving average
	HistorySize int

	// How long content looked up by GUID stays cached, 0 disables the cache
	GUIDCacheExpiration time.Duration
}

func setImporterDefaults() {
	viper.SetDefault("Importer.Mode", ImportModeInline)
	viper.SetDefault("Importer.Executable", "")
	viper.SetDefault("Importer.ConfigFile", "")
	viper.SetDefault("Importer.CallbackURL", "http://127.0.0.1:4000")
	viper.SetDefault("Importer.RelationMetaKeys", []string{"_thumbnail_id"})
	viper.SetDefault("Importer.ReaperPoolSize", "4")
	viper.SetDefault("Importer.HistorySize", "30")
	viper.SetDefault("Importer.GUIDCacheExpiration", "5m")
}

func (self *Importer) IsBackground() bool {
	return self.Mode == ImportModeBackground
}
