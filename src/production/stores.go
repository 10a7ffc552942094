package production

import (
	"context"

	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/model"
)

// Persistence shared by all production side components
type Stores struct {
	Batches  batches.Store
	Jobs     jobs.Store
	Messages messages.Log
	Content  content.Store
}

// Postgres backed stores, or in-memory ones when no database host is configured
func NewStores(ctx context.Context, config *config.Config, applicationName string) (self *Stores, err error) {
	self = new(Stores)

	if config.Database.Host == "" {
		logger.NewSublogger("stores").Warn("No database configured, state is kept in memory")
		self.Batches = batches.NewMemoryStore()
		self.Jobs = jobs.NewMemoryStore()
		self.Messages = messages.NewMemoryLog()
		self.Content = content.NewMemoryStore()
	} else {
		db, err := model.NewConnection(ctx, config, applicationName)
		if err != nil {
			return nil, err
		}
		self.Batches = batches.NewDBStore(db)
		self.Jobs = jobs.NewDBStore(db)
		self.Messages = messages.NewDBLog(db)
		self.Content = content.NewDBStore(db)
	}

	if config.Importer.GUIDCacheExpiration > 0 {
		self.Content = content.NewCachedStore(self.Content, config.Importer.GUIDCacheExpiration)
	}

	return
}
