package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp-contracts/stager/src/utils/monitoring/report"
)

// Counters shared by all components of the process
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	RecordImportDuration(d time.Duration)
	OnGetState(c *gin.Context)
	OnGetHealth(c *gin.Context)
}
