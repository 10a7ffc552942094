package monitor_stager

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/utils/config"
)

func TestMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}

type MonitorTestSuite struct {
	suite.Suite
	monitor *Monitor
}

func (s *MonitorTestSuite) SetupTest() {
	s.monitor = NewMonitor(config.Default()).WithMaxHistorySize(2)
}

func (s *MonitorTestSuite) TestImportDurationAverage() {
	s.monitor.RecordImportDuration(2 * time.Second)
	s.monitor.RecordImportDuration(4 * time.Second)
	require.Equal(s.T(), 3.0, s.monitor.Report.Importer.State.AverageImportSeconds.Load())

	// History is bounded
	s.monitor.RecordImportDuration(8 * time.Second)
	require.Equal(s.T(), 6.0, s.monitor.Report.Importer.State.AverageImportSeconds.Load())
	require.Equal(s.T(), 8.0, s.monitor.Report.Importer.State.LastImportSeconds.Load())
}

func (s *MonitorTestSuite) TestCollector() {
	s.monitor.Report.Gateway.Errors.AuthFailures.Inc()

	registry := prometheus.NewRegistry()
	require.Nil(s.T(), registry.Register(s.monitor.GetPrometheusCollector()))

	families, err := registry.Gather()
	require.Nil(s.T(), err)

	found := false
	for _, f := range families {
		if f.GetName() == "error_gateway_auth" {
			found = true
			require.Equal(s.T(), 1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(s.T(), found)
}

func (s *MonitorTestSuite) TestOnGetState() {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/state", s.monitor.OnGetState)

	s.monitor.Report.Preflight.State.RunsSucceeded.Inc()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	router.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var body map[string]map[string]map[string]any
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(s.T(), 1.0, body["preflight"]["state"]["runs_succeeded"])
}
