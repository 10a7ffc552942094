package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/deploy"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/preflight"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/envelope"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/transport"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	ctx     context.Context
	config  *config.Config
	monitor *monitor_stager.Monitor
	server  *httptest.Server
	client  *transport.Client
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.config.Transport.SharedSecret = "secret"
	s.config.Gateway.RequestsPerSecond = 0
	s.start()
}

func (s *ServerTestSuite) start() {
	s.monitor = monitor_stager.NewMonitor(s.config)

	batchStore := batches.NewMemoryStore()
	messageLog := messages.NewMemoryLog()
	contentStore := content.NewMemoryStore()
	registry := hooks.NewRegistry()

	verifier := preflight.NewVerifier(s.config).
		WithBatchStore(batchStore).
		WithMessageLog(messageLog).
		WithHooks(registry).
		WithMonitor(s.monitor).
		WithDefaultChecks(contentStore)

	importer := deploy.NewImporter(s.config).
		WithBatchStore(batchStore).
		WithJobStore(jobs.NewMemoryStore()).
		WithMessageLog(messageLog).
		WithContentStore(contentStore).
		WithHooks(registry).
		WithMonitor(s.monitor)

	server := NewServer(s.config).WithMonitor(s.monitor)
	NewController(verifier, deploy.NewService(importer)).Register(server)

	s.server = httptest.NewServer(server.Routes())
	s.config.Transport.PeerURL = s.server.URL
	s.client = transport.NewClient(&s.config.Transport)
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServerTestSuite) call(method string, in any) *protocol.ImportResponse {
	result := s.client.Call(s.ctx, method, in)
	require.False(s.T(), result.Failed(), "%v", result.Messages)

	out := new(protocol.ImportResponse)
	require.Nil(s.T(), result.Decode(out))
	return out
}

func (s *ServerTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, s.config.Gateway.Path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.server.Config.Handler.ServeHTTP(w, req)
	return w
}

func batch() *batches.Batch {
	return &batches.Batch{
		GUID:  "batch-guid",
		Title: "Release",
		Posts: []batches.Post{{GUID: "p1", Title: "Hello", Status: batches.StatusPublish}},
	}
}

func (s *ServerTestSuite) TestPreflightAndImport() {
	stored := s.call(protocol.MethodStore, protocol.StoreRequest{Batch: batch()})
	require.Equal(s.T(), protocol.StatusRunning, stored.Status)
	require.NotZero(s.T(), stored.BatchID)

	var resp *protocol.ImportResponse
	for i := 0; i < len(s.config.Preflight.Categories); i++ {
		resp = s.call(protocol.MethodVerify, protocol.VerifyRequest{BatchID: stored.BatchID})
	}
	require.Equal(s.T(), protocol.StatusSucceeded, resp.Status)

	// Deferred import of the verified batch
	imported := s.call(protocol.MethodImport, protocol.ImportRequest{BatchID: stored.BatchID})
	require.Equal(s.T(), protocol.StatusSucceeded, imported.Status)

	status := s.call(protocol.MethodImportStatus, protocol.ImportStatusRequest{BatchID: stored.BatchID})
	require.Equal(s.T(), protocol.StatusSucceeded, status.Status)
	require.Equal(s.T(), deploy.CodePreparingImport, status.Messages[0].Code)

	require.Equal(s.T(), uint64(3+len(s.config.Preflight.Categories)), s.monitor.GetReport().Gateway.State.RequestsHandled.Load())
}

func (s *ServerTestSuite) TestWrongSecret() {
	s.config.Transport.SharedSecret = "other"
	s.client = transport.NewClient(&s.config.Transport)

	resp := s.call(protocol.MethodStore, protocol.StoreRequest{Batch: batch()})
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.Zero(s.T(), resp.BatchID)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Gateway.Errors.AuthFailures.Load())
}

func (s *ServerTestSuite) TestUnknownMethod() {
	w := s.post(`{"method":"delete","access_token":"x","payload":"y"}`)
	require.Equal(s.T(), http.StatusNotFound, w.Code)

	var reply transport.Reply
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &reply))
	require.Equal(s.T(), "requested method delete does not exist", reply.Error)

	result := s.client.Call(s.ctx, "delete", struct{}{})
	require.True(s.T(), result.Failed())
	require.Equal(s.T(), "Content staging not installed on host "+s.server.URL, result.Messages[0].Text)
}

func (s *ServerTestSuite) TestMissingToken() {
	w := s.post(`{"method":"verify","payload":"y"}`)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var reply transport.Reply
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &reply))

	var resp protocol.Response
	require.Nil(s.T(), envelope.Decode(reply.Payload, &resp))
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.Equal(s.T(), "No access token has been provided. Request failed.", resp.Messages[0].Text)
}

func (s *ServerTestSuite) TestMalformedBody() {
	w := s.post(`not json`)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Gateway.Errors.MalformedPayload.Load())
}

func (s *ServerTestSuite) TestRequestId() {
	w := s.post(`{"method":"verify"}`)
	require.NotEmpty(s.T(), w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-Request-Id", "abc")
	w = httptest.NewRecorder()
	s.server.Config.Handler.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Equal(s.T(), "abc", w.Header().Get("X-Request-Id"))
}

func (s *ServerTestSuite) TestMonitoring() {
	s.call(protocol.MethodVerify, protocol.VerifyRequest{BatchID: 0})

	resp, err := http.Get(s.server.URL + "/v1/state")
	require.Nil(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var state map[string]any
	require.Nil(s.T(), json.NewDecoder(resp.Body).Decode(&state))
	require.Contains(s.T(), state, "gateway")

	metrics, err := http.Get(s.server.URL + "/metrics")
	require.Nil(s.T(), err)
	defer metrics.Body.Close()
	require.Equal(s.T(), http.StatusOK, metrics.StatusCode)
}

func (s *ServerTestSuite) TestRateLimit() {
	s.server.Close()
	s.config.Gateway.RequestsPerSecond = 0.001
	s.config.Gateway.RequestsBurst = 1
	s.start()

	require.Equal(s.T(), http.StatusOK, s.post(`{"method":"verify"}`).Code)
	require.Equal(s.T(), http.StatusTooManyRequests, s.post(`{"method":"verify"}`).Code)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Gateway.Errors.RateLimited.Load())
}
