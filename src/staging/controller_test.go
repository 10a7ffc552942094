package staging

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/deploy"
	"github.com/warp-contracts/stager/src/gateway"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/preflight"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/transport"
)

// Answers every call with the same result
type staticCaller struct {
	result *transport.Result
}

func (self *staticCaller) Call(ctx context.Context, method string, in any) *transport.Result {
	return self.result
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

type ControllerTestSuite struct {
	suite.Suite
	ctx        context.Context
	config     *config.Config
	monitor    *monitor_stager.Monitor
	server     *httptest.Server
	controller *Controller
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.config.Transport.SharedSecret = "secret"
	s.config.Gateway.RequestsPerSecond = 0
	s.config.Staging.PollsPerSecond = 1000
	s.config.Staging.PollMaxElapsedTime = 300 * time.Millisecond
	s.config.Staging.PollMaxInterval = 50 * time.Millisecond
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

	server := gateway.NewServer(s.config).WithMonitor(s.monitor)
	gateway.NewController(verifier, deploy.NewService(importer)).Register(server)
	s.server = httptest.NewServer(server.Routes())

	s.config.Transport.PeerURL = s.server.URL
	s.controller = NewController(s.config).
		WithClient(transport.NewClient(&s.config.Transport)).
		WithMonitor(s.monitor)
}

func (s *ControllerTestSuite) TearDownTest() {
	s.server.Close()
}

func batch() *batches.Batch {
	return &batches.Batch{
		GUID:        "batch-guid",
		Title:       "Release",
		Posts:       []batches.Post{{GUID: "p1", Title: "Hello", Status: batches.StatusPublish}},
		Attachments: []batches.Attachment{{GUID: "a1", Title: "Logo", URL: "https://staging.example.com/logo.png"}},
	}
}

func (s *ControllerTestSuite) TestPreflight() {
	out, err := s.controller.Preflight(s.ctx, batch())
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, out.Status)
	require.NotZero(s.T(), out.BatchID)
	require.Equal(s.T(), "Pre-flight successful!", out.Messages[len(out.Messages)-1].Text)
}

func (s *ControllerTestSuite) TestPreflightFailed() {
	b := batch()
	b.Attachments[0].URL = "logo.png"

	out, err := s.controller.Preflight(s.ctx, b)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, out.Status)
	require.True(s.T(), messages.HasErrors(out.Messages))
}

func (s *ControllerTestSuite) TestPreflightThenDeferredDeploy() {
	verified, err := s.controller.Preflight(s.ctx, batch())
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, verified.Status)

	out, err := s.controller.Deploy(s.ctx, &protocol.ImportRequest{BatchID: verified.BatchID})
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, out.Status)
	require.Equal(s.T(), verified.BatchID, out.BatchID)
}

func (s *ControllerTestSuite) TestDeployAndWait() {
	out, err := s.controller.Deploy(s.ctx, &protocol.ImportRequest{Batch: batch()})
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, out.Status)

	status, err := s.controller.WaitForImport(s.ctx, out.BatchID)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, status.Status)
	require.Equal(s.T(), deploy.CodePreparingImport, status.Messages[0].Code)
}

func (s *ControllerTestSuite) TestWaitGivesUp() {
	autoImport := false
	out, err := s.controller.Deploy(s.ctx, &protocol.ImportRequest{Batch: batch(), AutoImport: &autoImport})
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusNotStarted, out.Status)

	status, err := s.controller.WaitForImport(s.ctx, out.BatchID)
	require.ErrorIs(s.T(), err, errNotFinished)
	require.Equal(s.T(), protocol.StatusNotStarted, status.Status)
	require.Greater(s.T(), s.monitor.GetReport().Staging.State.StatusPolls.Load(), uint64(1))
}

func (s *ControllerTestSuite) TestContractViolation() {
	s.controller.WithClient(&staticCaller{result: &transport.Result{
		Data: json.RawMessage(`{"status":1,"messages":[],"progress":50}`),
	}})

	_, err := s.controller.ImportStatus(s.ctx, 1)
	require.ErrorIs(s.T(), err, ErrContractViolation)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Staging.Errors.ContractViolation.Load())

	// Polling stops at once
	_, err = s.controller.WaitForImport(s.ctx, 1)
	require.ErrorIs(s.T(), err, ErrContractViolation)
}

func (s *ControllerTestSuite) TestTransportFailure() {
	s.server.Close()

	out, err := s.controller.Preflight(s.ctx, batch())
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, out.Status)
	require.Equal(s.T(), "Could not connect to host "+s.server.URL, out.Messages[0].Text)
}
