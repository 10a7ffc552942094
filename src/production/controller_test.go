package production

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/common"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/transport"
)

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

type ControllerTestSuite struct {
	suite.Suite
	ctx        context.Context
	config     *config.Config
	controller *Controller
	server     *httptest.Server
}

func (s *ControllerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Transport.SharedSecret = "secret"
	s.ctx = common.SetConfig(context.Background(), s.config)
}

func (s *ControllerTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
}

func (s *ControllerTestSuite) start() {
	var err error
	s.controller, err = NewController(s.config)
	require.Nil(s.T(), err)

	s.server = httptest.NewServer(s.controller.Server.Routes())
}

// Commits a batch and creates its job the way the background runner leaves it before spawning
func (s *ControllerTestSuite) runningJob(b *batches.Batch) *jobs.Job {
	_, err := batches.Upsert(s.ctx, s.controller.Stores.Batches, b)
	require.Nil(s.T(), err)

	job, err := s.controller.Stores.Jobs.Create(s.ctx, b)
	require.Nil(s.T(), err)

	err = s.controller.Stores.Jobs.UpdateStatus(s.ctx, job.ID, protocol.StatusRunning)
	require.Nil(s.T(), err)
	return job
}

func testBatch(guid string) *batches.Batch {
	return &batches.Batch{
		GUID:  guid,
		Title: "Release",
		Posts: []batches.Post{{GUID: guid + "-post", Title: "Home", Status: batches.StatusPublish}},
	}
}

func (s *ControllerTestSuite) TestInMemory() {
	controller, err := NewController(s.config)
	require.Nil(s.T(), err)
	require.NotNil(s.T(), controller.Server)
	require.NotNil(s.T(), controller.Hooks)
	require.NotNil(s.T(), controller.Stores)
}

func (s *ControllerTestSuite) TestBackgroundInMemory() {
	s.config.Importer.Mode = config.ImportModeBackground
	s.config.Importer.Executable = "/usr/local/bin/stager"
	controller, err := NewController(s.config)
	require.Nil(s.T(), err)
	require.NotNil(s.T(), controller.Server)
}

func (s *ControllerTestSuite) TestStores() {
	stores, err := NewStores(context.Background(), s.config, "test")
	require.Nil(s.T(), err)
	require.IsType(s.T(), &content.CachedStore{}, stores.Content)

	s.config.Importer.GUIDCacheExpiration = 0
	stores, err = NewStores(context.Background(), s.config, "test")
	require.Nil(s.T(), err)
	require.IsType(s.T(), &content.MemoryStore{}, stores.Content)
}

func (s *ControllerTestSuite) TestWorkerNeedsConfig() {
	_, err := RunImportJob(context.Background(), "http://127.0.0.1:1", 1, "key")
	require.ErrorIs(s.T(), err, ErrMissingConfig)
}

func (s *ControllerTestSuite) TestWorkerImportsJob() {
	s.start()
	job := s.runningJob(testBatch("worker"))

	status, err := RunImportJob(s.ctx, s.server.URL, job.ID, job.AccessKey)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, status)

	current, err := s.controller.Stores.Jobs.Get(s.ctx, job.ID)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, current.Status)
	require.True(s.T(), current.Deleted)

	_, err = s.controller.Stores.Content.FindByGUID(s.ctx, "worker-post")
	require.Nil(s.T(), err)

	msgs, err := s.controller.Stores.Messages.List(s.ctx, job.BatchID, messages.GroupDeploy)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "Batch has been successfully imported!", msgs[len(msgs)-1].Text)
}

func (s *ControllerTestSuite) TestWorkerWrongKey() {
	s.start()
	job := s.runningJob(testBatch("wrong-key"))

	_, err := RunImportJob(s.ctx, s.server.URL, job.ID, "not-the-key")
	require.ErrorIs(s.T(), err, ErrImportRejected)
	require.Contains(s.T(), err.Error(), "Access denied")

	current, err := s.controller.Stores.Jobs.Get(s.ctx, job.ID)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusRunning, current.Status)
	require.False(s.T(), current.Deleted)

	_, err = s.controller.Stores.Content.FindByGUID(s.ctx, "wrong-key-post")
	require.ErrorIs(s.T(), err, content.ErrNotFound)
}

func (s *ControllerTestSuite) TestWorkerJobNotRunning() {
	s.start()
	b := testBatch("pending")
	_, err := batches.Upsert(s.ctx, s.controller.Stores.Batches, b)
	require.Nil(s.T(), err)
	job, err := s.controller.Stores.Jobs.Create(s.ctx, b)
	require.Nil(s.T(), err)

	status, err := RunImportJob(s.ctx, s.server.URL, job.ID, job.AccessKey)
	require.ErrorIs(s.T(), err, ErrImportRejected)
	require.Equal(s.T(), protocol.StatusFailed, status)

	current, err := s.controller.Stores.Jobs.Get(s.ctx, job.ID)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusNotStarted, current.Status)
}

func (s *ControllerTestSuite) TestWorkerFinishedJob() {
	s.start()
	job := s.runningJob(testBatch("twice"))

	_, err := RunImportJob(s.ctx, s.server.URL, job.ID, job.AccessKey)
	require.Nil(s.T(), err)

	// Soft deleted jobs are never imported again
	_, err = RunImportJob(s.ctx, s.server.URL, job.ID, job.AccessKey)
	require.ErrorIs(s.T(), err, ErrImportRejected)
}

func (s *ControllerTestSuite) TestWorkerUnknownJob() {
	s.start()
	_, err := RunImportJob(s.ctx, s.server.URL, 404, "key")
	require.ErrorIs(s.T(), err, ErrImportRejected)
	require.Contains(s.T(), err.Error(), "No import job with ID 404 found.")
}

func (s *ControllerTestSuite) TestWorkerWrongSecret() {
	s.start()
	job := s.runningJob(testBatch("secret"))

	other := *s.config
	other.Transport.SharedSecret = "other"
	_, err := RunImportJob(common.SetConfig(context.Background(), &other), s.server.URL, job.ID, job.AccessKey)
	require.ErrorIs(s.T(), err, ErrImportRejected)
	require.Contains(s.T(), err.Error(), "Authentication failed")
}

func (s *ControllerTestSuite) TestWorkerUnreachable() {
	_, err := RunImportJob(s.ctx, "http://127.0.0.1:1", 1, "key")
	require.ErrorIs(s.T(), err, ErrImportRejected)
}

// Add-ons registered on the server run for inline imports and for background jobs alike
func (s *ControllerTestSuite) TestAddonsRunInBothModes() {
	s.start()

	var received []string
	s.controller.Hooks.Register(hooks.Import("seo"), hooks.Funcs{
		BeforeFunc: func(ctx context.Context, hc *hooks.Context) error {
			received = append(received, hc.Batch.GUID)
			hc.Add(messages.Info("SEO data imported"))
			return nil
		},
	})

	withSEO := func(guid string) *batches.Batch {
		b := testBatch(guid)
		b.CustomData = map[string]json.RawMessage{"seo": json.RawMessage(`{"title":"Home"}`)}
		return b
	}

	transportConfig := s.config.Transport
	transportConfig.PeerURL = s.server.URL
	result := transport.NewClient(&transportConfig).
		Call(s.ctx, protocol.MethodImport, &protocol.ImportRequest{Batch: withSEO("inline")})
	require.False(s.T(), result.Failed())
	inline := new(protocol.ImportResponse)
	require.Nil(s.T(), result.Decode(inline))
	require.Equal(s.T(), protocol.StatusSucceeded, inline.Status)

	job := s.runningJob(withSEO("background"))
	status, err := RunImportJob(s.ctx, s.server.URL, job.ID, job.AccessKey)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusSucceeded, status)

	require.Equal(s.T(), []string{"inline", "background"}, received)

	msgs, err := s.controller.Stores.Messages.List(s.ctx, job.BatchID, messages.GroupDeploy)
	require.Nil(s.T(), err)
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	require.Contains(s.T(), texts, "SEO data imported")
}
