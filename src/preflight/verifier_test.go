package preflight

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
)

func TestVerifierTestSuite(t *testing.T) {
	suite.Run(t, new(VerifierTestSuite))
}

type VerifierTestSuite struct {
	suite.Suite
	ctx      context.Context
	batches  *batches.MemoryStore
	log      *messages.MemoryLog
	content  *content.MemoryStore
	hooks    *hooks.Registry
	verifier *Verifier
}

func (s *VerifierTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.batches = batches.NewMemoryStore()
	s.log = messages.NewMemoryLog()
	s.content = content.NewMemoryStore()
	s.hooks = hooks.NewRegistry()

	cfg := config.Default()
	s.verifier = NewVerifier(cfg).
		WithBatchStore(s.batches).
		WithMessageLog(s.log).
		WithHooks(s.hooks).
		WithMonitor(monitor_stager.NewMonitor(cfg)).
		WithDefaultChecks(s.content)
}

func validBatch() *batches.Batch {
	return &batches.Batch{
		GUID:  "batch-guid",
		Title: "Release",
		Posts: []batches.Post{
			{GUID: "p1", Title: "Parent", Status: batches.StatusPublish},
			{GUID: "p2", ParentGUID: "p1", Title: "Child", Status: batches.StatusPublish},
		},
		Attachments: []batches.Attachment{{GUID: "a1", Title: "Logo", URL: "https://staging.example.com/logo.png"}},
		Accounts:    []batches.Account{{GUID: "u1", Login: "editor", Email: "editor@example.com"}},
	}
}

func (s *VerifierTestSuite) store(b *batches.Batch) int64 {
	resp, err := s.verifier.Store(s.ctx, b)
	require.Nil(s.T(), err)
	require.NotZero(s.T(), resp.BatchID)
	return resp.BatchID
}

func (s *VerifierTestSuite) TestResumableVerification() {
	b := validBatch()
	id := s.store(b)

	expected := []struct {
		status protocol.Status
		cursor string
	}{
		{protocol.StatusRunning, batches.CategoryAttachments},
		{protocol.StatusRunning, batches.CategoryUsers},
		{protocol.StatusRunning, batches.CategoryPosts},
		{protocol.StatusSucceeded, ""},
	}

	for _, e := range expected {
		resp, err := s.verifier.Verify(s.ctx, id)
		require.Nil(s.T(), err)
		require.Equal(s.T(), e.status, resp.Status)

		cursor, err := s.batches.GetCursor(s.ctx, id)
		require.Nil(s.T(), err)
		require.Equal(s.T(), e.cursor, cursor)
	}

	digest, err := s.batches.GetDigest(s.ctx, id)
	require.Nil(s.T(), err)
	expectedDigest, err := b.Digest()
	require.Nil(s.T(), err)
	require.Equal(s.T(), expectedDigest, digest)

	// Next run starts over
	resp, err := s.verifier.Verify(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusRunning, resp.Status)
	cursor, err := s.batches.GetCursor(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), batches.CategoryAttachments, cursor)
}

func (s *VerifierTestSuite) TestFailFast() {
	b := validBatch()
	b.Attachments[0].URL = "/relative/logo.png"
	id := s.store(b)

	resp, err := s.verifier.Verify(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.True(s.T(), messages.HasErrors(resp.Messages))
	require.Equal(s.T(), "a1", resp.Messages[0].Item)

	cursor, err := s.batches.GetCursor(s.ctx, id)
	require.Nil(s.T(), err)
	require.Empty(s.T(), cursor)

	digest, err := s.batches.GetDigest(s.ctx, id)
	require.Nil(s.T(), err)
	require.Empty(s.T(), digest)
}

func (s *VerifierTestSuite) TestErrorInLastCategoryFails() {
	b := validBatch()
	b.CustomData = map[string]json.RawMessage{"menus": json.RawMessage(`{}`)}
	s.hooks.Register(hooks.Verify("menus"), hooks.Funcs{BeforeFunc: func(ctx context.Context, hc *hooks.Context) error {
		hc.Add(messages.Error("Menu location missing"))
		return nil
	}})
	id := s.store(b)

	var resp *protocol.Response
	var err error
	for i := 0; i < 4; i++ {
		resp, err = s.verifier.Verify(s.ctx, id)
		require.Nil(s.T(), err)
	}
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.Equal(s.T(), "Menu location missing", resp.Messages[len(resp.Messages)-1].Text)

	cursor, err := s.batches.GetCursor(s.ctx, id)
	require.Nil(s.T(), err)
	require.Empty(s.T(), cursor)
}

func (s *VerifierTestSuite) TestCursorPersistedBeforeWork() {
	id := s.store(validBatch())

	var seen string
	s.verifier.WithCheck(batches.CategoryAttachments, CheckFunc(func(ctx context.Context, batch *batches.Batch) ([]messages.Message, error) {
		var err error
		seen, err = s.batches.GetCursor(ctx, batch.ID)
		return nil, err
	}))

	_, err := s.verifier.Verify(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), batches.CategoryAttachments, seen)
}

func (s *VerifierTestSuite) TestAddonWithoutHandler() {
	b := validBatch()
	b.CustomData = map[string]json.RawMessage{"widgets": json.RawMessage(`[1]`)}
	id := s.store(b)

	var resp *protocol.Response
	var err error
	for i := 0; i < 4; i++ {
		resp, err = s.verifier.Verify(s.ctx, id)
		require.Nil(s.T(), err)
	}
	require.Equal(s.T(), protocol.StatusSucceeded, resp.Status)
	require.Len(s.T(), messages.Filter(resp.Messages, messages.LevelWarning), 1)
}

func (s *VerifierTestSuite) TestAfterVerifyHook() {
	var categories []string
	for _, c := range []string{batches.CategoryAttachments, batches.CategoryUsers} {
		s.hooks.Register(hooks.AfterVerify(c), hooks.Funcs{AfterFunc: func(ctx context.Context, hc *hooks.Context, result any) error {
			categories = append(categories, hc.Category)
			return nil
		}})
	}

	id := s.store(validBatch())
	for i := 0; i < 2; i++ {
		_, err := s.verifier.Verify(s.ctx, id)
		require.Nil(s.T(), err)
	}
	require.Equal(s.T(), []string{batches.CategoryAttachments, batches.CategoryUsers}, categories)
}

func (s *VerifierTestSuite) TestParentResolution() {
	b := validBatch()
	b.Posts = append(b.Posts, batches.Post{GUID: "p3", ParentGUID: "on-production", Title: "Orphan?"})
	b.Posts = append(b.Posts, batches.Post{GUID: "p4", ParentGUID: "nowhere", Title: "Orphan"})
	require.Nil(s.T(), s.content.Upsert(s.ctx, &content.Record{GUID: "on-production", Kind: content.KindPost, Status: content.StatusPublish}))

	msgs, err := CheckPosts(s.content).Check(s.ctx, b)
	require.Nil(s.T(), err)
	require.Len(s.T(), msgs, 1)
	require.Equal(s.T(), "p4", msgs[0].Item)
	require.True(s.T(), msgs[0].IsError())
}

func (s *VerifierTestSuite) TestUsers() {
	b := &batches.Batch{Accounts: []batches.Account{
		{GUID: "u1", Login: ""},
		{GUID: "u2", Login: "a", Email: "a@example.com"},
		{GUID: "u3", Login: "a", Email: "a2@example.com"},
		{GUID: "u4", Login: "b"},
	}}

	msgs, err := CheckUsers().Check(s.ctx, b)
	require.Nil(s.T(), err)
	require.Len(s.T(), messages.Filter(msgs, messages.LevelError), 2)
	require.Len(s.T(), messages.Filter(msgs, messages.LevelWarning), 1)
}

func (s *VerifierTestSuite) TestStoreIsIdempotentAndPurges() {
	b := validBatch()
	b.Attachments[0].URL = "bad"
	id := s.store(b)

	resp, err := s.verifier.Verify(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)

	// Fixed batch sent again under the same GUID
	fixed := validBatch()
	fixed.ID = 12345
	require.Equal(s.T(), id, s.store(fixed))

	msgs, err := s.log.List(s.ctx, id, messages.GroupPreflight)
	require.Nil(s.T(), err)
	require.Empty(s.T(), msgs)

	resp, err = s.verifier.Verify(s.ctx, id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusRunning, resp.Status)
}

func (s *VerifierTestSuite) TestInvalidInput() {
	resp, err := s.verifier.Verify(s.ctx, 0)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.Equal(s.T(), "No batch ID provided.", resp.Messages[0].Text)

	resp, err = s.verifier.Verify(s.ctx, 77)
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, resp.Status)
	require.Equal(s.T(), "No batch with ID 77 found.", resp.Messages[0].Text)

	stored, err := s.verifier.Store(s.ctx, &batches.Batch{Title: "no guid"})
	require.Nil(s.T(), err)
	require.Equal(s.T(), protocol.StatusFailed, stored.Status)
}

func (s *VerifierTestSuite) TestDefaultMonitor() {
	verifier := NewVerifier(config.Default()).
		WithBatchStore(s.batches).
		WithMessageLog(s.log).
		WithDefaultChecks(s.content)

	resp, err := verifier.Store(s.ctx, validBatch())
	require.Nil(s.T(), err)

	for i := 0; i < 4; i++ {
		_, err = verifier.Verify(s.ctx, resp.BatchID)
		require.Nil(s.T(), err)
	}
}
