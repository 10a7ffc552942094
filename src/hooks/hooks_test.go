package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/messages"
)

func TestHooksTestSuite(t *testing.T) {
	suite.Run(t, new(HooksTestSuite))
}

type HooksTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *HooksTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *HooksTestSuite) TestStageNames() {
	require.Equal(s.T(), Stage("after_verify_posts"), AfterVerify("posts"))
	require.Equal(s.T(), Stage("verify_menus"), Verify("menus"))
	require.Equal(s.T(), Stage("import_menus"), Import("menus"))
}

func (s *HooksTestSuite) TestRegistrationOrder() {
	var calls []string
	registry := NewRegistry().
		Register(StageBeforeImport, Funcs{BeforeFunc: func(ctx context.Context, hc *Context) error {
			calls = append(calls, "first")
			return nil
		}}).
		Register(StageBeforeImport, Funcs{BeforeFunc: func(ctx context.Context, hc *Context) error {
			calls = append(calls, "second")
			hc.Add(messages.Info("from extension"))
			return nil
		}})

	hc := &Context{}
	require.Nil(s.T(), registry.Before(s.ctx, StageBeforeImport, hc))
	require.Equal(s.T(), []string{"first", "second"}, calls)
	require.Equal(s.T(), StageBeforeImport, hc.Stage)
	require.Len(s.T(), hc.Messages, 1)

	require.True(s.T(), registry.Has(StageBeforeImport))
	require.False(s.T(), registry.Has(StageAfterImport))
}

func (s *HooksTestSuite) TestErrorStops() {
	called := false
	registry := NewRegistry().
		Register(Verify("menus"), Funcs{BeforeFunc: func(ctx context.Context, hc *Context) error {
			return errors.New("broken")
		}}).
		Register(Verify("menus"), Funcs{AfterFunc: func(ctx context.Context, hc *Context, result any) error {
			called = true
			return nil
		}})

	err := registry.Run(s.ctx, Verify("menus"), &Context{Addon: "menus"})
	require.ErrorContains(s.T(), err, "broken")
	require.False(s.T(), called)
}

func (s *HooksTestSuite) TestAfterReceivesResult() {
	var got any
	registry := NewRegistry().
		Register(StageAfterImport, Funcs{AfterFunc: func(ctx context.Context, hc *Context, result any) error {
			got = result
			return nil
		}})

	require.Nil(s.T(), registry.After(s.ctx, StageAfterImport, &Context{}, 3))
	require.Equal(s.T(), 3, got)
}
