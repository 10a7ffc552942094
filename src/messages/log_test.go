package messages

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/stager/src/utils/model"
)

func TestMemoryLogTestSuite(t *testing.T) {
	suite.Run(t, &LogTestSuite{newLog: func(t *testing.T) Log { return NewMemoryLog() }})
}

func TestDBLogTestSuite(t *testing.T) {
	dsn := os.Getenv("STAGER_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("STAGER_TEST_DATABASE_DSN not set")
	}

	suite.Run(t, &LogTestSuite{newLog: func(t *testing.T) Log {
		db, err := model.NewConnectionFromDSN(context.Background(), dsn)
		require.Nil(t, err)
		require.Nil(t, db.Exec("TRUNCATE messages").Error)
		return NewDBLog(db)
	}})
}

type LogTestSuite struct {
	suite.Suite
	ctx    context.Context
	newLog func(t *testing.T) Log
	log    Log
}

func (s *LogTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.log = s.newLog(s.T())
}

func (s *LogTestSuite) TestAppendAndList() {
	err := s.log.Append(s.ctx, 1, GroupPreflight, Info("first"), Error("second").WithCode(5).WithItem("guid-1"))
	require.Nil(s.T(), err)
	err = s.log.Append(s.ctx, 1, GroupDeploy, Success("deployed"))
	require.Nil(s.T(), err)
	err = s.log.Append(s.ctx, 2, GroupPreflight, Warning("other subject"))
	require.Nil(s.T(), err)

	msgs, err := s.log.List(s.ctx, 1, GroupPreflight)
	require.Nil(s.T(), err)
	require.Len(s.T(), msgs, 2)
	require.Equal(s.T(), "first", msgs[0].Text)
	require.Equal(s.T(), LevelError, msgs[1].Level)
	require.Equal(s.T(), 5, msgs[1].Code)
	require.Equal(s.T(), "guid-1", msgs[1].Item)
	require.Equal(s.T(), GroupPreflight, msgs[1].Group)

	all, err := s.log.List(s.ctx, 1, "")
	require.Nil(s.T(), err)
	require.Len(s.T(), all, 3)
}

func (s *LogTestSuite) TestPurgeGroup() {
	require.Nil(s.T(), s.log.Append(s.ctx, 1, GroupPreflight, Error("bad")))
	require.Nil(s.T(), s.log.Append(s.ctx, 1, GroupDeploy, Info("ok")))

	require.Nil(s.T(), s.log.Purge(s.ctx, 1, GroupPreflight))

	msgs, err := s.log.List(s.ctx, 1, "")
	require.Nil(s.T(), err)
	require.Len(s.T(), msgs, 1)
	require.Equal(s.T(), GroupDeploy, msgs[0].Group)
}

func (s *LogTestSuite) TestPurgeAllGroups() {
	require.Nil(s.T(), s.log.Append(s.ctx, 1, GroupPreflight, Error("bad")))
	require.Nil(s.T(), s.log.Append(s.ctx, 1, GroupDeploy, Info("ok")))
	require.Nil(s.T(), s.log.Append(s.ctx, 2, GroupDeploy, Info("kept")))

	require.Nil(s.T(), s.log.Purge(s.ctx, 1, ""))

	msgs, err := s.log.List(s.ctx, 1, "")
	require.Nil(s.T(), err)
	require.Empty(s.T(), msgs)

	msgs, err = s.log.List(s.ctx, 2, "")
	require.Nil(s.T(), err)
	require.Len(s.T(), msgs, 1)
}

func (s *LogTestSuite) TestUnknownLevel() {
	// Levels are global, name is unique per suite
	level := Level("notice/" + s.T().Name())

	err := s.log.Append(s.ctx, 1, GroupPreflight, New(level, "text"))
	require.ErrorIs(s.T(), err, ErrUnknownLevel)

	RegisterLevel(level)
	err = s.log.Append(s.ctx, 1, GroupPreflight, New(level, "text"))
	require.Nil(s.T(), err)
}

func (s *LogTestSuite) TestHasErrors() {
	require.False(s.T(), HasErrors([]Message{Info("a"), Warning("b")}))
	require.True(s.T(), HasErrors([]Message{Info("a"), Error("b")}))
	require.Len(s.T(), Filter([]Message{Info("a"), Error("b"), Info("c")}, LevelInfo), 2)
}
