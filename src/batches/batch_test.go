package batches

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestBatchTestSuite(t *testing.T) {
	suite.Run(t, new(BatchTestSuite))
}

type BatchTestSuite struct {
	suite.Suite
}

func (s *BatchTestSuite) TestDigestIgnoresIds() {
	a := newBatch("guid")
	b := newBatch("guid")
	b.ID = 99
	b.Status = StatusPublish

	da, err := a.Digest()
	require.Nil(s.T(), err)
	db, err := b.Digest()
	require.Nil(s.T(), err)
	require.Equal(s.T(), da, db)

	b.Posts[0].Title = "Changed"
	db, err = b.Digest()
	require.Nil(s.T(), err)
	require.NotEqual(s.T(), da, db)
}

func (s *BatchTestSuite) TestCount() {
	b := newBatch("guid")
	require.Equal(s.T(), 1, b.Count(CategoryAttachments))
	require.Equal(s.T(), 1, b.Count(CategoryUsers))
	require.Equal(s.T(), 2, b.Count(CategoryPosts))
	require.Equal(s.T(), 1, b.Count(CategoryCustomData))
	require.Equal(s.T(), 0, b.Count("unknown"))
}

func (s *BatchTestSuite) TestContains() {
	b := newBatch("guid")
	require.True(s.T(), b.Contains("post-2"))
	require.True(s.T(), b.Contains("att-1"))
	require.True(s.T(), b.Contains("acc-1"))
	require.False(s.T(), b.Contains("missing"))
}

func (s *BatchTestSuite) TestClone() {
	b := newBatch("guid")
	c, err := b.Clone()
	require.Nil(s.T(), err)
	c.Posts[0].Title = "Other"
	require.Equal(s.T(), "Parent", b.Posts[0].Title)
}
