package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestRetryTestSuite(t *testing.T) {
	suite.Run(t, new(RetryTestSuite))
}

type RetryTestSuite struct {
	suite.Suite
}

func (s *RetryTestSuite) TestSucceedsAfterErrors() {
	attempts := 0
	errorsSeen := 0
	err := NewRetry().
		WithInitialInterval(time.Millisecond).
		WithMaxInterval(5 * time.Millisecond).
		WithMaxElapsedTime(time.Second).
		WithAcceptableDuration(time.Minute).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			require.True(s.T(), isDurationAcceptable)
			errorsSeen++
			return err
		}).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		})
	require.Nil(s.T(), err)
	require.Equal(s.T(), 3, attempts)
	require.Equal(s.T(), 2, errorsSeen)
}

func (s *RetryTestSuite) TestPermanentStops() {
	attempts := 0
	stop := errors.New("stop")
	err := NewRetry().
		WithInitialInterval(time.Millisecond).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return stop
		})
	require.ErrorIs(s.T(), err, stop)
	require.Equal(s.T(), 1, attempts)
}

func (s *RetryTestSuite) TestContextCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRetry().
		WithContext(ctx).
		WithInitialInterval(time.Millisecond).
		Run(func() error {
			return errors.New("fail")
		})
	require.Error(s.T(), err)
}
