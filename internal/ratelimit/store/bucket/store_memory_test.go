package bucket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carewatch/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC)
	s.store = New(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "allow:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "allow:limit", testLimit, testWindow)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "allow:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(15 * time.Second)
		result, err := s.store.Allow(s.ctx, "allow:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(45, result.RetryAfter)
	})

	s.Run("window slides", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "allow:slide", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(testWindow + time.Second)
		result, err := s.store.Allow(s.ctx, "allow:slide", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "allow:a", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "allow:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestResetAndCount() {
	for range 3 {
		_, err := s.store.Allow(s.ctx, "count", testLimit, testWindow)
		s.Require().NoError(err)
	}
	n, err := s.store.GetCurrentCount(s.ctx, "count")
	s.Require().NoError(err)
	s.Equal(3, n)

	s.Require().NoError(s.store.Reset(s.ctx, "count"))
	n, err = s.store.GetCurrentCount(s.ctx, "count")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentRequestsNeverExceedLimit() {
	const goroutines = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "concurrent", testLimit, testWindow)
			s.NoError(err, fmt.Sprintf("goroutine %d", i))
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}

func (s *InMemoryBucketStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.store.Allow(ctx, "cancelled", testLimit, testWindow)
	s.ErrorIs(err, context.Canceled)
}
