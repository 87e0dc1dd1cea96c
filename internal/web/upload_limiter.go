package web

// upload_limiter.go bounds how many uploads are parsed at once.
//
// Parsing a master workbook or a batch of order files holds the whole input
// in memory, so concurrent uploads wait for a slot. A request that cannot get
// one within maxWait fails with ErrTooManyUploads.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when every upload slot stays busy for maxWait.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

type uploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

func newUploadLimiter(maxConcurrent int, maxWait time.Duration) *uploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &uploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. The caller must release it.
func (l *uploadLimiter) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *uploadLimiter) release() {
	l.active.Add(-1)
	<-l.slots
}

// UploadStatus reports slot usage on /health.
type UploadStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"maxConcurrent"`
}

func (l *uploadLimiter) status() UploadStatus {
	return UploadStatus{Active: int(l.active.Load()), MaxConcurrent: cap(l.slots)}
}
