// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the evidence source adapters: one per
// external database (academic, regional literature, regulatory labels,
// clinical-trials registry). Each adapter implements the Adapter
// interface per the Strategy pattern and owns its own timeout and
// rate gate; the aggregator composes them.
//
// Adapters return an empty slice with no error when a source simply has
// nothing for the query. Transport failures (timeout, unexpected status)
// are returned as errors so the aggregator can record the cause as a
// warning — they never abort a run.
package sources

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Adapter searches a single external evidence database.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error)
}

// throttled enforces a minimum inter-call interval in front of an
// adapter. The gate delays rather than rejects: a burst-1 limiter lets
// the first call through immediately and spaces the rest. State is local
// to the adapter instance; there is one gate per adapter per process.
type throttled struct {
	Adapter
	limiter *rate.Limiter
}

// Throttle wraps a with a minimum inter-call interval. A non-positive
// interval returns a unchanged.
func Throttle(a Adapter, minInterval time.Duration) Adapter {
	if minInterval <= 0 {
		return a
	}
	return &throttled{
		Adapter: a,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (t *throttled) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Adapter.Search(ctx, query, limit)
}

// truncate bounds free-text label sections, stripping any HTML tags first.
func truncate(s string, max int) string {
	s = stripTags(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// stripTags removes HTML tags from label text.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
