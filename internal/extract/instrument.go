package extract

import (
	"context"
	"time"

	"github.com/dgallion1/lexgest/internal/metrics"
)

// Model tiers.
const (
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// instrumented records latency for every call to the wrapped Completer.
type instrumented struct {
	next    Completer
	tier    string
	stats   *TierStats
	metrics *metrics.Metrics
}

// Instrument wraps c so each call is recorded under tier. stats and m may
// be nil.
func Instrument(c Completer, tier string, stats *TierStats, m *metrics.Metrics) Completer {
	if c == nil {
		return nil
	}
	return &instrumented{next: c, tier: tier, stats: stats, metrics: m}
}

func (i *instrumented) Model() string { return i.next.Model() }

func (i *instrumented) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, req)
	elapsed := time.Since(start)
	if i.stats != nil {
		i.stats.Tier(i.tier).Record(elapsed.Milliseconds(), err != nil)
	}
	i.metrics.ModelCall(i.tier, elapsed, err == nil, out.InputTokens, out.OutputTokens)
	return out, err
}
