package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// Recorder observes every authorization. reason is empty unless the outcome
// was rejected.
type Recorder interface {
	ObserveAuthorization(decision domain.Decision, reason string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuthorization(domain.Decision, string, time.Duration) {}

// Gate sequences extraction and evaluation for a single request.
type Gate struct {
	Extractor *Extractor
	Engine    *Engine
	Recorder  Recorder
}

func NewGate(extractor *Extractor, engine *Engine, recorder Recorder) *Gate {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Gate{Extractor: extractor, Engine: engine, Recorder: recorder}
}

// Authorize extracts credentials from md and evaluates them. Rotated tokens
// come back in Outcome.Issued and are already persisted; the transport layer
// decides how to deliver them.
func (g *Gate) Authorize(ctx context.Context, md Metadata) (domain.Outcome, error) {
	start := time.Now()

	outcome, err := g.authorize(ctx, md)

	reason := Reason(err)
	g.Recorder.ObserveAuthorization(outcome.Decision, reason, time.Since(start))
	if err != nil {
		slogx.FromContext(ctx).Info("authorization rejected", "reason", reason, "error", err)
	}

	return outcome, err
}

func (g *Gate) authorize(ctx context.Context, md Metadata) (domain.Outcome, error) {
	creds, err := g.Extractor.Extract(md)
	if err != nil {
		return reject(err)
	}
	return g.Engine.Evaluate(ctx, creds)
}
