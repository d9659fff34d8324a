package emotion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/metamind/quiz/internal/confidence"
)

// Key identifies one pending analysis: the photo for one question in one
// session. A new submission for the same key supersedes the old one.
type Key struct {
	SessionID  string
	QuestionID int64
}

// Outcome is a resolved analysis: the emotion vector, its confidence
// score under the configured strategy, and whether the vector was
// simulated because the upstream failed.
type Outcome struct {
	Vector    confidence.Vector
	Result    confidence.Result
	Simulated bool
}

type task struct {
	done    chan struct{}
	outcome Outcome
	ok      bool
}

// Analyzer runs emotion analyses on a bounded worker pool and holds the
// results until the matching answer is submitted. Answer submission reads
// either a fully resolved outcome or nothing; late results for a
// superseded or discarded key are dropped, never merged.
type Analyzer struct {
	svc     *Service
	scorer  confidence.Scorer
	workers chan struct{}

	mu      sync.Mutex
	pending map[Key]*task
}

// NewAnalyzer creates an analyzer with the given concurrency bound.
func NewAnalyzer(svc *Service, scorer confidence.Scorer, workers int) *Analyzer {
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		svc:     svc,
		scorer:  scorer,
		workers: make(chan struct{}, workers),
		pending: make(map[Key]*task),
	}
}

// Scorer returns the confidence-scoring strategy the analyzer applies.
func (a *Analyzer) Scorer() confidence.Scorer {
	return a.scorer
}

// Submit queues the image for analysis. A pending analysis for the same
// key is superseded: its eventual result will be discarded.
func (a *Analyzer) Submit(ctx context.Context, key Key, image []byte) {
	t := &task{done: make(chan struct{})}

	a.mu.Lock()
	a.pending[key] = t
	a.mu.Unlock()

	go a.run(ctx, key, t, image)
}

func (a *Analyzer) run(ctx context.Context, key Key, t *task, image []byte) {
	a.workers <- struct{}{}
	defer func() { <-a.workers }()

	vector, simulated := a.svc.AnalyzeOrSimulate(ctx, image)
	result := a.scorer.Score(vector)

	a.mu.Lock()
	if a.pending[key] == t {
		t.outcome = Outcome{Vector: vector, Result: result, Simulated: simulated}
		t.ok = true
	} else {
		slog.Debug("dropping stale emotion analysis",
			"session_id", key.SessionID, "question_id", key.QuestionID)
	}
	a.mu.Unlock()

	close(t.done)
}

// Await blocks until the pending analysis for key resolves, the context
// expires, or the key turns out to have nothing pending. The bool reports
// whether a current outcome was available; callers fall back to the
// default confidence sentinel when it is false. A handed-out outcome is
// released: a second Await for the same key finds nothing pending.
func (a *Analyzer) Await(ctx context.Context, key Key) (Outcome, bool) {
	a.mu.Lock()
	t := a.pending[key]
	a.mu.Unlock()
	if t == nil {
		return Outcome{}, false
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return Outcome{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending[key] != t || !t.ok {
		return Outcome{}, false
	}
	delete(a.pending, key)
	return t.outcome, true
}

// Discard drops any pending or resolved analysis for key. An in-flight
// call keeps running but its result is thrown away.
func (a *Analyzer) Discard(key Key) {
	a.mu.Lock()
	delete(a.pending, key)
	a.mu.Unlock()
}
