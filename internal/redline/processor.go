// Package redline proposes a redline for every clause of a contract,
// searching the run's retrieval scope for fallback guidance.
//
// Calls go through a counting gate. With the default capacity of 1 at most
// one oracle call is in flight and clauses run in submission order.
package redline

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
	"ndaredline/internal/oracle"
)

// ErrEmptyRedline is the cause recorded when the oracle succeeds with no text.
var ErrEmptyRedline = errors.New("redliner returned empty text")

// DefaultConcurrency is the gate capacity when none is configured.
const DefaultConcurrency = 1

const previewLen = 50

// Instructions sent with every clause.
const Instructions = "You are an expert legal assistant reviewing a single clause from an NDA. Your task " +
	"is to provide redlines based on standard and potentially user-specific fallback " +
	"guidance.\n\n" +
	"1. Use the file_search tool to find relevant fallback clauses and risk notes for the input clause. " +
	"Search across all provided vector stores. Note if guidance comes from a user-specific store " +
	"vs. a default store based on which vector store ID the result came from.\n" +
	"2. Prioritize any fallback guidance that seems specific or customized (from a user store) " +
	"over standard guidance (from the default store) if both are found and relevant.\n" +
	"3. Based on the *prioritized* fallback guidance (or standard guidance if no custom " +
	"guidance is found), redline the *original* input clause using markdown: use " +
	"~~strike-through~~ for text to be removed and **bold** for text to be added.\n" +
	"4. If no relevant fallback guidance is found in any store, state that clearly.\n" +
	"5. Append a brief comment (`<!-- comment -->`) explaining the reason for the changes " +
	"based on the prioritized risk notes/guidance, or stating why no changes were " +
	"needed/found. Mention if the redline is based on standard vs. potentially custom " +
	"guidance if you inferred a difference.\n" +
	"6. Return ONLY the redlined clause and the comment as a single string."

// Observer is told when each clause starts and finishes. Calls may come
// from different goroutines.
type Observer interface {
	ClauseStarted(index, total int, clause domain.Clause)
	ClauseFinished(index, total int, outcome domain.RedlineOutcome)
}

// Processor redlines clauses through a bounded gate.
type Processor struct {
	client      oracle.Client
	concurrency int
	logger      *log.Logger
	observer    Observer
}

type Option func(*Processor)

// WithConcurrency sets the gate capacity. Values below 1 become 1.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Processor) { p.logger = logging.OrDiscard(l) }
}

func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

func NewProcessor(client oracle.Client, opts ...Option) *Processor {
	p := &Processor{client: client, concurrency: DefaultConcurrency, logger: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Concurrency() int { return p.concurrency }

// Process returns one outcome per clause, in clause order. A failed clause
// becomes an error annotation at its own index and never stops the others.
// Gate slots are taken in submission order; if ctx ends while waiting for a
// slot, every clause not yet started is annotated with the context error.
func (p *Processor) Process(ctx context.Context, clauses []domain.Clause, scope domain.RetrievalScope) []domain.RedlineOutcome {
	n := len(clauses)
	outcomes := make([]domain.RedlineOutcome, n)
	if n == 0 {
		return outcomes
	}
	tools := oracle.FileSearchTools(scope.IDs())
	gate := semaphore.NewWeighted(int64(p.concurrency))
	var g errgroup.Group

	for i, clause := range clauses {
		p.logger.Info("dispatching redliner task", "clause", fmt.Sprintf("%d/%d", i+1, n), "preview", clause.Preview(previewLen))
		if err := gate.Acquire(ctx, 1); err != nil {
			for j := i; j < n; j++ {
				outcomes[j] = failed(clauses[j], err)
			}
			break
		}
		g.Go(func() error {
			defer gate.Release(1)
			outcomes[i] = p.redline(ctx, i, n, clause, tools)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("redliner tasks completed", "clauses", n, "failed", countFailed(outcomes))
	return outcomes
}

func (p *Processor) redline(ctx context.Context, i, n int, clause domain.Clause, tools []oracle.FileSearchTool) (out domain.RedlineOutcome) {
	preview := clause.Preview(previewLen)
	defer func() {
		if r := recover(); r != nil {
			out = failed(clause, fmt.Errorf("panic: %v", r))
		}
		if out.Failed() {
			p.logger.Error("redliner failed", "clause", i+1, "preview", preview, "err", out.Err)
		} else {
			p.logger.Info("redliner succeeded", "clause", i+1, "preview", preview)
		}
		if p.observer != nil {
			p.observer.ClauseFinished(i, n, out)
		}
	}()
	if p.observer != nil {
		p.observer.ClauseStarted(i, n, clause)
	}

	p.logger.Debug("acquired gate", "clause", i+1, "preview", preview)
	res := p.client.Invoke(ctx, oracle.Request{
		Instructions: Instructions,
		Input:        string(clause),
		Tools:        tools,
	})
	if !res.OK() {
		return failed(clause, res.Err())
	}
	if res.Text() == "" {
		return failed(clause, ErrEmptyRedline)
	}
	return domain.RedlineOutcome{Clause: clause, Text: res.Text()}
}

func failed(clause domain.Clause, cause error) domain.RedlineOutcome {
	return domain.RedlineOutcome{
		Clause: clause,
		Text:   Annotate(clause, cause),
		Err:    fmt.Errorf("%w: %w", domain.ErrRedline, cause),
	}
}

// Annotate renders a failed clause as an HTML comment carrying the original
// clause text and the cause.
func Annotate(clause domain.Clause, cause error) string {
	if errors.Is(cause, ErrEmptyRedline) {
		return fmt.Sprintf("<!-- Error: Redliner returned invalid format for clause: %s -->", clause)
	}
	if errors.Is(cause, oracle.ErrNoMessage) {
		return fmt.Sprintf("<!-- Error: Failed to extract redlining text from response for clause: %s -->", clause)
	}
	return fmt.Sprintf("<!-- Error redlining clause: %s \n Exception: %v -->", clause, cause)
}

func countFailed(outcomes []domain.RedlineOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}
