package summarizer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
	"ndaredline/internal/oracle"
)

// Placeholder replaces the summary when the oracle call fails.
const Placeholder = "Error: Summary not generated."

// Instructions sent with the full contract text.
const Instructions = "Summarize the provided NDA contract text in plain English. " +
	"Highlight parties, duration, confidentiality obligations, non-compete terms " +
	"(scope and duration), and governing law."

// OracleSummarizer asks the oracle for a plain-English summary.
type OracleSummarizer struct {
	client oracle.Client
	logger *log.Logger
}

// New creates an oracle-backed summarizer.
func New(client oracle.Client, logger *log.Logger) *OracleSummarizer {
	return &OracleSummarizer{client: client, logger: logging.OrDiscard(logger)}
}

// Summarize returns the summary text, or an error wrapping domain.ErrOracleCall.
func (s *OracleSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	s.logger.Info("running summarizer")
	res := s.client.Invoke(ctx, oracle.Request{Instructions: Instructions, Input: text})
	if !res.OK() {
		s.logger.Error("summarizer did not return expected output", "err", res.Err())
		return "", fmt.Errorf("%w: summarize: %w", domain.ErrOracleCall, res.Err())
	}
	s.logger.Info("summarizer finished", "chars", len(res.Text()))
	return res.Text(), nil
}
