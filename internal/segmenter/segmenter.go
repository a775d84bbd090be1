package segmenter

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
	"ndaredline/internal/oracle"
)

// Delimiter separates clauses in the oracle's output.
const Delimiter = "|||"

// Instructions ask for the clause texts only, joined by Delimiter.
const Instructions = "Analyze the provided NDA contract text and identify distinct legal clauses " +
	"(e.g., confidentiality, non-compete, governing law). " +
	"Output ONLY the text of the clauses, separated by the exact delimiter '" + Delimiter + "'. " +
	"Do NOT include any other text, explanations, numbering, or formatting. " +
	"Example output format: Clause 1 text." + Delimiter + "Clause 2 text." + Delimiter + "Clause 3 text."

// OracleSegmenter splits a contract into clauses with one oracle call.
type OracleSegmenter struct {
	client oracle.Client
	logger *log.Logger
}

func New(client oracle.Client, logger *log.Logger) *OracleSegmenter {
	return &OracleSegmenter{client: client, logger: logging.OrDiscard(logger)}
}

// Segment returns the clauses in document order. An oracle failure is
// logged and yields no clauses.
func (s *OracleSegmenter) Segment(ctx context.Context, text string) []domain.Clause {
	s.logger.Info("running clause breaker")
	res := s.client.Invoke(ctx, oracle.Request{Instructions: Instructions, Input: text})
	if !res.OK() {
		s.logger.Error("clause breaker did not return a valid output", "err", res.Err())
		return nil
	}
	clauses := Split(res.Text())
	s.logger.Info("clause breaker finished", "clauses", len(clauses))
	return clauses
}

// Split cuts out on Delimiter, trims each piece and drops empty ones.
func Split(out string) []domain.Clause {
	parts := strings.Split(out, Delimiter)
	clauses := make([]domain.Clause, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		clauses = append(clauses, domain.Clause(p))
	}
	return clauses
}
