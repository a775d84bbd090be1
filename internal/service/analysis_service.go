package service

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
	"ndaredline/internal/report"
	"ndaredline/internal/summarizer"
)

// Stage is the position of a run in the pipeline.
type Stage int

const (
	StageLoading Stage = iota
	StageSummarizing
	StageSegmenting
	StageRedlining
	StageAggregating
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "loading"
	case StageSummarizing:
		return "summarizing"
	case StageSegmenting:
		return "segmenting"
	case StageRedlining:
		return "redlining"
	case StageAggregating:
		return "aggregating"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Observer is told about every stage a run enters.
type Observer interface {
	StageChanged(stage Stage)
}

// Result describes a finished run. Report and Text are set once aggregation
// ran; WriteErr is set when the text could not be persisted, in which case
// Text is the only copy.
type Result struct {
	RunID      string
	Stage      Stage
	Clauses    int
	Failed     int
	Report     *domain.Report
	Text       string
	OutputPath string
	WriteErr   error
}

type AnalysisService struct {
	loader     domain.Loader
	resolver   domain.ScopeResolver
	summarizer domain.Summarizer
	segmenter  domain.Segmenter
	redliner   domain.Redliner
	writer     domain.ReportWriter
	logger     *log.Logger
	observer   Observer
}

func NewAnalysisService(loader domain.Loader, resolver domain.ScopeResolver, summarizer domain.Summarizer, segmenter domain.Segmenter, redliner domain.Redliner, writer domain.ReportWriter, logger *log.Logger) *AnalysisService {
	return &AnalysisService{
		loader:     loader,
		resolver:   resolver,
		summarizer: summarizer,
		segmenter:  segmenter,
		redliner:   redliner,
		writer:     writer,
		logger:     logging.OrDiscard(logger),
	}
}

// SetObserver registers a stage observer. Call before Analyze.
func (s *AnalysisService) SetObserver(o Observer) { s.observer = o }

// Analyze runs the whole pipeline for one contract file. Only a load failure
// or an unexpected panic returns an error; summary, segmentation, redline and
// write failures degrade into the report.
func (s *AnalysisService) Analyze(ctx context.Context, path, userID string) (res *Result, err error) {
	res = &Result{RunID: uuid.NewString()}
	logger := s.logger.With("run", res.RunID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("a critical error occurred during the workflow", "panic", r, "stack", string(debug.Stack()))
			s.enter(res, StageFailed)
			err = fmt.Errorf("%w: %v", domain.ErrRunAborted, r)
		}
	}()

	s.enter(res, StageLoading)
	doc, err := s.loader.Load(path)
	if err != nil {
		logger.Error("analysis stopped: contract could not be loaded", "path", path, "err", err)
		s.enter(res, StageFailed)
		return res, err
	}
	if userID == "" {
		logger.Info("starting analysis", "user", "default", "contract", path)
	} else {
		logger.Info("starting analysis", "user", userID, "contract", path)
	}
	scope := s.resolver.Resolve(ctx, userID)

	s.enter(res, StageSummarizing)
	summary, err := s.summarizer.Summarize(ctx, doc.Content)
	if err != nil {
		logger.Error("summary not generated, continuing", "err", err)
		summary = summarizer.Placeholder
	}

	s.enter(res, StageSegmenting)
	clauses := s.segmenter.Segment(ctx, doc.Content)
	res.Clauses = len(clauses)

	var outcomes []domain.RedlineOutcome
	if len(clauses) == 0 {
		logger.Warn("skipping redlining because clause breaking failed or returned no clauses")
	} else {
		s.enter(res, StageRedlining)
		logger.Info("running redliner for each clause", "clauses", len(clauses), "collections", scope.IDs())
		outcomes = s.redliner.Process(ctx, clauses, scope)
		for _, o := range outcomes {
			if o.Failed() {
				res.Failed++
			}
		}
	}

	s.enter(res, StageAggregating)
	res.Report = &domain.Report{Summary: summary, Outcomes: outcomes}
	res.Text = report.Text(*res.Report)
	logger.Info("aggregation complete")

	res.OutputPath, res.WriteErr = s.writer.Write(path, res.Text)
	if res.WriteErr != nil {
		logger.Error("failed to write output file", "path", res.OutputPath, "err", res.WriteErr)
	} else {
		logger.Info("analysis complete", "output", res.OutputPath)
	}
	s.enter(res, StageDone)
	return res, nil
}

func (s *AnalysisService) enter(res *Result, stage Stage) {
	res.Stage = stage
	if s.observer != nil {
		s.observer.StageChanged(stage)
	}
}
