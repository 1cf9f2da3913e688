// Package pipeline answers one question by running a fixed sequence of
// stages over a domain.PipelineRun: distill the question, extract keywords,
// decide whether to search, gather context, and generate the answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-groundqa/internal/agent"
	"github.com/ahrav/go-groundqa/internal/domain"
	"github.com/ahrav/go-groundqa/internal/retry"
)

// contextPreviewRunes bounds the context logged after retrieval.
const contextPreviewRunes = 300

// answerPromptFormat combines background context and the distilled question.
const answerPromptFormat = "Background information:\n%s\n\nPlease answer: %s"

// Pipeline construction errors.
var (
	ErrMissingAgent    = errors.New("pipeline agent is nil")
	ErrMissingPolicy   = errors.New("pipeline policy is nil")
	ErrMissingSearcher = errors.New("pipeline searcher is nil")
	ErrMissingRetry    = errors.New("pipeline retry controller is nil")
)

// Inferer is one agent role; *agent.Agent implements it.
type Inferer interface {
	Name() string
	Infer(ctx context.Context, input string) (string, error)
}

// Decider chooses whether a question warrants a search; *policy.Policy implements it.
type Decider interface {
	ShouldSearch(question string) bool
}

// Searcher produces context for a query; *search.Provider implements it.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	QuestionExtractor Inferer
	KeywordExtractor  Inferer
	Answerer          Inferer
	Policy            Decider
	Searcher          Searcher
	Retry             *retry.Controller

	// Metrics may be nil, in which case instruments go to a private registry.
	Metrics *Metrics
	Logger  *slog.Logger
}

// WithAgents fills the agent roles of d from set.
func (d Deps) WithAgents(set *agent.Set) Deps {
	d.QuestionExtractor = set.QuestionExtractor
	d.KeywordExtractor = set.KeywordExtractor
	d.Answerer = set.Answerer
	return d
}

// Stage is one named step. When reports whether the stage applies to run;
// a nil When always applies.
type Stage struct {
	Name domain.StageName
	When func(run *domain.PipelineRun) bool
	Run  func(ctx context.Context, run *domain.PipelineRun) error
}

// Orchestrator runs the stage sequence. It keeps no per-run state and is
// safe for concurrent use when its collaborators are.
type Orchestrator struct {
	questionExtractor Inferer
	keywordExtractor  Inferer
	answerer          Inferer
	policy            Decider
	searcher          Searcher
	retry             *retry.Controller
	metrics           *Metrics
	logger            *slog.Logger
}

// New validates deps and builds an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	if deps.QuestionExtractor == nil || deps.KeywordExtractor == nil || deps.Answerer == nil {
		return nil, ErrMissingAgent
	}
	if deps.Policy == nil {
		return nil, ErrMissingPolicy
	}
	if deps.Searcher == nil {
		return nil, ErrMissingSearcher
	}
	if deps.Retry == nil {
		return nil, ErrMissingRetry
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Orchestrator{
		questionExtractor: deps.QuestionExtractor,
		keywordExtractor:  deps.KeywordExtractor,
		answerer:          deps.Answerer,
		policy:            deps.Policy,
		searcher:          deps.Searcher,
		retry:             deps.Retry,
		metrics:           deps.Metrics,
		logger:            deps.Logger.With("component", "pipeline"),
	}, nil
}

// Stages returns the stage sequence in execution order. Search and
// SkipSearch are mutually exclusive on run.SearchNeeded.
func (o *Orchestrator) Stages() []Stage {
	return []Stage{
		{Name: domain.StageExtractQuestion, Run: o.ExtractQuestion},
		{Name: domain.StageExtractKeywords, Run: o.ExtractKeywords},
		{Name: domain.StageDecideSearch, Run: o.DecideSearch},
		{
			Name: domain.StageSearch,
			When: func(run *domain.PipelineRun) bool { return run.SearchNeeded },
			Run:  o.Search,
		},
		{
			Name: domain.StageSkipSearch,
			When: func(run *domain.PipelineRun) bool { return !run.SearchNeeded },
			Run:  o.SkipSearch,
		},
		{Name: domain.StageGenerateAnswer, Run: o.GenerateAnswer},
	}
}

// Run answers question. Each stage completes before the next starts; the
// first stage error aborts the run.
func (o *Orchestrator) Run(ctx context.Context, question string) (*domain.PipelineRun, error) {
	if strings.TrimSpace(question) == "" {
		o.metrics.Runs.WithLabelValues("rejected").Inc()
		return nil, domain.ErrEmptyQuestion
	}

	run := domain.NewPipelineRun(question)
	logger := o.logger.With("run_id", run.ID)
	logger.InfoContext(ctx, "pipeline started", "question", question)

	for _, stage := range o.Stages() {
		if stage.When != nil && !stage.When(run) {
			continue
		}
		if err := ctx.Err(); err != nil {
			o.metrics.Runs.WithLabelValues("canceled").Inc()
			return run, err
		}

		start := time.Now()
		err := stage.Run(ctx, run)
		elapsed := time.Since(start)
		o.metrics.StageDuration.WithLabelValues(string(stage.Name)).Observe(elapsed.Seconds())

		if err != nil {
			logger.ErrorContext(ctx, "stage failed", "stage", stage.Name, "duration", elapsed, "error", err)
			o.metrics.Runs.WithLabelValues("failed").Inc()
			return run, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		run.Stages = append(run.Stages, stage.Name)
		logger.DebugContext(ctx, "stage complete", "stage", stage.Name, "duration", elapsed)
	}

	run.CompletedAt = time.Now()
	o.metrics.Runs.WithLabelValues("completed").Inc()
	logger.InfoContext(ctx, "pipeline completed",
		"searched", run.SearchNeeded,
		"search_attempts", run.SearchAttempts,
		"duration", run.CompletedAt.Sub(run.StartedAt))
	return run, nil
}

// ExtractQuestion distills the original question.
func (o *Orchestrator) ExtractQuestion(ctx context.Context, run *domain.PipelineRun) error {
	extracted, err := o.questionExtractor.Infer(ctx, run.OriginalQuestion)
	if err != nil {
		return err
	}
	run.ExtractedQuestion = extracted
	o.logger.InfoContext(ctx, "question extracted", "run_id", run.ID, "extracted", extracted)
	return nil
}

// ExtractKeywords records keywords for the extracted question. They are
// logged and kept on the run but gate nothing.
func (o *Orchestrator) ExtractKeywords(ctx context.Context, run *domain.PipelineRun) error {
	keywords, err := o.keywordExtractor.Infer(ctx, run.ExtractedQuestion)
	if err != nil {
		return err
	}
	run.Keywords = keywords
	o.logger.InfoContext(ctx, "keywords extracted", "run_id", run.ID, "keywords", keywords)
	return nil
}

// DecideSearch applies the search policy to the extracted question.
func (o *Orchestrator) DecideSearch(ctx context.Context, run *domain.PipelineRun) error {
	run.SearchNeeded = o.policy.ShouldSearch(run.ExtractedQuestion)
	o.logger.DebugContext(ctx, "search decision", "run_id", run.ID, "search_needed", run.SearchNeeded)
	return nil
}

// Search retrieves context under the retry schedule. Exhaustion is not an
// error; the run gets the fallback context instead.
func (o *Orchestrator) Search(ctx context.Context, run *domain.PipelineRun) error {
	outcome := o.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return o.searcher.Search(ctx, run.ExtractedQuestion)
	})

	run.SearchAttempts = outcome.Attempts
	run.SearchExhausted = outcome.Exhausted
	run.Context = retry.Resolve(outcome)

	o.metrics.SearchAttempts.Add(float64(outcome.Attempts))
	if outcome.Exhausted {
		o.metrics.SearchFallbacks.Inc()
		o.logger.WarnContext(ctx, "search exhausted, using fallback context",
			"run_id", run.ID,
			"attempts", outcome.Attempts,
			"error", outcome.Err)
		return nil
	}

	o.logger.DebugContext(ctx, "context retrieved",
		"run_id", run.ID,
		"attempts", outcome.Attempts,
		"preview", domain.TruncateRunes(run.Context, contextPreviewRunes))
	return nil
}

// SkipSearch sets the fixed context used when no search is warranted.
func (o *Orchestrator) SkipSearch(_ context.Context, run *domain.PipelineRun) error {
	run.Context = domain.NoSearchContext
	return nil
}

// GenerateAnswer asks the answering agent with the context and extracted question.
func (o *Orchestrator) GenerateAnswer(ctx context.Context, run *domain.PipelineRun) error {
	answer, err := o.answerer.Infer(ctx, AnswerPrompt(run.Context, run.ExtractedQuestion))
	if err != nil {
		return err
	}
	run.Answer = answer
	o.logger.InfoContext(ctx, "answer generated", "run_id", run.ID, "answer", answer)
	return nil
}

// AnswerPrompt renders the answering agent's input message.
func AnswerPrompt(contextText, question string) string {
	return fmt.Sprintf(answerPromptFormat, contextText, question)
}
