// Package batch answers every question of an input file and persists one
// artifact per question. An existing artifact marks its question as done,
// so an interrupted batch resumes where it stopped.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-groundqa/internal/artifact"
	"github.com/ahrav/go-groundqa/internal/domain"
)

// ErrInvalidRange indicates a merge range that is empty or starts below one.
var ErrInvalidRange = errors.New("invalid artifact range")

// Answerer answers a single question; *pipeline.Orchestrator implements it.
type Answerer interface {
	Run(ctx context.Context, question string) (*domain.PipelineRun, error)
}

// Config controls batch execution.
type Config struct {
	// Workers is the number of questions answered concurrently. Values
	// below one mean one.
	Workers int `json:"workers" mapstructure:"workers" validate:"gte=0"`

	// ContinueOnError logs and skips questions whose pipeline fails instead
	// of aborting the batch. No artifact is written for a failed question.
	ContinueOnError bool `json:"continue_on_error" mapstructure:"continue_on_error"`
}

// DefaultConfig answers one question at a time and stops at the first failure.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// Summary counts what a batch did.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Runner drives an Answerer over input records.
type Runner struct {
	answerer Answerer
	store    artifact.Store
	config   Config
	logger   *slog.Logger
}

// NewRunner creates a Runner writing artifacts to store.
func NewRunner(answerer Answerer, store artifact.Store, cfg Config) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{
		answerer: answerer,
		store:    store,
		config:   cfg,
		logger:   slog.Default().With("component", "batch"),
	}
}

// Run answers every record of the file at inputPath, numbering records from
// startIndex. Questions with an existing artifact are skipped without any
// agent or search call.
func (r *Runner) Run(ctx context.Context, inputPath string, startIndex int) (Summary, error) {
	records, err := ReadRecordsFile(inputPath, startIndex)
	if err != nil {
		return Summary{}, err
	}
	return r.RunRecords(ctx, records)
}

// RunRecords answers records. Artifacts are keyed by record index, so
// concurrent workers never write the same artifact.
func (r *Runner) RunRecords(ctx context.Context, records []Record) (Summary, error) {
	var processed, skipped, failed atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)

	for _, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.process(gctx, rec)
			switch res {
			case resultProcessed:
				processed.Add(1)
			case resultSkipped:
				skipped.Add(1)
			case resultFailed:
				failed.Add(1)
			}
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary := Summary{
		Processed: int(processed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	r.logger.InfoContext(ctx, "batch finished",
		"records", len(records),
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", time.Since(start),
		"error", err)
	return summary, err
}

type result int

const (
	resultNone result = iota
	resultProcessed
	resultSkipped
	resultFailed
)

func (r *Runner) process(ctx context.Context, rec Record) (result, error) {
	if err := ctx.Err(); err != nil {
		return resultNone, err
	}

	ref, err := domain.AnswerArtifactRef(rec.Index)
	if err != nil {
		return resultNone, err
	}

	exists, err := r.store.Exists(ctx, ref)
	if err != nil {
		return resultNone, fmt.Errorf("question %d: %w", rec.Index, err)
	}
	if exists {
		r.logger.DebugContext(ctx, "answer exists, skipping", "index", rec.Index)
		return resultSkipped, nil
	}
	if rec.Blank() {
		if _, err := r.store.Put(ctx, "", domain.ArtifactAnswer, ref.Key); err != nil {
			return resultNone, fmt.Errorf("question %d: %w", rec.Index, err)
		}
		r.logger.WarnContext(ctx, "blank record, wrote empty answer", "index", rec.Index, "key", ref.Key)
		return resultSkipped, nil
	}

	run, err := r.answerer.Run(ctx, rec.Question)
	if err != nil {
		if r.config.ContinueOnError && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "question failed, continuing", "index", rec.Index, "error", err)
			return resultFailed, nil
		}
		return resultFailed, fmt.Errorf("question %d: %w", rec.Index, err)
	}

	if _, err := r.store.Put(ctx, domain.FlattenAnswer(run.Answer), domain.ArtifactAnswer, ref.Key); err != nil {
		return resultNone, fmt.Errorf("question %d: %w", rec.Index, err)
	}
	r.logger.InfoContext(ctx, "answer written", "index", rec.Index, "key", ref.Key)
	return resultProcessed, nil
}

// Merge writes one line per answer for indices from..to to outPath, taking
// the trimmed first line of each artifact. A missing artifact is an error
// and nothing is written.
func Merge(ctx context.Context, store artifact.Store, from, to int, outPath string) (domain.ArtifactRef, error) {
	if from < 1 || to < from {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %d..%d", ErrInvalidRange, from, to)
	}

	var b strings.Builder
	for i := from; i <= to; i++ {
		if err := ctx.Err(); err != nil {
			return domain.ArtifactRef{}, err
		}
		ref, err := domain.AnswerArtifactRef(i)
		if err != nil {
			return domain.ArtifactRef{}, err
		}
		content, err := store.Get(ctx, ref)
		if err != nil {
			return domain.ArtifactRef{}, fmt.Errorf("merge answer %d: %w", i, err)
		}
		line, _, _ := strings.Cut(content, "\n")
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}

	if err := artifact.WriteFileAtomic(outPath, []byte(b.String())); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("write merged answers: %w", err)
	}
	return domain.ArtifactRef{Key: outPath, Size: int64(b.Len()), Kind: domain.ArtifactMerged}, nil
}
