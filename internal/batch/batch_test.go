package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/artifact"
	"github.com/ahrav/go-groundqa/internal/domain"
)

type fakeAnswerer struct {
	mu        sync.Mutex
	questions []string
	answer    func(q string) (string, error)
	inflight  atomic.Int32
	peak      atomic.Int32
	delay     time.Duration
}

func (f *fakeAnswerer) Run(ctx context.Context, question string) (*domain.PipelineRun, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()

	ans, err := f.answer(question)
	if err != nil {
		return nil, err
	}
	run := domain.NewPipelineRun(question)
	run.Answer = ans
	return run, nil
}

func (f *fakeAnswerer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.questions...)
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "public.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func newFileStore(t *testing.T) *artifact.FileStore {
	t.Helper()
	store, err := artifact.NewFileStore(filepath.Join(t.TempDir(), "answers"))
	require.NoError(t, err)
	return store
}

func readArtifact(t *testing.T, store *artifact.FileStore, idx int) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(store.Dir(), itoa(idx)+".txt"))
	require.NoError(t, err)
	return string(data)
}

func itoa(i int) string { return strconv.Itoa(i) }

func TestReadRecords(t *testing.T) {
	in := "What is the capital of France?,extra\n\n  Who wrote Hamlet?  \r\nplain"
	records, err := ReadRecords(strings.NewReader(in), 31)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Index: 31, Question: "What is the capital of France?"},
		{Index: 32, Question: ""},
		{Index: 33, Question: "Who wrote Hamlet?"},
		{Index: 34, Question: "plain"},
	}, records)
	assert.True(t, records[1].Blank())

	_, err = ReadRecords(strings.NewReader(in), 0)
	require.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestRun_WritesFlattenedAnswers(t *testing.T) {
	store := newFileStore(t)
	ans := &fakeAnswerer{answer: func(q string) (string, error) { return "answer to " + q + "\nsecond line", nil }}
	input := writeInput(t, "What is the capital of France?,extra", "Who wrote Hamlet?")

	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), input, 1)
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 2}, summary)
	assert.Equal(t, []string{"What is the capital of France?", "Who wrote Hamlet?"}, ans.calls(),
		"content after the first comma is ignored")
	assert.Equal(t, "answer to What is the capital of France? second line", readArtifact(t, store, 1))
	assert.Equal(t, "answer to Who wrote Hamlet? second line", readArtifact(t, store, 2))
}

func TestRun_IdempotentRerun(t *testing.T) {
	store := newFileStore(t)
	input := writeInput(t, "q1", "q2", "q3")

	first := &fakeAnswerer{answer: func(q string) (string, error) { return "A " + q, nil }}
	_, err := NewRunner(first, store, DefaultConfig()).Run(context.Background(), input, 1)
	require.NoError(t, err)

	second := &fakeAnswerer{answer: func(string) (string, error) { return "changed", nil }}
	summary, err := NewRunner(second, store, DefaultConfig()).Run(context.Background(), input, 1)
	require.NoError(t, err)

	assert.Empty(t, second.calls(), "no pipeline call for existing artifacts")
	assert.Equal(t, Summary{Skipped: 3}, summary)
	assert.Equal(t, "A q2", readArtifact(t, store, 2))
}

func TestRun_ResumesPartialBatch(t *testing.T) {
	store := newFileStore(t)
	_, err := store.Put(context.Background(), "kept", domain.ArtifactAnswer, "2.txt")
	require.NoError(t, err)

	ans := &fakeAnswerer{answer: func(q string) (string, error) { return "A " + q, nil }}
	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "q1", "q2", "q3"), 1)
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 2, Skipped: 1}, summary)
	assert.Equal(t, []string{"q1", "q3"}, ans.calls())
	assert.Equal(t, "kept", readArtifact(t, store, 2))
}

func TestRun_StartIndexOffsetsArtifacts(t *testing.T) {
	store := artifact.NewInMemoryStore()
	ans := &fakeAnswerer{answer: func(q string) (string, error) { return q, nil }}

	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "a", "b"), 31)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)

	got, err := store.Get(context.Background(), domain.ArtifactRef{Key: "32.txt"})
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestRun_BlankLineConsumesIndex(t *testing.T) {
	store := artifact.NewInMemoryStore()
	ans := &fakeAnswerer{answer: func(q string) (string, error) { return q, nil }}

	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "a", "", "c"), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Skipped: 1}, summary)

	got, err := store.Get(context.Background(), domain.ArtifactRef{Key: "3.txt"})
	require.NoError(t, err)
	assert.Equal(t, "c", got)
	blank, err := store.Get(context.Background(), domain.ArtifactRef{Key: "2.txt"})
	require.NoError(t, err)
	assert.Empty(t, blank)
	assert.Equal(t, []string{"a", "c"}, ans.calls())
}

func TestRun_BlankRecordsDoNotBreakMerge(t *testing.T) {
	store := newFileStore(t)
	ans := &fakeAnswerer{answer: func(q string) (string, error) { return "A " + q, nil }}

	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "q1", ",only a comment", "q3"), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Skipped: 1}, summary)

	out := filepath.Join(t.TempDir(), "merged.txt")
	_, err = Merge(context.Background(), store, 1, 3, out)
	require.NoError(t, err)

	merged, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A q1\n\nA q3\n", string(merged))

	again, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "q1", ",only a comment", "q3"), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, again)
}

func TestRun_AbortsOnFirstError(t *testing.T) {
	store := artifact.NewInMemoryStore()
	backendErr := errors.New("backend down")
	ans := &fakeAnswerer{answer: func(q string) (string, error) {
		if q == "q2" {
			return "", backendErr
		}
		return q, nil
	}}

	summary, err := NewRunner(ans, store, DefaultConfig()).Run(context.Background(), writeInput(t, "q1", "q2", "q3"), 1)
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "question 2")
	assert.Equal(t, Summary{Processed: 1, Failed: 1}, summary)
	assert.Equal(t, []string{"q1", "q2"}, ans.calls())
	assert.Equal(t, 1, store.Len(), "no artifact for the failed question")
}

func TestRun_ContinueOnError(t *testing.T) {
	store := artifact.NewInMemoryStore()
	ans := &fakeAnswerer{answer: func(q string) (string, error) {
		if q == "q2" {
			return "", errors.New("backend down")
		}
		return q, nil
	}}

	cfg := Config{Workers: 1, ContinueOnError: true}
	summary, err := NewRunner(ans, store, cfg).Run(context.Background(), writeInput(t, "q1", "q2", "q3"), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Failed: 1}, summary)
	assert.Equal(t, 2, store.Len())

	// The failed question is retried on the next run.
	ans.answer = func(q string) (string, error) { return q, nil }
	summary, err = NewRunner(ans, store, cfg).Run(context.Background(), writeInput(t, "q1", "q2", "q3"), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Skipped: 2}, summary)
}

func TestRun_ParallelWorkers(t *testing.T) {
	store := artifact.NewInMemoryStore()
	ans := &fakeAnswerer{
		answer: func(q string) (string, error) { return "A " + q, nil },
		delay:  20 * time.Millisecond,
	}

	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "q" + itoa(i+1)
	}

	summary, err := NewRunner(ans, store, Config{Workers: 4}).Run(context.Background(), writeInput(t, lines...), 1)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Processed)
	assert.LessOrEqual(t, ans.peak.Load(), int32(4))
	assert.Greater(t, ans.peak.Load(), int32(1))

	for i := 1; i <= 12; i++ {
		got, err := store.Get(context.Background(), domain.ArtifactRef{Key: itoa(i) + ".txt"})
		require.NoError(t, err)
		assert.Equal(t, "A q"+itoa(i), got, "artifact index matches input index")
	}
}

func TestRun_SequentialByDefault(t *testing.T) {
	ans := &fakeAnswerer{answer: func(q string) (string, error) { return q, nil }, delay: 5 * time.Millisecond}
	_, err := NewRunner(ans, artifact.NewInMemoryStore(), Config{}).Run(context.Background(), writeInput(t, "a", "b", "c"), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ans.peak.Load())
	assert.Equal(t, []string{"a", "b", "c"}, ans.calls())
}

func TestRun_MissingInput(t *testing.T) {
	_, err := NewRunner(&fakeAnswerer{}, artifact.NewInMemoryStore(), DefaultConfig()).
		Run(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), 1)
	require.Error(t, err)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ans := &fakeAnswerer{answer: func(q string) (string, error) { return q, nil }}
	_, err := NewRunner(ans, artifact.NewInMemoryStore(), Config{ContinueOnError: true}).
		Run(ctx, writeInput(t, "a", "b"), 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ans.calls())
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewInMemoryStore()
	for i, content := range []string{"first\nignored", "  second  ", "third"} {
		_, err := store.Put(ctx, content, domain.ArtifactAnswer, itoa(i+1)+".txt")
		require.NoError(t, err)
	}

	out := filepath.Join(t.TempDir(), "merged.txt")
	ref, err := Merge(ctx, store, 1, 3, out)
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactMerged, ref.Kind)
	assert.Equal(t, int64(len("first\nsecond\nthird\n")), ref.Size)
	require.NoError(t, ref.Validate())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\nthird\n", string(data))
}

func TestMerge_MissingArtifact(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewInMemoryStore()
	_, err := store.Put(ctx, "one", domain.ArtifactAnswer, "1.txt")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "merged.txt")
	_, err = Merge(ctx, store, 1, 2, out)
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)
	assert.Contains(t, err.Error(), "merge answer 2")
	assert.NoFileExists(t, out)
}

func TestMerge_InvalidRange(t *testing.T) {
	store := artifact.NewInMemoryStore()
	_, err := Merge(context.Background(), store, 0, 3, "x")
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = Merge(context.Background(), store, 5, 3, "x")
	require.ErrorIs(t, err, ErrInvalidRange)
}
