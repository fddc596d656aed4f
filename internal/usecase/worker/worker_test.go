package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/internal/infrastructure/queue"
	"github.com/narrowsfm/podgraph/internal/usecase/pipeline"
)

type fakeQueue struct {
	mu       sync.Mutex
	tasks    []*queue.EpisodeTask
	enqueued []string
}

func (q *fakeQueue) Enqueue(_ context.Context, episodeID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, episodeID)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (*queue.EpisodeTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, ctx.Err()
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, nil
}

type fakeLedger struct {
	mu   sync.Mutex
	jobs map[string]*entities.PipelineJob
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{jobs: make(map[string]*entities.PipelineJob)}
}

func (l *fakeLedger) CreateJob(_ context.Context, job *entities.PipelineJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs[job.EpisodeID] = job
	return nil
}

func (l *fakeLedger) GetLatestJobByEpisodeID(_ context.Context, episodeID string) (*entities.PipelineJob, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jobs[episodeID], nil
}

func (l *fakeLedger) UpdateJob(_ context.Context, job *entities.PipelineJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs[job.EpisodeID] = job
	return nil
}

type fakeProcessor struct {
	result *pipeline.Result
	err    error
}

func (p *fakeProcessor) ProcessEpisode(_ context.Context, episodeID string) (*pipeline.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	res := *p.result
	res.EpisodeID = episodeID
	return &res, nil
}

func runOneTask(t *testing.T, q *fakeQueue, ledger *fakeLedger, proc Processor) {
	t.Helper()
	pool := NewPool(q, ledger, proc, 1, zap.NewNop())
	pool.sleep = func(time.Duration) {}
	pool.handleTask(context.Background(), 0, &queue.EpisodeTask{EpisodeID: "ep_1"})
}

func TestHandleTaskCompletedJob(t *testing.T) {
	q := &fakeQueue{}
	ledger := newFakeLedger()
	proc := &fakeProcessor{result: &pipeline.Result{
		DurationSec:  300,
		ChapterCount: 3,
		SegmentCount: 8,
		ChunkCount:   9,
		IngestionIDs: []string{"ing_1"},
	}}

	runOneTask(t, q, ledger, proc)

	job := ledger.jobs["ep_1"]
	require.NotNil(t, job)
	assert.Equal(t, entities.PipelineJobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.Metadata.Data().ChapterCount)
	assert.Equal(t, []string{"ing_1"}, job.Metadata.Data().IngestionIDs)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, q.enqueued)
}

func TestHandleTaskSkippedJob(t *testing.T) {
	q := &fakeQueue{}
	ledger := newFakeLedger()
	proc := &fakeProcessor{result: &pipeline.Result{Skipped: true, SkipReason: "transcript missing"}}

	runOneTask(t, q, ledger, proc)

	job := ledger.jobs["ep_1"]
	require.NotNil(t, job)
	assert.Equal(t, entities.PipelineJobStatusSkipped, job.Status)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "transcript missing", *job.LastError)
	assert.Empty(t, q.enqueued)
}

func TestHandleTaskRetryableFailureRequeues(t *testing.T) {
	q := &fakeQueue{}
	ledger := newFakeLedger()
	proc := &fakeProcessor{err: fmt.Errorf("narrows: connection refused")}

	runOneTask(t, q, ledger, proc)

	job := ledger.jobs["ep_1"]
	require.NotNil(t, job)
	assert.Equal(t, entities.PipelineJobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, []string{"ep_1"}, q.enqueued)
}

func TestHandleTaskNonRetryableFailureDoesNotRequeue(t *testing.T) {
	q := &fakeQueue{}
	ledger := newFakeLedger()
	proc := &fakeProcessor{err: fmt.Errorf("malformed transcript payload")}

	runOneTask(t, q, ledger, proc)

	job := ledger.jobs["ep_1"]
	require.NotNil(t, job)
	assert.Equal(t, entities.PipelineJobStatusFailed, job.Status)
	assert.Empty(t, q.enqueued)
}

func TestHandleTaskRetriesExhausted(t *testing.T) {
	q := &fakeQueue{}
	ledger := newFakeLedger()
	existing := entities.NewPipelineJob("ep_1")
	existing.RetryCount = existing.MaxRetries - 1
	existing.Status = entities.PipelineJobStatusFailed
	require.NoError(t, ledger.CreateJob(context.Background(), existing))

	proc := &fakeProcessor{err: fmt.Errorf("narrows: connection refused")}
	runOneTask(t, q, ledger, proc)

	job := ledger.jobs["ep_1"]
	assert.Equal(t, entities.PipelineJobStatusFailed, job.Status)
	assert.Equal(t, job.MaxRetries, job.RetryCount)
	assert.Empty(t, q.enqueued)
}

func TestClaimJobReusesFailedJob(t *testing.T) {
	ledger := newFakeLedger()
	existing := entities.NewPipelineJob("ep_1")
	existing.Status = entities.PipelineJobStatusFailed
	existing.RetryCount = 1
	require.NoError(t, ledger.CreateJob(context.Background(), existing))

	pool := NewPool(&fakeQueue{}, ledger, &fakeProcessor{}, 1, zap.NewNop())
	job, err := pool.claimJob(context.Background(), "ep_1")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, job.ID)
	assert.Equal(t, entities.PipelineJobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.RetryCount)
}

func TestClaimJobCreatesFreshAfterTerminalJob(t *testing.T) {
	ledger := newFakeLedger()
	existing := entities.NewPipelineJob("ep_1")
	existing.Status = entities.PipelineJobStatusCompleted
	require.NoError(t, ledger.CreateJob(context.Background(), existing))

	pool := NewPool(&fakeQueue{}, ledger, &fakeProcessor{}, 1, zap.NewNop())
	job, err := pool.claimJob(context.Background(), "ep_1")

	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, job.ID)
	assert.Equal(t, entities.PipelineJobStatusProcessing, job.Status)
}

func TestPoolProcessesQueuedTasks(t *testing.T) {
	q := &fakeQueue{tasks: []*queue.EpisodeTask{
		{EpisodeID: "ep_1"},
		{EpisodeID: "ep_2"},
	}}
	ledger := newFakeLedger()
	proc := &fakeProcessor{result: &pipeline.Result{ChapterCount: 1}}

	pool := NewPool(q, ledger, proc, 2, zap.NewNop())
	pool.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	require.Eventually(t, func() bool {
		ledger.mu.Lock()
		defer ledger.mu.Unlock()
		return len(ledger.jobs) == 2 &&
			ledger.jobs["ep_1"].Status == entities.PipelineJobStatusCompleted &&
			ledger.jobs["ep_2"].Status == entities.PipelineJobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	pool.Wait()
}
