package downloader

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/models"
)

// mockProcessor records calls and returns canned outcomes
type mockProcessor struct {
	delay       time.Duration
	extras      []*models.MaterialItem
	callCounter int32
	current     int32
	maxSeen     int32
	onCall      func(ctx context.Context, item *models.MaterialItem)
}

func (m *mockProcessor) Process(ctx context.Context, item *models.MaterialItem) (models.Outcome, []*models.MaterialItem) {
	atomic.AddInt32(&m.callCounter, 1)

	cur := atomic.AddInt32(&m.current, 1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, cur) {
			break
		}
	}
	defer atomic.AddInt32(&m.current, -1)

	if m.onCall != nil {
		m.onCall(ctx, item)
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	return models.Outcome{Item: item, Status: models.StatusWritten, Bytes: 10}, m.extras
}

func (m *mockProcessor) CallCount() int {
	return int(atomic.LoadInt32(&m.callCounter))
}

func testItem(id int64) *models.MaterialItem {
	return &models.MaterialItem{ID: id, SubjectID: 1, Kind: models.KindLessonPage, TreeIndex: int(id)}
}

func TestWorkerPoolProcessesAllJobs(t *testing.T) {
	proc := &mockProcessor{delay: 5 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 3, proc, logger.NewNopLogger())
	pool.Start()

	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 12
	for i := 0; i < numJobs; i++ {
		if err := pool.Submit(Job{Item: testItem(int64(i + 1))}); err != nil {
			t.Errorf("Submit(%d) error = %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	if len(results) != numJobs {
		t.Fatalf("got %d results, want %d", len(results), numJobs)
	}
	for _, result := range results {
		if result.Outcome.Status != models.StatusWritten {
			t.Errorf("status = %v, want %v", result.Outcome.Status, models.StatusWritten)
		}
		if result.Outcome.Duration <= 0 {
			t.Error("result duration not recorded")
		}
	}
	if proc.CallCount() != numJobs {
		t.Errorf("processor called %d times, want %d", proc.CallCount(), numJobs)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	proc := &mockProcessor{delay: 50 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 3, proc, logger.NewNopLogger())
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range pool.Results() {
		}
	}()

	for i := 0; i < 9; i++ {
		if err := pool.Submit(Job{Item: testItem(int64(i + 1))}); err != nil {
			t.Errorf("Submit(%d) error = %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	maxSeen := int(atomic.LoadInt32(&proc.maxSeen))
	if maxSeen > 3 {
		t.Errorf("saw %d concurrent jobs, pool limit is 3", maxSeen)
	}
	if maxSeen < 2 {
		t.Errorf("saw %d concurrent jobs, expected parallel processing", maxSeen)
	}
}

func TestWorkerPoolExtrasFlowThrough(t *testing.T) {
	extras := []*models.MaterialItem{
		{ID: 501, SubjectID: 1, Kind: models.KindAsset},
		{ID: 601, SubjectID: 1, Kind: models.KindDocument},
	}
	proc := &mockProcessor{extras: extras}
	pool := NewWorkerPool(context.Background(), 1, proc, logger.NewNopLogger())
	pool.Start()

	if err := pool.Submit(Job{Item: testItem(1)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	result := <-pool.Results()
	pool.Stop()

	if len(result.Extras) != 2 {
		t.Fatalf("got %d extras, want 2", len(result.Extras))
	}
	if result.Extras[0].ID != 501 || result.Extras[1].ID != 601 {
		t.Errorf("unexpected extras: %+v", result.Extras)
	}
}

func TestWorkerPoolDrainsQueueOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	gate := make(chan struct{})
	proc := &mockProcessor{onCall: func(ctx context.Context, item *models.MaterialItem) {
		close(started)
		<-gate
	}}

	pool := NewWorkerPool(ctx, 1, proc, logger.NewNopLogger())
	pool.Start()

	// First job occupies the single worker; two more wait in the queue.
	if err := pool.Submit(Job{Item: testItem(1)}); err != nil {
		t.Fatalf("Submit(1) error = %v", err)
	}
	<-started
	if err := pool.Submit(Job{Item: testItem(2)}); err != nil {
		t.Fatalf("Submit(2) error = %v", err)
	}
	if err := pool.Submit(Job{Item: testItem(3)}); err != nil {
		t.Fatalf("Submit(3) error = %v", err)
	}

	cancel()
	close(gate)

	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	pool.Stop()
	wg.Wait()

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (queued jobs must still report)", len(results))
	}

	cancelled := 0
	for _, result := range results {
		if result.Outcome.Status == models.StatusCancelled {
			cancelled++
			if result.Outcome.Err == nil {
				t.Error("cancelled outcome missing error")
			}
		}
	}
	if cancelled != 2 {
		t.Errorf("got %d cancelled results, want 2", cancelled)
	}
	if proc.CallCount() != 1 {
		t.Errorf("processor called %d times, want 1", proc.CallCount())
	}
}

func TestWorkerPoolSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc := &mockProcessor{}
	pool := NewWorkerPool(ctx, 2, proc, logger.NewNopLogger())
	pool.Start()

	cancel()

	if err := pool.Submit(Job{Item: testItem(1)}); err == nil {
		t.Error("Submit() after cancel expected error")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range pool.Results() {
		}
	}()
	pool.Stop()
	wg.Wait()
}

func TestWorkerPoolQueueSize(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	// onCall fires again for the queued job once the gate opens, so the
	// close must be idempotent.
	var startedOnce sync.Once
	proc := &mockProcessor{onCall: func(ctx context.Context, item *models.MaterialItem) {
		startedOnce.Do(func() { close(started) })
		<-gate
	}}

	pool := NewWorkerPool(context.Background(), 1, proc, logger.NewNopLogger())
	pool.Start()

	if err := pool.Submit(Job{Item: testItem(1)}); err != nil {
		t.Fatalf("Submit(1) error = %v", err)
	}
	<-started
	if err := pool.Submit(Job{Item: testItem(2)}); err != nil {
		t.Fatalf("Submit(2) error = %v", err)
	}

	if size := pool.QueueSize(); size != 1 {
		t.Errorf("QueueSize() = %d, want 1", size)
	}

	close(gate)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range pool.Results() {
		}
	}()
	pool.Stop()
	wg.Wait()
}
