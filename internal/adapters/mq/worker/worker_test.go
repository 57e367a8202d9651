package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/clout/internal/adapters/mq/queue"
	"github.com/okian/clout/internal/adapters/mq/worker"
	"github.com/okian/clout/internal/domain/dedupe"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/verification"
	logging "github.com/okian/clout/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

type mockQueue struct {
	jobs chan model.VerificationJob
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan model.VerificationJob, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.VerificationJob { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

func (mq *mockQueue) add(eventID string) {
	mq.jobs <- model.VerificationJob{EventID: eventID, Reason: "test", EnqueuedAt: time.Now()}
}

type mockVerifier struct {
	mu     sync.Mutex
	calls  []string
	errors map[string]error
}

func newMockVerifier() *mockVerifier {
	return &mockVerifier{errors: map[string]error{}}
}

func (m *mockVerifier) VerifyPicksForEvent(_ context.Context, eventID string) (verification.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, eventID)
	if err := m.errors[eventID]; err != nil {
		return verification.Report{EventID: eventID}, err
	}
	return verification.Report{EventID: eventID, Considered: 1, Verified: 1}, nil
}

func (m *mockVerifier) setError(eventID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[eventID] = err
}

func (m *mockVerifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		v := newMockVerifier()
		d := dedupe.NewInMemoryDeduper()
		w := worker.NewInMemoryWorker(q, v, worker.WithName("test-worker"), worker.WithReleaser(d))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is processed", func() {
			d.SeenAndRecord(ctx, "event-1")
			q.add("event-1")

			convey.Convey("Then the event is verified and released from the dedupe set", func() {
				convey.So(waitFor(func() bool { return v.callCount() == 1 && d.Size() == 0 }), convey.ShouldBeTrue)
				convey.So(d.SeenAndRecord(ctx, "event-1"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When verification fails", func() {
			v.setError("event-2", errors.New("store down"))
			d.SeenAndRecord(ctx, "event-2")
			q.add("event-2")
			q.add("event-3")

			convey.Convey("Then the worker keeps going and still releases the failed event", func() {
				convey.So(waitFor(func() bool { return v.callCount() == 2 && d.Size() == 0 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, newMockVerifier())
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("worker did not stop")
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		v := newMockVerifier()
		pool := worker.NewPool(4, q, v)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs are enqueued concurrently", func() {
			var wg sync.WaitGroup
			for i := range 5 {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					for j := range 10 {
						q.Enqueue(ctx, model.VerificationJob{EventID: fmt.Sprintf("e-%d-%d", n, j)})
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then shutdown drains every job", func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(v.callCount(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockVerifier())

		convey.Convey("Then a single worker is created", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 1)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
