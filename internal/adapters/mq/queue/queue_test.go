package queue_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/okian/toto/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh queue", t, func() {
		q := queue.NewInMemoryQueue()

		Convey("When a job is enqueued", func() {
			ok := q.Enqueue(ctx, queue.Job{MatchID: "m1", TriggeredAt: time.Now()})

			Convey("Then it is accepted and counted", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})

			Convey("Then it comes back out via Dequeue", func() {
				select {
				case job := <-q.Dequeue(ctx):
					So(job.MatchID, ShouldEqual, "m1")
				case <-time.After(time.Second):
					t.Fatal("dequeue timed out")
				}
			})
		})
	})

	Convey("Given a queue at capacity", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithBufferSize(2))
		So(q.Enqueue(ctx, queue.Job{MatchID: "m1"}), ShouldBeTrue)
		So(q.Enqueue(ctx, queue.Job{MatchID: "m2"}), ShouldBeTrue)

		Convey("Then the next enqueue is rejected without blocking", func() {
			So(q.Enqueue(ctx, queue.Job{MatchID: "m3"}), ShouldBeFalse)
			So(q.Len(ctx), ShouldEqual, 2)
		})
	})

	Convey("Given a closed queue", t, func() {
		q := queue.NewInMemoryQueue()
		So(q.Enqueue(ctx, queue.Job{MatchID: "m1"}), ShouldBeTrue)
		So(q.Close(), ShouldBeNil)

		Convey("Then it reports closed and rejects new jobs", func() {
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{MatchID: "m2"}), ShouldBeFalse)
		})

		Convey("Then closing again is a no-op", func() {
			So(q.Close(), ShouldBeNil)
		})

		Convey("Then buffered jobs drain before the channel closes", func() {
			out := q.Dequeue(ctx)
			job, ok := <-out
			So(ok, ShouldBeTrue)
			So(job.MatchID, ShouldEqual, "m1")
			_, ok = <-out
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given many producers and one consumer", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000), queue.WithBufferSize(1000))
		const jobs = 200
		for i := 0; i < jobs; i++ {
			go q.Enqueue(ctx, queue.Job{MatchID: "m-" + strconv.Itoa(i)})
		}

		Convey("Then every job is delivered exactly once", func() {
			seen := make(map[string]bool, jobs)
			out := q.Dequeue(ctx)
			for i := 0; i < jobs; i++ {
				select {
				case job := <-out:
					So(seen[job.MatchID], ShouldBeFalse)
					seen[job.MatchID] = true
				case <-time.After(2 * time.Second):
					t.Fatal("dequeue timed out")
				}
			}
			So(len(seen), ShouldEqual, jobs)
		})
	})
}
