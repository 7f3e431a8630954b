package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/toto/internal/adapters/repository"
	service "github.com/okian/toto/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeClock is a settable time source shared with the service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func startService(t *testing.T, clock *fakeClock) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithStore(repository.NewMemoryStore()),
		service.WithWorkerCount(2),
		service.WithClock(clock.Now),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceMatches(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC)}
	kickoff := clock.Now().Add(3 * time.Hour)

	Convey("Given a running service", t, func() {
		svc := startService(t, clock)

		Convey("When a fixture is created", func() {
			m, err := svc.CreateMatch(ctx, "Arsenal", "Chelsea", "Premier League", kickoff)
			So(err, ShouldBeNil)
			So(m.ID, ShouldNotBeEmpty)
			So(m.Status, ShouldEqual, "scheduled")
			So(m.Score, ShouldBeNil)

			Convey("Then it shows up in the upcoming list", func() {
				upcoming, err := svc.UpcomingMatches(ctx)
				So(err, ShouldBeNil)
				So(upcoming, ShouldHaveLength, 1)
				So(upcoming[0].ID, ShouldEqual, m.ID)
			})

			Convey("Then it can be fetched by ID", func() {
				got, err := svc.Match(ctx, m.ID)
				So(err, ShouldBeNil)
				So(got.HomeTeam, ShouldEqual, "Arsenal")
			})
		})

		Convey("When a fixture is missing a team", func() {
			_, err := svc.CreateMatch(ctx, " ", "Chelsea", "Premier League", kickoff)

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, service.ErrInvalidMatch)
			})
		})

		Convey("When fetching an unknown fixture", func() {
			_, err := svc.Match(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrMatchNotFound)
		})
	})
}

func TestServicePredictions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a scheduled fixture", t, func() {
		clock := &fakeClock{now: time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC)}
		svc := startService(t, clock)
		m, err := svc.CreateMatch(ctx, "Arsenal", "Chelsea", "Premier League", clock.Now().Add(3*time.Hour))
		So(err, ShouldBeNil)

		Convey("When a prediction is submitted before kickoff", func() {
			p, err := svc.SubmitPrediction(ctx, "alice", m.ID, 2, 1)
			So(err, ShouldBeNil)
			So(p.Points, ShouldBeNil)

			Convey("Then it is retrievable", func() {
				got, err := svc.PredictionFor(ctx, "alice", m.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, p.ID)
			})

			Convey("Then a second submission for the same pair is rejected", func() {
				_, err := svc.SubmitPrediction(ctx, "alice", m.ID, 0, 0)
				So(err, ShouldWrap, repository.ErrDuplicatePrediction)

				got, err := svc.PredictionFor(ctx, "alice", m.ID)
				So(err, ShouldBeNil)
				So(got.HomeGoals, ShouldEqual, 2)
				So(got.AwayGoals, ShouldEqual, 1)
			})
		})

		Convey("When goals are negative", func() {
			_, err := svc.SubmitPrediction(ctx, "alice", m.ID, -1, 0)
			So(err, ShouldWrap, service.ErrInvalidPrediction)
		})

		Convey("When the match is unknown", func() {
			_, err := svc.SubmitPrediction(ctx, "alice", "ghost", 1, 0)
			So(err, ShouldWrap, repository.ErrMatchNotFound)
		})

		Convey("When the clock reaches kickoff", func() {
			clock.Set(clock.Now().Add(3 * time.Hour))

			Convey("Then submissions are locked", func() {
				_, err := svc.SubmitPrediction(ctx, "alice", m.ID, 2, 1)
				So(err, ShouldWrap, service.ErrMatchLocked)
			})
		})

		Convey("When the match has gone live", func() {
			So(svc.MarkLive(ctx, m.ID), ShouldBeNil)

			Convey("Then submissions are locked even before kickoff time", func() {
				_, err := svc.SubmitPrediction(ctx, "bob", m.ID, 1, 1)
				So(err, ShouldWrap, service.ErrMatchLocked)
			})
		})
	})
}

func TestServiceResults(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a live fixture", t, func() {
		clock := &fakeClock{now: time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC)}
		svc := startService(t, clock)
		m, err := svc.CreateMatch(ctx, "Arsenal", "Chelsea", "Premier League", clock.Now().Add(time.Hour))
		So(err, ShouldBeNil)
		So(svc.MarkLive(ctx, m.ID), ShouldBeNil)

		Convey("When a result is recorded", func() {
			got, err := svc.RecordResult(ctx, m.ID, 2, 1)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, "finished")
			So(got.Score, ShouldNotBeNil)
			So(got.Score.HomeGoals, ShouldEqual, 2)

			Convey("Then a conflicting second result is rejected", func() {
				_, err := svc.RecordResult(ctx, m.ID, 3, 0)
				So(err, ShouldWrap, repository.ErrInvalidState)
			})

			Convey("Then resubmitting the identical result is accepted", func() {
				again, err := svc.RecordResult(ctx, m.ID, 2, 1)
				So(err, ShouldBeNil)
				So(again.Status, ShouldEqual, "finished")
				So(again.Score.HomeGoals, ShouldEqual, 2)
			})
		})

		Convey("When the scoreline is negative", func() {
			_, err := svc.RecordResult(ctx, m.ID, -1, 0)
			So(err, ShouldWrap, service.ErrInvalidResult)
		})

		Convey("When a result targets a scheduled fixture", func() {
			other, err := svc.CreateMatch(ctx, "Leeds", "Spurs", "Premier League", clock.Now().Add(time.Hour))
			So(err, ShouldBeNil)

			_, err = svc.RecordResult(ctx, other.ID, 1, 0)
			So(err, ShouldWrap, repository.ErrInvalidState)
		})
	})
}

func TestServiceProfile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registered user", t, func() {
		clock := &fakeClock{now: time.Date(2026, time.April, 4, 12, 0, 0, 0, time.UTC)}
		svc := startService(t, clock)
		u, err := svc.RegisterUser(ctx, "Alice", "alice@example.com")
		So(err, ShouldBeNil)

		Convey("Then the profile reflects the record", func() {
			p, err := svc.Profile(ctx, u.UserID)
			So(err, ShouldBeNil)
			So(p.Username, ShouldEqual, "Alice")
			So(p.Stats.TotalPredictions, ShouldEqual, 0)
			So(p.RecentPredictions, ShouldBeEmpty)
		})

		Convey("When the email is updated", func() {
			p, err := svc.UpdateProfileEmail(ctx, u.UserID, "new@example.com")
			So(err, ShouldBeNil)
			So(p.Email, ShouldEqual, "new@example.com")
		})

		Convey("When the new email is malformed", func() {
			_, err := svc.UpdateProfileEmail(ctx, u.UserID, "not-an-email")
			So(err, ShouldWrap, service.ErrInvalidProfile)
		})

		Convey("When the user is unknown", func() {
			_, err := svc.Profile(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrUserNotFound)
		})

		Convey("When registration has a malformed email", func() {
			_, err := svc.RegisterUser(ctx, "Bob", "not-an-email")
			So(err, ShouldWrap, service.ErrInvalidProfile)
		})

		Convey("When registration is missing the name", func() {
			_, err := svc.RegisterUser(ctx, " ", "bob@example.com")
			So(err, ShouldWrap, service.ErrInvalidProfile)
		})
	})
}
