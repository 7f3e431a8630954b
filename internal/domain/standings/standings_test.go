package standings_test

import (
	"testing"
	"time"

	"github.com/okian/toto/internal/domain/model"
	"github.com/okian/toto/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id, userID string, points int) model.Prediction {
	p := model.NewPrediction(id, userID, "m-"+id, 1, 0, time.Now())
	p.Points = &points
	return p
}

func pending(id, userID string) model.Prediction {
	return model.NewPrediction(id, userID, "m-"+id, 1, 0, time.Now())
}

func TestCompute(t *testing.T) {
	Convey("Given no predictions", t, func() {
		So(standings.Compute(nil, nil), ShouldBeEmpty)
	})

	Convey("Given users with tied and distinct totals", t, func() {
		predictions := []model.Prediction{
			scored("1", "alice", 3),
			scored("2", "alice", 3),
			scored("3", "alice", 3),
			scored("4", "bob", 3),
			scored("5", "bob", 3),
			scored("6", "bob", 3),
			scored("7", "carol", 3),
			scored("8", "carol", 3),
			scored("9", "carol", 0),
		}
		rows := standings.Compute(predictions, map[string]string{
			"alice": "Alice",
			"bob":   "Bob",
			"carol": "Carol",
		})

		Convey("Then equal points share a rank and the next resumes at position", func() {
			So(rows, ShouldHaveLength, 3)
			So(rows[0].UserID, ShouldEqual, "alice")
			So(rows[0].Rank, ShouldEqual, 1)
			So(rows[1].UserID, ShouldEqual, "bob")
			So(rows[1].Rank, ShouldEqual, 1)
			So(rows[2].UserID, ShouldEqual, "carol")
			So(rows[2].Rank, ShouldEqual, 3)
		})

		Convey("Then display names are resolved", func() {
			So(rows[0].Name, ShouldEqual, "Alice")
			So(rows[2].Name, ShouldEqual, "Carol")
		})

		Convey("Then ties break by ascending user ID for determinism", func() {
			So(rows[0].UserID, ShouldBeLessThan, rows[1].UserID)
		})
	})

	Convey("Given scored and pending predictions for one user", t, func() {
		predictions := []model.Prediction{
			scored("1", "alice", 3),
			scored("2", "alice", 1),
			scored("3", "alice", 0),
			pending("4", "alice"),
		}
		rows := standings.Compute(predictions, nil)

		Convey("Then total points is the sum of individual prediction points", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Points, ShouldEqual, 4)
		})

		Convey("Then correct counts only predictions with points", func() {
			So(rows[0].CorrectPredictions, ShouldEqual, 2)
		})

		Convey("Then pending predictions count toward the denominator", func() {
			So(rows[0].TotalPredictions, ShouldEqual, 4)
		})
	})

	Convey("Given a large prediction set", t, func() {
		var predictions []model.Prediction
		want := 0
		for i := 0; i < 500; i++ {
			pts := i % 4 // 0..3
			predictions = append(predictions, scored(itoa(i), "alice", pts))
			want += pts
		}
		rows := standings.Compute(predictions, nil)

		Convey("Then sum-consistency holds", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Points, ShouldEqual, want)
			So(rows[0].TotalPredictions, ShouldEqual, 500)
		})
	})
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
