// Package standings derives the ranked leaderboard from predictions.
//
// Standings are a view, not a source of truth: they are recomputed on
// demand from the full prediction set rather than kept as mutable
// counters.
package standings

import (
	"sort"

	"github.com/okian/toto/internal/domain/model"
)

// Row is one leaderboard entry.
type Row struct {
	Rank               int
	UserID             string
	Name               string
	Points             int
	CorrectPredictions int
	TotalPredictions   int
}

// Compute groups predictions by user and ranks users by total points.
//
// Unscored predictions count toward TotalPredictions but contribute no
// points, so the success-rate denominator reflects participation.
// Ordering is points descending with ties broken by ascending user ID.
// Ranks use competition ranking: equal points share a rank and the next
// distinct total resumes at its list position.
func Compute(predictions []model.Prediction, names map[string]string) []Row {
	byUser := make(map[string]*Row)
	for _, p := range predictions {
		row, ok := byUser[p.UserID]
		if !ok {
			row = &Row{UserID: p.UserID, Name: names[p.UserID]}
			byUser[p.UserID] = row
		}
		row.TotalPredictions++
		if p.Points != nil {
			row.Points += *p.Points
			if *p.Points > 0 {
				row.CorrectPredictions++
			}
		}
	}

	rows := make([]Row, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].UserID < rows[j].UserID
	})

	for i := range rows {
		if i > 0 && rows[i].Points == rows[i-1].Points {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}
