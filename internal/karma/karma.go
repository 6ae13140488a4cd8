// Package karma places a karma score on the achievement ladder.
package karma

import (
	"sort"

	"github.com/buildtalk/forum/internal/models"
)

// Progress is a user's position on the ladder.
type Progress struct {
	Current   *models.Achievement  `json:"currentAchievement"`
	Next      *models.Achievement  `json:"nextAchievement"`
	Earned    []models.Achievement `json:"earned"`
	Remaining int                  `json:"remaining"`
}

// Evaluate returns the highest achievement whose requirement is met, the
// lowest one still out of reach and every met achievement. Remaining is the
// karma still needed for Next, zero at the top of the ladder.
func Evaluate(karma int, ladder []models.Achievement) Progress {
	sorted := make([]models.Achievement, len(ladder))
	copy(sorted, ladder)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Requirement < sorted[j].Requirement
	})

	p := Progress{Earned: make([]models.Achievement, 0, len(sorted))}
	for i := range sorted {
		a := sorted[i]
		if a.Requirement <= karma {
			p.Earned = append(p.Earned, a)
			p.Current = &p.Earned[len(p.Earned)-1]
			continue
		}
		next := a
		p.Next = &next
		p.Remaining = a.Requirement - karma
		break
	}
	return p
}
