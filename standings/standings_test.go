package standings

import (
	"testing"

	"github.com/joegr/turny/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func team(id string, wins, losses, draws, points, goalsFor, goalsAgainst int) *models.Team {
	return &models.Team{
		ID:           id,
		Name:         "Team " + id,
		Wins:         wins,
		Losses:       losses,
		Draws:        draws,
		Points:       points,
		GoalsFor:     goalsFor,
		GoalsAgainst: goalsAgainst,
	}
}

func TestComputeSortsByPoints(t *testing.T) {
	teams := []*models.Team{
		team("a", 1, 2, 0, 3, 4, 6),
		team("b", 3, 0, 0, 9, 8, 2),
		team("c", 2, 1, 0, 6, 5, 4),
	}

	rows := Compute(teams, true)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID})
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank})
}

func TestComputeSortsByWinsWhenDrawsDisallowed(t *testing.T) {
	// Очки не ведутся: первичный ключ — победы.
	teams := []*models.Team{
		team("a", 1, 2, 0, 0, 0, 0),
		team("b", 3, 0, 0, 0, 0, 0),
	}

	rows := Compute(teams, false)
	assert.Equal(t, "b", rows[0].TeamID)
}

func TestGoalDifferenceTiebreak(t *testing.T) {
	teams := []*models.Team{
		team("a", 2, 1, 0, 6, 4, 4), // GD 0
		team("b", 2, 1, 0, 6, 7, 3), // GD +4
	}

	rows := Compute(teams, true)
	assert.Equal(t, "b", rows[0].TeamID)
}

func TestGoalsForTiebreak(t *testing.T) {
	teams := []*models.Team{
		team("a", 2, 1, 0, 6, 3, 3),
		team("b", 2, 1, 0, 6, 7, 7),
	}

	rows := Compute(teams, true)
	assert.Equal(t, "b", rows[0].TeamID)
}

func TestFullTieIsStable(t *testing.T) {
	// Полностью равные команды сохраняют исходный порядок и получают разные ранги.
	teams := []*models.Team{
		team("first", 1, 1, 1, 4, 5, 5),
		team("second", 1, 1, 1, 4, 5, 5),
	}

	rows := Compute(teams, true)
	assert.Equal(t, "first", rows[0].TeamID)
	assert.Equal(t, "second", rows[1].TeamID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestWinRate(t *testing.T) {
	rows := Compute([]*models.Team{team("a", 2, 1, 0, 6, 0, 0)}, false)
	assert.InDelta(t, 66.7, rows[0].WinRate, 0.01)

	rows = Compute([]*models.Team{team("b", 0, 0, 0, 0, 0, 0)}, false)
	assert.Zero(t, rows[0].WinRate)
}

func TestComputeGroupsIsolated(t *testing.T) {
	groupA, groupB := "A", "B"
	strong := team("strong", 3, 0, 0, 9, 9, 0)
	strong.Group = &groupA
	weak := team("weak", 0, 3, 0, 0, 0, 9)
	weak.Group = &groupA
	mid := team("mid", 1, 2, 0, 3, 3, 5)
	mid.Group = &groupB
	ungrouped := team("none", 5, 0, 0, 15, 10, 0)

	groups := ComputeGroups([]*models.Team{strong, weak, mid, ungrouped}, true)

	require.Len(t, groups, 2)
	require.Len(t, groups["A"], 2)
	require.Len(t, groups["B"], 1)
	// Ранги считаются внутри группы, межгрупповых сравнений нет.
	assert.Equal(t, 1, groups["A"][0].Rank)
	assert.Equal(t, 1, groups["B"][0].Rank)
	assert.Equal(t, "mid", groups["B"][0].TeamID)
}
