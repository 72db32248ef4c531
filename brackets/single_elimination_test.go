package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeams(n int, topRating int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := 0; i < n; i++ {
		teams[i] = &models.Team{
			ID:     fmt.Sprintf("team_%d", i+1),
			Name:   fmt.Sprintf("Team %d", i+1),
			Rating: topRating - i*100, // team_1 — сильнейший посев
		}
	}
	return teams
}

func genParams(format models.TournamentFormat, teams []*models.Team) GenerateParams {
	return GenerateParams{
		Tournament: &models.Tournament{ID: "t1", Format: format},
		Teams:      teams,
		Calculator: ratings.NewCalculator(ratings.DefaultKFactor),
	}
}

func TestSingleEliminationEightTeams(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	teams := makeTeams(8, 2000)

	matches, err := gen.Generate(context.Background(), genParams(models.FormatSingleElimination, teams))
	require.NoError(t, err)
	require.Len(t, matches, 4)

	seen := make(map[string]int)
	for _, m := range matches {
		require.NotNil(t, m.Team1ID)
		require.NotNil(t, m.Team2ID)
		seen[*m.Team1ID]++
		seen[*m.Team2ID]++
		assert.Equal(t, 1, m.Round)
		assert.Equal(t, models.MatchStatusPending, m.Status)
		assert.NotNil(t, m.Team1WinProbability)
		assert.NotNil(t, m.Team2WinProbability)
	}
	require.Len(t, seen, 8, "each team appears exactly once")
	for id, count := range seen {
		assert.Equal(t, 1, count, "team %s", id)
	}

	// Посев 1 против посева 8 в первом матче.
	first := matches[0]
	assert.Equal(t, "team_1", *first.Team1ID)
	assert.Equal(t, "team_8", *first.Team2ID)
}

// Два верхних посева должны оказаться в разных половинах сетки: при победах
// фаворитов они могут встретиться только в финале.
func TestSingleEliminationTopSeedsSeparated(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	teams := makeTeams(8, 2000)

	matches, err := gen.Generate(context.Background(), genParams(models.FormatSingleElimination, teams))
	require.NoError(t, err)
	require.Len(t, matches, 4)

	half := func(teamID string) int {
		for i, m := range matches {
			if m.HasParticipant(teamID) {
				return i / 2 // матчи 1-2 — верхняя половина, 3-4 — нижняя
			}
		}
		t.Fatalf("team %s not found in round 1", teamID)
		return -1
	}

	assert.NotEqual(t, half("team_1"), half("team_2"))
}

func TestSingleEliminationByes(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	teams := makeTeams(6, 2000) // сетка на 8, два bye

	matches, err := gen.Generate(context.Background(), genParams(models.FormatSingleElimination, teams))
	require.NoError(t, err)
	require.Len(t, matches, 4)

	var byes, played int
	for _, m := range matches {
		if m.IsBye() {
			byes++
			assert.Equal(t, models.MatchStatusCompleted, m.Status)
			require.NotNil(t, m.WinnerID)
			assert.Equal(t, *m.Team1ID, *m.WinnerID)
		} else {
			played++
		}
	}
	assert.Equal(t, 2, byes, "lowest seeds get byes")
	assert.Equal(t, 2, played)

	// Bye достаётся верхним посевам (1 и 2), играют младшие.
	for _, m := range matches {
		if m.IsBye() {
			assert.Contains(t, []string{"team_1", "team_2"}, *m.Team1ID)
		}
	}
}

func TestSingleEliminationTooFewTeams(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.Generate(context.Background(), genParams(models.FormatSingleElimination, makeTeams(1, 1500)))
	assert.Error(t, err)
}

func TestNextEliminationRoundPairsWinnersInOrder(t *testing.T) {
	tournament := &models.Tournament{ID: "t1"}
	winners := makeTeams(4, 1800)

	matches := NextEliminationRound(tournament, winners, 2, "", ratings.NewCalculator(32))

	require.Len(t, matches, 2)
	assert.Equal(t, "r2_m1", matches[0].ID)
	assert.Equal(t, "team_1", *matches[0].Team1ID)
	assert.Equal(t, "team_2", *matches[0].Team2ID)
	assert.Equal(t, "team_3", *matches[1].Team1ID)
	assert.Equal(t, "team_4", *matches[1].Team2ID)
}

func TestNextEliminationRoundDropsUnpairedWinner(t *testing.T) {
	tournament := &models.Tournament{ID: "t1"}
	winners := makeTeams(3, 1800) // нечётное число после брошенного матча

	matches := NextEliminationRound(tournament, winners, 2, "", ratings.NewCalculator(32))
	require.Len(t, matches, 1)
}

func TestSeedPositions(t *testing.T) {
	assert.Equal(t, []int{0, 1}, seedPositions(2))
	assert.Equal(t, []int{0, 3, 1, 2}, seedPositions(4))
	assert.Equal(t, []int{0, 7, 3, 4, 1, 6, 2, 5}, seedPositions(8))
}
