package brackets

import (
	"context"
	"testing"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hybridTournament(numGroups int) *models.Tournament {
	return &models.Tournament{
		ID:                   "t1",
		Format:               models.FormatHybrid,
		NumGroups:            numGroups,
		TeamsPerGroupAdvance: 2,
		AllowDraws:           true,
		KnockoutType:         models.KnockoutSingleElimination,
	}
}

func TestHybridGroupStageEightTeamsTwoGroups(t *testing.T) {
	gen := NewHybridGenerator()
	teams := makeTeams(8, 2000)
	params := GenerateParams{
		Tournament: hybridTournament(2),
		Teams:      teams,
		Calculator: ratings.NewCalculator(32),
	}

	matches, err := gen.Generate(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, matches, 12, "6 matches per group of 4")

	perGroup := make(map[string]int)
	for _, m := range matches {
		require.NotNil(t, m.Group)
		assert.Equal(t, models.StageGroup, m.Stage)
		perGroup[*m.Group]++
	}
	assert.Equal(t, map[string]int{"A": 6, "B": 6}, perGroup)

	groupSizes := make(map[string]int)
	for _, team := range teams {
		require.NotNil(t, team.Group)
		groupSizes[*team.Group]++
	}
	assert.Equal(t, map[string]int{"A": 4, "B": 4}, groupSizes)
}

func TestAssignGroupsBalancesSizes(t *testing.T) {
	teams := makeTeams(7, 2000)

	groups := AssignGroups(teams, 3)

	total := 0
	var sizes []int
	for _, groupTeams := range groups {
		sizes = append(sizes, len(groupTeams))
		total += len(groupTeams)
	}
	assert.Equal(t, 7, total)
	for _, size := range sizes {
		assert.InDelta(t, 7.0/3.0, float64(size), 1.0, "group sizes differ by at most one")
	}

	// Сильнейшие посевы расходятся по разным группам.
	assert.NotEqual(t, *teams[0].Group, *teams[1].Group)
	assert.NotEqual(t, *teams[1].Group, *teams[2].Group)
}

func TestAssignGroupsKeepsExplicitAssignment(t *testing.T) {
	teams := makeTeams(4, 2000)
	groupB := "B"
	teams[0].Group = &groupB

	groups := AssignGroups(teams, 2)

	assert.Contains(t, idsOf(groups["B"]), "team_1")
}

func TestHybridRequiresEnoughTeams(t *testing.T) {
	gen := NewHybridGenerator()
	params := GenerateParams{
		Tournament: hybridTournament(4),
		Teams:      makeTeams(6, 2000),
		Calculator: ratings.NewCalculator(32),
	}
	_, err := gen.Generate(context.Background(), params)
	assert.Error(t, err)
}

func TestGenerateKnockoutBracket(t *testing.T) {
	tournament := hybridTournament(2)
	advancing := makeTeams(4, 1900)

	matches, err := GenerateKnockoutBracket(tournament, advancing, 4, ratings.NewCalculator(32))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	for _, m := range matches {
		assert.Equal(t, models.StageKnockout, m.Stage)
		assert.Equal(t, 4, m.Round, "knockout continues the tournament round counter")
	}
	assert.Equal(t, "ko_r4_m1", matches[0].ID)
	// Посев по рейтингу: 1 против 4, 2 против 3.
	assert.Equal(t, "team_1", *matches[0].Team1ID)
	assert.Equal(t, "team_4", *matches[0].Team2ID)
}

func idsOf(teams []*models.Team) []string {
	ids := make([]string, len(teams))
	for i, team := range teams {
		ids[i] = team.ID
	}
	return ids
}
