package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/joegr/turny/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinFourTeams(t *testing.T) {
	gen := NewRoundRobinGenerator()
	teams := makeTeams(4, 1800)

	matches, err := gen.Generate(context.Background(), genParams(models.FormatRoundRobin, teams))
	require.NoError(t, err)
	require.Len(t, matches, 6, "n*(n-1)/2 matches")

	rounds := make(map[int]int)
	pairs := make(map[string]int)
	for _, m := range matches {
		rounds[m.Round]++
		require.NotNil(t, m.Team1ID)
		require.NotNil(t, m.Team2ID)
		key := *m.Team1ID + "|" + *m.Team2ID
		if *m.Team2ID < *m.Team1ID {
			key = *m.Team2ID + "|" + *m.Team1ID
		}
		pairs[key]++
	}

	require.Len(t, rounds, 3, "n-1 rounds for even n")
	for round, count := range rounds {
		assert.Equal(t, 2, count, "round %d", round)
	}
	require.Len(t, pairs, 6)
	for pair, count := range pairs {
		assert.Equal(t, 1, count, "pair %s plays exactly once", pair)
	}
}

func TestRoundRobinOddTeamsRotatesBye(t *testing.T) {
	gen := NewRoundRobinGenerator()
	teams := makeTeams(5, 1800)

	matches, err := gen.Generate(context.Background(), genParams(models.FormatRoundRobin, teams))
	require.NoError(t, err)
	assert.Len(t, matches, 10, "n*(n-1)/2 matches")

	// Нечётный состав: n раундов, в каждом по два матча и одна отдыхающая команда.
	rounds := make(map[int][]string)
	for _, m := range matches {
		rounds[m.Round] = append(rounds[m.Round], *m.Team1ID, *m.Team2ID)
	}
	require.Len(t, rounds, 5)

	sitOuts := make(map[string]int)
	for round, playing := range rounds {
		assert.Len(t, playing, 4, "round %d", round)
		playingSet := make(map[string]bool, len(playing))
		for _, id := range playing {
			playingSet[id] = true
		}
		for i := 1; i <= 5; i++ {
			id := fmt.Sprintf("team_%d", i)
			if !playingSet[id] {
				sitOuts[id]++
			}
		}
	}
	// Каждая команда отдыхает ровно один раз за круг.
	require.Len(t, sitOuts, 5)
	for id, count := range sitOuts {
		assert.Equal(t, 1, count, "team %s", id)
	}
}

func TestRoundRobinTooFewTeams(t *testing.T) {
	gen := NewRoundRobinGenerator()
	_, err := gen.Generate(context.Background(), genParams(models.FormatRoundRobin, makeTeams(1, 1500)))
	assert.Error(t, err)
}
