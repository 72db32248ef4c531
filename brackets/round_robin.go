package brackets

import (
	"context"
	"fmt"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate строит полное расписание кругового турнира методом круга:
// каждая пара команд встречается ровно один раз, все n*(n-1)/2 матчей
// создаются сразу с номерами раундов. При нечётном числе команд в каждом
// раунде одна команда отдыхает (bye ротируется по кругу), матч для неё
// не создаётся.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	if len(params.Teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams (found %d, min 2 required)", len(params.Teams))
	}
	return circleSchedule(params.Tournament, params.Teams, "", models.StageKnockout, nil, params.Calculator), nil
}

// circleSchedule реализует метод круга: первая позиция фиксируется, остальные
// ротируются между раундами. nil в списке — слот отдыха при нечётном составе.
func circleSchedule(t *models.Tournament, teams []*models.Team, prefix string, stage models.MatchStage, group *string, calc *ratings.Calculator) []*models.Match {
	rotation := make([]*models.Team, len(teams))
	copy(rotation, teams)
	if len(rotation)%2 == 1 {
		rotation = append(rotation, nil)
	}
	n := len(rotation)

	matches := make([]*models.Match, 0, n*(n-1)/2)
	for round := 1; round <= n-1; round++ {
		order := 0
		for i := 0; i < n/2; i++ {
			team1 := rotation[i]
			team2 := rotation[n-1-i]
			if team1 == nil || team2 == nil {
				continue
			}
			order++
			matches = append(matches, pairedMatch(t, team1, team2, prefix, round, order, stage, group, calc))
		}

		rotated := make([]*models.Team, 0, n)
		rotated = append(rotated, rotation[0], rotation[n-1])
		rotated = append(rotated, rotation[1:n-1]...)
		rotation = rotated
	}
	return matches
}
