package brackets

import (
	"context"
	"fmt"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
)

// HybridGenerator строит групповую стадию гибридного турнира: команды
// распределяются по группам, внутри каждой играется полный круг.
// Плей-офф не создаётся здесь — он строится отдельным вызовом
// GenerateKnockoutBracket после завершения всех групповых матчей.
type HybridGenerator struct{}

func NewHybridGenerator() Generator {
	return &HybridGenerator{}
}

func (g *HybridGenerator) Name() string {
	return "Hybrid"
}

func (g *HybridGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	t := params.Tournament
	if t.NumGroups < 2 {
		return nil, fmt.Errorf("hybrid tournament requires at least 2 groups, got %d", t.NumGroups)
	}
	if len(params.Teams) < t.NumGroups*2 {
		return nil, fmt.Errorf("not enough teams for %d groups: need at least %d, got %d",
			t.NumGroups, t.NumGroups*2, len(params.Teams))
	}

	groups := AssignGroups(params.Teams, t.NumGroups)

	var matches []*models.Match
	for _, name := range GroupNames(t.NumGroups) {
		groupTeams := groups[name]
		groupName := name
		prefix := fmt.Sprintf("g%s_", name)
		matches = append(matches, circleSchedule(t, groupTeams, prefix, models.StageGroup, &groupName, params.Calculator)...)
	}
	return matches, nil
}

// AssignGroups раскладывает команды по группам по кругу в порядке посева:
// сильнейшие расходятся по разным группам, размеры групп отличаются не больше
// чем на одну команду. Уже назначенные группы (предварительная рассадка)
// сохраняются.
// Функция мутирует поле Group у команд.
func AssignGroups(teams []*models.Team, numGroups int) map[string][]*models.Team {
	names := GroupNames(numGroups)
	groups := make(map[string][]*models.Team, numGroups)

	var unassigned []*models.Team
	for _, team := range teams {
		if team.Group != nil {
			groups[*team.Group] = append(groups[*team.Group], team)
			continue
		}
		unassigned = append(unassigned, team)
	}

	for i, team := range SeedByRating(unassigned) {
		name := names[i%numGroups]
		team.Group = &name
		groups[name] = append(groups[name], team)
	}
	return groups
}

// GroupNames — имена групп: A, B, C...
func GroupNames(numGroups int) []string {
	names := make([]string, numGroups)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	return names
}

// GenerateKnockoutBracket сеет олимпийскую сетку из команд, вышедших из групп.
// Посев по рейтингу, идентификаторы матчей с префиксом ko_, раунды продолжают
// сквозную нумерацию турнира со startRound.
func GenerateKnockoutBracket(t *models.Tournament, advancing []*models.Team, startRound int, calc *ratings.Calculator) ([]*models.Match, error) {
	if len(advancing) < 2 {
		return nil, fmt.Errorf("not enough advancing teams for a knockout bracket (got %d)", len(advancing))
	}

	seeded := SeedByRating(advancing)
	bracketSize := nextPowerOfTwo(len(seeded))
	slots := seedPositions(bracketSize)

	matches := make([]*models.Match, 0, bracketSize/2)
	order := 0
	for i := 0; i < len(slots); i += 2 {
		team1 := teamAtSeed(seeded, slots[i])
		team2 := teamAtSeed(seeded, slots[i+1])
		order++

		switch {
		case team1 != nil && team2 != nil:
			matches = append(matches, pairedMatch(t, team1, team2, "ko_", startRound, order, models.StageKnockout, nil, calc))
		case team1 != nil:
			matches = append(matches, byeMatch(t, team1, "ko_", startRound, order, models.StageKnockout))
		case team2 != nil:
			matches = append(matches, byeMatch(t, team2, "ko_", startRound, order, models.StageKnockout))
		}
	}
	return matches, nil
}
