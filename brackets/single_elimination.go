package brackets

import (
	"context"
	"errors"
	"sort"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate строит первый раунд олимпийской сетки. Команды сеются по рейтингу
// (сильнейший против слабейшего, рекурсивная раскладка слотов, чтобы топ-посевы
// не встретились раньше финала); при числе команд, не равном степени двойки,
// младшие посевы получают bye и проходят дальше без игры.
// Следующие раунды создаются по мере завершения предыдущих, см. NextEliminationRound.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, errors.New("not enough teams to generate a single elimination bracket (minimum 2)")
	}

	seeded := SeedByRating(teams)
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
			matches = append(matches, pairedMatch(params.Tournament, team1, team2, "", 1, order, models.StageKnockout, nil, params.Calculator))
		case team1 != nil:
			matches = append(matches, byeMatch(params.Tournament, team1, "", 1, order, models.StageKnockout))
		case team2 != nil:
			matches = append(matches, byeMatch(params.Tournament, team2, "", 1, order, models.StageKnockout))
		}
	}
	return matches, nil
}

// NextEliminationRound спаривает победителей завершённого раунда в порядке сетки
// (победитель матча 1 против победителя матча 2 и так далее). Победители матчей
// без пары — например после брошенного матча — дальше не проходят.
func NextEliminationRound(t *models.Tournament, winners []*models.Team, round int, prefix string, calc *ratings.Calculator) []*models.Match {
	matches := make([]*models.Match, 0, len(winners)/2)
	order := 0
	for i := 0; i+1 < len(winners); i += 2 {
		order++
		matches = append(matches, pairedMatch(t, winners[i], winners[i+1], prefix, round, order, models.StageKnockout, nil, calc))
	}
	return matches
}

// SeedByRating возвращает команды в порядке посева: рейтинг по убыванию,
// при равенстве сохраняется порядок регистрации.
func SeedByRating(teams []*models.Team) []*models.Team {
	seeded := make([]*models.Team, len(teams))
	copy(seeded, teams)
	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].Rating > seeded[j].Rating
	})
	return seeded
}

// seedPositions раскладывает посевы по слотам сетки так, чтобы посев 1 играл
// с посевом N, 2 с N-1, и верхние посевы могли встретиться только в финале.
func seedPositions(bracketSize int) []int {
	positions := []int{0}
	for len(positions) < bracketSize {
		doubled := len(positions) * 2
		next := make([]int, 0, doubled)
		for _, seed := range positions {
			next = append(next, seed, doubled-1-seed)
		}
		positions = next
	}
	return positions
}

func teamAtSeed(seeded []*models.Team, seed int) *models.Team {
	if seed < len(seeded) {
		return seeded[seed]
	}
	return nil
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
