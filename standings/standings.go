package standings

import (
	"math"
	"sort"

	"github.com/joegr/turny/models"
)

// Row — строка турнирной таблицы.
type Row struct {
	Rank           int     `json:"rank"`
	TeamID         string  `json:"team_id"`
	Name           string  `json:"name"`
	Captain        string  `json:"captain"`
	Group          *string `json:"group,omitempty"`
	GamesPlayed    int     `json:"games_played"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Draws          int     `json:"draws"`
	Points         int     `json:"points"`
	GoalsFor       int     `json:"goals_for"`
	GoalsAgainst   int     `json:"goals_against"`
	GoalDifference int     `json:"goal_difference"`
	WinRate        float64 `json:"win_rate"`
	Rating         int     `json:"rating"`
}

// Compute строит таблицу по накопленным результатам команд.
// Ключ сортировки по убыванию: очки (или победы, когда ничьи запрещены),
// затем разница мячей, затем забитые. Сортировка стабильная: команды,
// неразличимые по всем ключам, сохраняют исходный порядок. Ранги всегда
// различны — две равные команды получают соседние номера, не один на двоих.
func Compute(teams []*models.Team, usePoints bool) []Row {
	rows := make([]Row, 0, len(teams))
	for _, team := range teams {
		rows = append(rows, newRow(team))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := primaryKey(rows[i], usePoints), primaryKey(rows[j], usePoints)
		if pi != pj {
			return pi > pj
		}
		if rows[i].GoalDifference != rows[j].GoalDifference {
			return rows[i].GoalDifference > rows[j].GoalDifference
		}
		return rows[i].GoalsFor > rows[j].GoalsFor
	})

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// ComputeGroups строит таблицы независимо по группам: команды разных групп
// между собой не сравниваются. Команды без группы игнорируются.
func ComputeGroups(teams []*models.Team, usePoints bool) map[string][]Row {
	byGroup := make(map[string][]*models.Team)
	for _, team := range teams {
		if team.Group == nil {
			continue
		}
		byGroup[*team.Group] = append(byGroup[*team.Group], team)
	}

	result := make(map[string][]Row, len(byGroup))
	for name, groupTeams := range byGroup {
		result[name] = Compute(groupTeams, usePoints)
	}
	return result
}

func primaryKey(row Row, usePoints bool) int {
	if usePoints {
		return row.Points
	}
	return row.Wins
}

func newRow(team *models.Team) Row {
	played := team.GamesPlayed()
	winRate := 0.0
	if played > 0 {
		winRate = math.Round(float64(team.Wins)/float64(played)*1000) / 10
	}
	return Row{
		TeamID:         team.ID,
		Name:           team.Name,
		Captain:        team.Captain,
		Group:          team.Group,
		GamesPlayed:    played,
		Wins:           team.Wins,
		Losses:         team.Losses,
		Draws:          team.Draws,
		Points:         team.Points,
		GoalsFor:       team.GoalsFor,
		GoalsAgainst:   team.GoalsAgainst,
		GoalDifference: team.GoalDifference(),
		WinRate:        winRate,
		Rating:         team.Rating,
	}
}
