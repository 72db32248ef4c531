package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joegr/turny/models"
)

// memoryData — всё состояние стора в значениях (не указателях), чтобы
// снапшот транзакции был обычным глубоким копированием мап.
type memoryData struct {
	tournaments map[string]models.Tournament
	teams       map[string]models.Team // ключ tournamentID + "/" + teamID
	matches     map[string]models.Match
	ratings     []models.RatingHistoryEntry
	users       map[int]models.User

	teamSeq   map[string][]string // порядок регистрации команд по турниру
	nextUser  int
	nextEntry int
}

func newMemoryData() *memoryData {
	return &memoryData{
		tournaments: make(map[string]models.Tournament),
		teams:       make(map[string]models.Team),
		matches:     make(map[string]models.Match),
		users:       make(map[int]models.User),
		teamSeq:     make(map[string][]string),
		nextUser:    1,
		nextEntry:   1,
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.teams {
		c.teams[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	c.ratings = append([]models.RatingHistoryEntry(nil), d.ratings...)
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.teamSeq {
		c.teamSeq[k] = append([]string(nil), v...)
	}
	c.nextUser = d.nextUser
	c.nextEntry = d.nextEntry
	return c
}

// memoryStore — потокобезопасный стор в памяти для тестов и dev-режима.
// Atomically реализована снапшотом: при ошибке fn данные откатываются.
type memoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

func NewMemoryStore() Store {
	return &memoryStore{mu: &sync.Mutex{}, data: newMemoryData()}
}

func (s *memoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memoryStore) Tournaments() TournamentRepository   { return &memoryTournamentRepo{s} }
func (s *memoryStore) Teams() TeamRepository               { return &memoryTeamRepo{s} }
func (s *memoryStore) Matches() MatchRepository            { return &memoryMatchRepo{s} }
func (s *memoryStore) RatingHistory() RatingHistoryRepository { return &memoryRatingRepo{s} }
func (s *memoryStore) Users() UserRepository               { return &memoryUserRepo{s} }

func (s *memoryStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Снапшот до входа в fn: при ошибке все её записи отбрасываются
	// заменой данных на копию.
	snapshot := s.data.clone()
	txStore := &memoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(txStore); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func teamKey(tournamentID, teamID string) string {
	return tournamentID + "/" + teamID
}

// --- tournaments ---

type memoryTournamentRepo struct{ s *memoryStore }

func (r *memoryTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	defer r.s.lock()()
	if _, ok := r.s.data.tournaments[t.ID]; ok {
		return ErrTournamentConflict
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.s.data.tournaments[t.ID] = *t
	return nil
}

func (r *memoryTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	defer r.s.lock()()
	t, ok := r.s.data.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return &t, nil
}

func (r *memoryTournamentRepo) List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error) {
	defer r.s.lock()()

	var all []*models.Tournament
	for _, t := range r.s.data.tournaments {
		t := t
		if filter.State != nil && t.State != *filter.State {
			continue
		}
		if filter.OrganizerID != nil && (t.OrganizerID == nil || *t.OrganizerID != *filter.OrganizerID) {
			continue
		}
		if filter.ScheduledBefore != nil &&
			(t.ScheduledStart == nil || t.ScheduledStart.After(*filter.ScheduledBefore)) {
			continue
		}
		all = append(all, &t)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return nil, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *memoryTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	defer r.s.lock()()
	if _, ok := r.s.data.tournaments[t.ID]; !ok {
		return ErrTournamentNotFound
	}
	r.s.data.tournaments[t.ID] = *t
	return nil
}

func (r *memoryTournamentRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.data.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(r.s.data.tournaments, id)
	for _, teamID := range r.s.data.teamSeq[id] {
		delete(r.s.data.teams, teamKey(id, teamID))
	}
	delete(r.s.data.teamSeq, id)
	for key, m := range r.s.data.matches {
		if m.TournamentID == id {
			delete(r.s.data.matches, key)
		}
	}
	return nil
}

// --- teams ---

type memoryTeamRepo struct{ s *memoryStore }

func (r *memoryTeamRepo) Create(ctx context.Context, team *models.Team) error {
	defer r.s.lock()()
	key := teamKey(team.TournamentID, team.ID)
	if _, ok := r.s.data.teams[key]; ok {
		return ErrTeamConflict
	}
	if _, ok := r.s.data.tournaments[team.TournamentID]; !ok {
		return ErrTournamentNotFound
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	r.s.data.teams[key] = *team
	r.s.data.teamSeq[team.TournamentID] = append(r.s.data.teamSeq[team.TournamentID], team.ID)
	return nil
}

func (r *memoryTeamRepo) GetByID(ctx context.Context, tournamentID, teamID string) (*models.Team, error) {
	defer r.s.lock()()
	team, ok := r.s.data.teams[teamKey(tournamentID, teamID)]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (r *memoryTeamRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	defer r.s.lock()()
	var teams []*models.Team
	for _, teamID := range r.s.data.teamSeq[tournamentID] {
		if team, ok := r.s.data.teams[teamKey(tournamentID, teamID)]; ok {
			team := team
			teams = append(teams, &team)
		}
	}
	return teams, nil
}

func (r *memoryTeamRepo) Update(ctx context.Context, team *models.Team) error {
	defer r.s.lock()()
	key := teamKey(team.TournamentID, team.ID)
	if _, ok := r.s.data.teams[key]; !ok {
		return ErrTeamNotFound
	}
	r.s.data.teams[key] = *team
	return nil
}

func (r *memoryTeamRepo) Delete(ctx context.Context, tournamentID, teamID string) (bool, error) {
	defer r.s.lock()()
	key := teamKey(tournamentID, teamID)
	if _, ok := r.s.data.teams[key]; !ok {
		return false, nil
	}
	delete(r.s.data.teams, key)
	seq := r.s.data.teamSeq[tournamentID]
	for i, id := range seq {
		if id == teamID {
			r.s.data.teamSeq[tournamentID] = append(seq[:i], seq[i+1:]...)
			break
		}
	}
	return true, nil
}

// --- matches ---

type memoryMatchRepo struct{ s *memoryStore }

func (r *memoryMatchRepo) CreateBatch(ctx context.Context, matches []*models.Match) error {
	defer r.s.lock()()
	for _, m := range matches {
		if _, ok := r.s.data.matches[teamKey(m.TournamentID, m.ID)]; ok {
			return ErrMatchConflict
		}
	}
	now := time.Now().UTC()
	for _, m := range matches {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		r.s.data.matches[teamKey(m.TournamentID, m.ID)] = *m
	}
	return nil
}

func (r *memoryMatchRepo) GetByID(ctx context.Context, tournamentID, matchID string) (*models.Match, error) {
	defer r.s.lock()()
	m, ok := r.s.data.matches[teamKey(tournamentID, matchID)]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (r *memoryMatchRepo) ListByTournament(ctx context.Context, tournamentID string, filter MatchFilter) ([]*models.Match, error) {
	defer r.s.lock()()
	var matches []*models.Match
	for _, m := range r.s.data.matches {
		m := m
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Round != nil && m.Round != *filter.Round {
			continue
		}
		if filter.Stage != nil && m.Stage != *filter.Stage {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		matches = append(matches, &m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		if matches[i].OrderInRound != matches[j].OrderInRound {
			return matches[i].OrderInRound < matches[j].OrderInRound
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *memoryMatchRepo) Update(ctx context.Context, match *models.Match) error {
	defer r.s.lock()()
	key := teamKey(match.TournamentID, match.ID)
	if _, ok := r.s.data.matches[key]; !ok {
		return ErrMatchNotFound
	}
	r.s.data.matches[key] = *match
	return nil
}

// --- rating history ---

type memoryRatingRepo struct{ s *memoryStore }

func (r *memoryRatingRepo) Append(ctx context.Context, entry *models.RatingHistoryEntry) error {
	defer r.s.lock()()
	entry.ID = r.s.data.nextEntry
	r.s.data.nextEntry++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.s.data.ratings = append(r.s.data.ratings, *entry)
	return nil
}

func (r *memoryRatingRepo) ListByTeam(ctx context.Context, teamID string) ([]*models.RatingHistoryEntry, error) {
	defer r.s.lock()()
	var entries []*models.RatingHistoryEntry
	for _, e := range r.s.data.ratings {
		e := e
		if e.TeamID == teamID {
			entries = append(entries, &e)
		}
	}
	return entries, nil
}

// --- users ---

type memoryUserRepo struct{ s *memoryStore }

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserEmailConflict
		}
	}
	user.ID = r.s.data.nextUser
	r.s.data.nextUser++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
