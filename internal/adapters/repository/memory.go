package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/pkg/metrics"
)

type pickRow struct {
	pick  model.Pick
	seq   int64
	likes map[string]struct{}
}

type followKey struct {
	follower string
	followee string
}

// Memory implements Store in process memory. A single RWMutex serializes
// writers, which makes UpdateStats and MarkVerified atomic.
type Memory struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	userSeq int64
	users   map[string]*model.User
	emails  map[string]string // lower(email) -> id
	names   map[string]string // lower(username) -> id

	events     map[string]*model.Event
	eventOrder []string
	externals  map[string]string

	pickSeq int64
	picks   map[string]*pickRow

	followSeq int64
	follows   map[followKey]int64

	board *ranking
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		clock:     clockwork.NewRealClock(),
		users:     make(map[string]*model.User),
		emails:    make(map[string]string),
		names:     make(map[string]string),
		events:    make(map[string]*model.Event),
		externals: make(map[string]string),
		picks:     make(map[string]*pickRow),
		follows:   make(map[followKey]int64),
		board:     newRanking(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// CheckPage rejects pages below 1 and non-positive limits.
func CheckPage(p types.Page) error {
	if p.Limit < 1 || p.Page < 1 {
		return fmt.Errorf("%w: page=%d limit=%d", ErrInvalidLimit, p.Page, p.Limit)
	}
	return nil
}

func cloneEvent(e *model.Event) model.Event {
	out := *e
	out.Fights = slices.Clone(e.Fights)
	return out
}

// ---- users

// CreateUser stores a new account. A clashing username or email returns ErrDuplicate.
func (m *Memory) CreateUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return model.User{}, fmt.Errorf("%w: user %s", ErrDuplicate, u.ID)
	}
	if _, ok := m.emails[strings.ToLower(u.Email)]; ok {
		return model.User{}, fmt.Errorf("%w: email", ErrDuplicate)
	}
	if _, ok := m.names[strings.ToLower(u.Username)]; ok {
		return model.User{}, fmt.Errorf("%w: username", ErrDuplicate)
	}

	m.userSeq++
	u.Seq = m.userSeq
	stored := u
	m.users[u.ID] = &stored
	m.emails[strings.ToLower(u.Email)] = u.ID
	m.names[strings.ToLower(u.Username)] = u.ID
	if u.IsCapper() {
		m.board.upsert(u.ID, u.Stats.CloutScore, u.Seq)
		metrics.UpdateTotalCappers(m.board.len())
	}
	return u, nil
}

// FindUser returns any account by id.
func (m *Memory) FindUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return *u, nil
}

// FindUserByEmail looks an account up by email, ignoring case.
func (m *Memory) FindUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return model.User{}, fmt.Errorf("%w: email", ErrNotFound)
	}
	return *m.users[id], nil
}

// FindCapper returns the account only when it is a capper.
func (m *Memory) FindCapper(ctx context.Context, id string) (model.User, error) {
	u, err := m.FindUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !u.IsCapper() {
		return model.User{}, fmt.Errorf("%w: capper %s", ErrNotFound, id)
	}
	return u, nil
}

// UpdateProfile sets the bio, and the username when it is not empty.
func (m *Memory) UpdateProfile(_ context.Context, id, username, bio string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if username != "" && !strings.EqualFold(username, u.Username) {
		if _, taken := m.names[strings.ToLower(username)]; taken {
			return model.User{}, fmt.Errorf("%w: username", ErrDuplicate)
		}
		delete(m.names, strings.ToLower(u.Username))
		m.names[strings.ToLower(username)] = id
		u.Username = username
	}
	u.Bio = bio
	u.UpdatedAt = m.clock.Now()
	return *u, nil
}

// UpdateStats applies fn to the capper's current row and stores the result.
func (m *Memory) UpdateStats(_ context.Context, capperID string, fn model.StatsFunc) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[capperID]
	if !ok || !u.IsCapper() {
		return model.User{}, fmt.Errorf("%w: capper %s", ErrNotFound, capperID)
	}
	stats, err := fn(*u)
	if err != nil {
		return model.User{}, err
	}
	u.Stats = stats
	u.UpdatedAt = m.clock.Now()
	m.board.upsert(u.ID, stats.CloutScore, u.Seq)
	return *u, nil
}

// ListCapperIDs returns every capper id in signup order.
func (m *Memory) ListCapperIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, m.board.len())
	for id, u := range m.users {
		if u.IsCapper() {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(m.users[a].Seq, m.users[b].Seq)
	})
	return ids, nil
}

// ---- leaderboard

func (m *Memory) entry(id string, rank int) types.Entry {
	u := m.users[id]
	return types.Entry{
		Rank:          rank,
		CapperID:      u.ID,
		Username:      u.Username,
		FollowerCount: u.FollowerCount,
		TotalPicks:    u.Stats.TotalPicks,
		CorrectPicks:  u.Stats.CorrectPicks,
		WinRate:       u.Stats.WinRate,
		CloutScore:    u.Stats.CloutScore,
	}
}

// TopCappers returns one page of the leaderboard and the number of cappers.
func (m *Memory) TopCappers(_ context.Context, p types.Page) ([]types.Entry, int, error) {
	if err := CheckPage(p); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.board.window(p.Offset(), p.Limit)
	out := make([]types.Entry, 0, len(ids))
	for i, id := range ids {
		out = append(out, m.entry(id, p.Offset()+i+1))
	}
	return out, m.board.len(), nil
}

// CapperRank returns the 1-based leaderboard position of a capper.
func (m *Memory) CapperRank(_ context.Context, capperID string) (types.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rank, ok := m.board.rank(capperID)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: capper %s", ErrNotFound, capperID)
	}
	return m.entry(capperID, rank), nil
}

// ---- follows

// Follow adds the edge and bumps both counters.
func (m *Memory) Follow(_ context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	follower, ok1 := m.users[followerID]
	followee, ok2 := m.users[followeeID]
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	k := followKey{followerID, followeeID}
	if _, ok := m.follows[k]; ok {
		return ErrAlreadyFollowing
	}
	m.followSeq++
	m.follows[k] = m.followSeq
	follower.FollowingCount++
	followee.FollowerCount++
	return nil
}

// Unfollow removes the edge and lowers both counters.
func (m *Memory) Unfollow(_ context.Context, followerID, followeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := followKey{followerID, followeeID}
	if _, ok := m.follows[k]; !ok {
		return ErrNotFollowing
	}
	delete(m.follows, k)
	if u, ok := m.users[followerID]; ok && u.FollowingCount > 0 {
		u.FollowingCount--
	}
	if u, ok := m.users[followeeID]; ok && u.FollowerCount > 0 {
		u.FollowerCount--
	}
	return nil
}

// IsFollowing reports whether the edge exists.
func (m *Memory) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.follows[followKey{followerID, followeeID}]
	return ok, nil
}

func (m *Memory) listFollow(userID string, p types.Page, followers bool) ([]model.User, int, error) {
	if err := CheckPage(p); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.users[userID]; !ok {
		return nil, 0, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	type hit struct {
		id  string
		seq int64
	}
	var hits []hit
	for k, seq := range m.follows {
		switch {
		case followers && k.followee == userID:
			hits = append(hits, hit{k.follower, seq})
		case !followers && k.follower == userID:
			hits = append(hits, hit{k.followee, seq})
		}
	}
	// newest first
	slices.SortFunc(hits, func(a, b hit) int { return cmp.Compare(b.seq, a.seq) })

	start, end := p.Window(len(hits))
	out := make([]model.User, 0, end-start)
	for _, h := range hits[start:end] {
		out = append(out, *m.users[h.id])
	}
	return out, len(hits), nil
}

// ListFollowers pages the users following userID, newest first.
func (m *Memory) ListFollowers(_ context.Context, userID string, p types.Page) ([]model.User, int, error) {
	return m.listFollow(userID, p, true)
}

// ListFollowing pages the users userID follows, newest first.
func (m *Memory) ListFollowing(_ context.Context, userID string, p types.Page) ([]model.User, int, error) {
	return m.listFollow(userID, p, false)
}
