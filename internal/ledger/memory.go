package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/pkg/addr"
)

// memstore is an in-memory Store used in tests and when no database is
// configured. Records are stored as JSON so reads never alias writers.
type memstore struct {
	mu      sync.RWMutex
	records map[string][]byte
	custody map[string]domain.Custody
	pending map[string][]byte
}

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() Store {
	return &memstore{
		records: make(map[string][]byte),
		custody: make(map[string]domain.Custody),
		pending: make(map[string][]byte),
	}
}

func (m *memstore) get(key string, out any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (m *memstore) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memstore) GetConfig(context.Context) (*domain.Config, error) {
	var cfg domain.Config
	ok, err := m.get(addr.Config(), &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

func (m *memstore) PutConfig(_ context.Context, cfg *domain.Config) error {
	return m.put(addr.Config(), cfg)
}

func (m *memstore) GetWarrior(_ context.Context, a string) (*domain.Warrior, domain.Custody, error) {
	var w domain.Warrior
	ok, err := m.get(a, &w)
	if err != nil || !ok {
		return nil, domain.OwnedByLedger, err
	}
	m.mu.RLock()
	c := m.custody[a]
	m.mu.RUnlock()
	return &w, c, nil
}

func (m *memstore) PutWarrior(_ context.Context, a string, w *domain.Warrior) error {
	if err := m.checkWritable(a); err != nil {
		return err
	}
	return m.put(a, w)
}

func (m *memstore) GetRoom(_ context.Context, a string) (*domain.BattleRoom, domain.Custody, error) {
	var r domain.BattleRoom
	ok, err := m.get(a, &r)
	if err != nil || !ok {
		return nil, domain.OwnedByLedger, err
	}
	m.mu.RLock()
	c := m.custody[a]
	m.mu.RUnlock()
	return &r, c, nil
}

func (m *memstore) PutRoom(_ context.Context, a string, r *domain.BattleRoom) error {
	if err := m.checkWritable(a); err != nil {
		return err
	}
	return m.put(a, r)
}

func (m *memstore) checkWritable(a string) error {
	m.mu.RLock()
	c := m.custody[a]
	m.mu.RUnlock()
	if c != domain.OwnedByLedger {
		return domain.ErrOwnershipMismatch
	}
	return nil
}

func (m *memstore) SetCustody(_ context.Context, a string, c domain.Custody) error {
	m.mu.Lock()
	if c == domain.OwnedByLedger {
		delete(m.custody, a)
	} else {
		m.custody[a] = c
	}
	m.mu.Unlock()
	return nil
}

func (m *memstore) RestoreWarrior(ctx context.Context, a string, w *domain.Warrior) error {
	if err := m.put(a, w); err != nil {
		return err
	}
	return m.SetCustody(ctx, a, domain.OwnedByLedger)
}

func (m *memstore) RestoreRoom(ctx context.Context, a string, r *domain.BattleRoom) error {
	if err := m.put(a, r); err != nil {
		return err
	}
	return m.SetCustody(ctx, a, domain.OwnedByLedger)
}

func (m *memstore) SealRoom(_ context.Context, a string, r *domain.BattleRoom) error {
	return m.put(a, r)
}

func (m *memstore) GetProfile(_ context.Context, a string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	ok, err := m.get(a, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (m *memstore) PutProfile(_ context.Context, a string, p *domain.UserProfile) error {
	return m.put(a, p)
}

func (m *memstore) GetAchievements(_ context.Context, a string) (*domain.UserAchievements, error) {
	var ach domain.UserAchievements
	ok, err := m.get(a, &ach)
	if err != nil || !ok {
		return nil, err
	}
	return &ach, nil
}

func (m *memstore) PutAchievements(_ context.Context, a string, ach *domain.UserAchievements) error {
	return m.put(a, ach)
}

func (m *memstore) GetLeaderboard(context.Context) (*domain.Leaderboard, error) {
	var l domain.Leaderboard
	ok, err := m.get(addr.Leaderboard(), &l)
	if err != nil || !ok {
		return nil, err
	}
	return &l, nil
}

func (m *memstore) PutLeaderboard(_ context.Context, l *domain.Leaderboard) error {
	return m.put(addr.Leaderboard(), l)
}

func (m *memstore) GetPending(_ context.Context, target string) (*domain.PendingRandomnessRequest, error) {
	m.mu.RLock()
	raw, ok := m.pending[target]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var req domain.PendingRandomnessRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (m *memstore) PutPending(_ context.Context, req *domain.PendingRandomnessRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.pending[req.Target] = raw
	m.mu.Unlock()
	return nil
}

func (m *memstore) DeletePending(_ context.Context, target string) error {
	m.mu.Lock()
	delete(m.pending, target)
	m.mu.Unlock()
	return nil
}

func (m *memstore) Close() error { return nil }
