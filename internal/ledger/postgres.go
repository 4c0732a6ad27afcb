package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/undeadlabs/arena/internal/domain"
	"github.com/undeadlabs/arena/pkg/addr"
)

// pgstore persists records in a single addressed table. The custody column
// gates writes server-side so a racing delegate cannot lose an update.
type pgstore struct {
	db *sql.DB
}

// NewPostgresStore opens the database and ensures the schema exists.
func NewPostgresStore(databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	s := &pgstore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *pgstore) ensureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS arena_records (
		addr       TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		payload    JSONB NOT NULL,
		custody    SMALLINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS arena_pending_randomness (
		target       TEXT PRIMARY KEY,
		request_id   TEXT NOT NULL,
		purpose      TEXT NOT NULL,
		client_seed  SMALLINT NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *pgstore) getRecord(ctx context.Context, a string, out any) (domain.Custody, bool, error) {
	var raw []byte
	var custody int16
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, custody FROM arena_records WHERE addr = $1`, a).Scan(&raw, &custody)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OwnedByLedger, false, nil
	}
	if err != nil {
		return domain.OwnedByLedger, false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.OwnedByLedger, false, err
	}
	return domain.Custody(custody), true, nil
}

// putRecord upserts a payload. With guarded true the write only succeeds
// while the record is under ledger custody.
func (s *pgstore) putRecord(ctx context.Context, a, kind string, v any, guarded bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q := `INSERT INTO arena_records (addr, kind, payload, custody, updated_at)
	      VALUES ($1, $2, $3, 0, now())
	      ON CONFLICT (addr) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	if guarded {
		q += ` WHERE arena_records.custody = 0`
	}
	res, err := s.db.ExecContext(ctx, q, a, kind, raw)
	if err != nil {
		return err
	}
	if guarded {
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrOwnershipMismatch
		}
	}
	return nil
}

func (s *pgstore) GetConfig(ctx context.Context) (*domain.Config, error) {
	var cfg domain.Config
	_, ok, err := s.getRecord(ctx, addr.Config(), &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

func (s *pgstore) PutConfig(ctx context.Context, cfg *domain.Config) error {
	return s.putRecord(ctx, addr.Config(), "config", cfg, false)
}

func (s *pgstore) GetWarrior(ctx context.Context, a string) (*domain.Warrior, domain.Custody, error) {
	var w domain.Warrior
	c, ok, err := s.getRecord(ctx, a, &w)
	if err != nil || !ok {
		return nil, c, err
	}
	return &w, c, nil
}

func (s *pgstore) PutWarrior(ctx context.Context, a string, w *domain.Warrior) error {
	return s.putRecord(ctx, a, "warrior", w, true)
}

func (s *pgstore) GetRoom(ctx context.Context, a string) (*domain.BattleRoom, domain.Custody, error) {
	var r domain.BattleRoom
	c, ok, err := s.getRecord(ctx, a, &r)
	if err != nil || !ok {
		return nil, c, err
	}
	return &r, c, nil
}

func (s *pgstore) PutRoom(ctx context.Context, a string, r *domain.BattleRoom) error {
	return s.putRecord(ctx, a, "battleroom", r, true)
}

func (s *pgstore) SetCustody(ctx context.Context, a string, c domain.Custody) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE arena_records SET custody = $2, updated_at = now() WHERE addr = $1`, a, int16(c))
	return err
}

func (s *pgstore) restore(ctx context.Context, a, kind string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO arena_records (addr, kind, payload, custody, updated_at)
		 VALUES ($1, $2, $3, 0, now())
		 ON CONFLICT (addr) DO UPDATE SET payload = EXCLUDED.payload, custody = 0, updated_at = now()`,
		a, kind, raw)
	return err
}

func (s *pgstore) RestoreWarrior(ctx context.Context, a string, w *domain.Warrior) error {
	return s.restore(ctx, a, "warrior", w)
}

func (s *pgstore) RestoreRoom(ctx context.Context, a string, r *domain.BattleRoom) error {
	return s.restore(ctx, a, "battleroom", r)
}

func (s *pgstore) SealRoom(ctx context.Context, a string, r *domain.BattleRoom) error {
	return s.putRecord(ctx, a, "battleroom", r, false)
}

func (s *pgstore) GetProfile(ctx context.Context, a string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	_, ok, err := s.getRecord(ctx, a, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *pgstore) PutProfile(ctx context.Context, a string, p *domain.UserProfile) error {
	return s.putRecord(ctx, a, "user_profile", p, false)
}

func (s *pgstore) GetAchievements(ctx context.Context, a string) (*domain.UserAchievements, error) {
	var ach domain.UserAchievements
	_, ok, err := s.getRecord(ctx, a, &ach)
	if err != nil || !ok {
		return nil, err
	}
	return &ach, nil
}

func (s *pgstore) PutAchievements(ctx context.Context, a string, ach *domain.UserAchievements) error {
	return s.putRecord(ctx, a, "user_achievements", ach, false)
}

func (s *pgstore) GetLeaderboard(ctx context.Context) (*domain.Leaderboard, error) {
	var l domain.Leaderboard
	_, ok, err := s.getRecord(ctx, addr.Leaderboard(), &l)
	if err != nil || !ok {
		return nil, err
	}
	return &l, nil
}

func (s *pgstore) PutLeaderboard(ctx context.Context, l *domain.Leaderboard) error {
	return s.putRecord(ctx, addr.Leaderboard(), "leaderboard", l, false)
}

func (s *pgstore) GetPending(ctx context.Context, target string) (*domain.PendingRandomnessRequest, error) {
	var req domain.PendingRandomnessRequest
	err := s.db.QueryRowContext(ctx,
		`SELECT target, request_id, purpose, client_seed, requested_at
		 FROM arena_pending_randomness WHERE target = $1`, target).
		Scan(&req.Target, &req.RequestID, (*string)(&req.Purpose), &req.ClientSeed, &req.RequestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *pgstore) PutPending(ctx context.Context, req *domain.PendingRandomnessRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO arena_pending_randomness (target, request_id, purpose, client_seed, requested_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (target) DO UPDATE SET
		   request_id = EXCLUDED.request_id,
		   purpose = EXCLUDED.purpose,
		   client_seed = EXCLUDED.client_seed,
		   requested_at = EXCLUDED.requested_at`,
		req.Target, req.RequestID, string(req.Purpose), req.ClientSeed, req.RequestedAt)
	return err
}

func (s *pgstore) DeletePending(ctx context.Context, target string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM arena_pending_randomness WHERE target = $1`, target)
	return err
}

func (s *pgstore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
