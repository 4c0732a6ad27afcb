// Package ledger is the authoritative record store. Records are keyed by
// deterministic addresses and carry a custody tag; writes through Put are
// rejected while a record is delegated or in transit.
package ledger

import (
	"context"

	"github.com/undeadlabs/arena/internal/domain"
)

// Store is durable keyed storage for all game records. Implementations
// serialize writes per record; a failed call leaves the record unchanged.
type Store interface {
	GetConfig(ctx context.Context) (*domain.Config, error)
	PutConfig(ctx context.Context, cfg *domain.Config) error

	// GetWarrior returns the record and its current custody; (nil, _, nil)
	// when the address is empty.
	GetWarrior(ctx context.Context, addr string) (*domain.Warrior, domain.Custody, error)
	// PutWarrior writes the record; fails with OwnershipMismatch unless
	// custody is OwnedByLedger.
	PutWarrior(ctx context.Context, addr string, w *domain.Warrior) error

	GetRoom(ctx context.Context, addr string) (*domain.BattleRoom, domain.Custody, error)
	PutRoom(ctx context.Context, addr string, r *domain.BattleRoom) error

	// SetCustody moves a record between custody phases without touching
	// its payload. Coordinator use only.
	SetCustody(ctx context.Context, addr string, c domain.Custody) error
	// Restore writes a record merged back from the ephemeral layer and
	// returns it to ledger custody in one step. Coordinator use only.
	RestoreWarrior(ctx context.Context, addr string, w *domain.Warrior) error
	RestoreRoom(ctx context.Context, addr string, r *domain.BattleRoom) error
	// SealRoom writes the room payload without the custody guard and
	// leaves the custody tag untouched. Coordinator use only.
	SealRoom(ctx context.Context, addr string, r *domain.BattleRoom) error

	GetProfile(ctx context.Context, addr string) (*domain.UserProfile, error)
	PutProfile(ctx context.Context, addr string, p *domain.UserProfile) error

	GetAchievements(ctx context.Context, addr string) (*domain.UserAchievements, error)
	PutAchievements(ctx context.Context, addr string, a *domain.UserAchievements) error

	GetLeaderboard(ctx context.Context) (*domain.Leaderboard, error)
	PutLeaderboard(ctx context.Context, l *domain.Leaderboard) error

	// Pending randomness requests, keyed by the awaiting record's address.
	GetPending(ctx context.Context, target string) (*domain.PendingRandomnessRequest, error)
	PutPending(ctx context.Context, req *domain.PendingRandomnessRequest) error
	DeletePending(ctx context.Context, target string) error

	Close() error
}
