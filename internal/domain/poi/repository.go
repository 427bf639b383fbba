package poi

import (
	"context"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
)

// ProfileRepository defines the persistence contract for POI profiles.  The
// matching and merge logic is persistence-agnostic: it sees only this
// interface, never a database handle.
//
// "Active" in method names means status != MERGED; merged tombstones are
// invisible to matching and allocation.
type ProfileRepository interface {
	// Insert persists a new profile.  Implementations must enforce a unique
	// constraint on PoiID and return an ErrCodeConflict AppError on
	// violation so the caller can re-allocate and retry.
	Insert(ctx context.Context, p *Profile) error

	// Update persists mutations to an existing profile.
	Update(ctx context.Context, p *Profile) error

	// FindByID looks a profile up by internal row identity.
	FindByID(ctx context.Context, id common.ID) (*Profile, error)

	// FindByPoiID looks a profile up by its stable display identifier.
	// Returns an ErrCodeProfileNotFound AppError when absent.
	FindByPoiID(ctx context.Context, poiID string) (*Profile, error)

	// FindAllActive returns every non-merged profile.  This is the full scan
	// the matcher walks per candidate; acceptable at current profile counts,
	// revisit with a blocking index once it grows.
	FindAllActive(ctx context.Context) ([]*Profile, error)

	// FindActiveByAgentNumber returns the non-merged profile carrying the
	// exact agent number, or nil when none does.
	FindActiveByAgentNumber(ctx context.Context, agentNumber string) (*Profile, error)

	// FindActiveByLicense returns the non-merged profile carrying the exact
	// license number, or nil when none does.
	FindActiveByLicense(ctx context.Context, licenseNumber string) (*Profile, error)

	// MaxPoiID returns the highest existing POI display identifier by
	// numeric suffix among non-deleted profiles, or "" when none exist.
	MaxPoiID(ctx context.Context) (string, error)

	// List returns a page of profiles (any status) ordered by PoiID, plus
	// the total count.
	List(ctx context.Context, page, pageSize int) ([]*Profile, int64, error)
}
