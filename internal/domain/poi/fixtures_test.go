package poi

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// memProfileRepo is an in-memory ProfileRepository used across the package
// tests.  Error fields let individual tests inject infrastructure failures.
type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*Profile // keyed by PoiID

	maxIDErr   error
	scanErr    error
	insertErrs []error // popped per Insert call when non-empty
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*Profile)}
}

func (r *memProfileRepo) Insert(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := r.profiles[p.PoiID]; exists {
		return errors.Conflict("duplicate poi_id").WithDetail(p.PoiID)
	}
	if p.ID == "" {
		p.ID = common.ID(uuid.NewString())
	}
	clone := *p
	r.profiles[p.PoiID] = &clone
	return nil
}

func (r *memProfileRepo) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[p.PoiID]; !exists {
		return errors.New(errors.ErrCodeProfileNotFound, "no such profile").WithDetail(p.PoiID)
	}
	clone := *p
	r.profiles[p.PoiID] = &clone
	return nil
}

func (r *memProfileRepo) FindByID(_ context.Context, id common.ID) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, errors.New(errors.ErrCodeProfileNotFound, "no such profile")
}

func (r *memProfileRepo) FindByPoiID(_ context.Context, poiID string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[poiID]
	if !ok {
		return nil, errors.New(errors.ErrCodeProfileNotFound, "no such profile").WithDetail(poiID)
	}
	clone := *p
	return &clone, nil
}

func (r *memProfileRepo) FindAllActive(_ context.Context) ([]*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	var out []*Profile
	for _, p := range r.profiles {
		if p.IsActive() {
			clone := *p
			out = append(out, &clone)
		}
	}
	// Map iteration order is unspecified; the matcher tie-break must not
	// depend on it.
	return out, nil
}

func (r *memProfileRepo) FindActiveByAgentNumber(_ context.Context, agent string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.IsActive() && p.AgentNumber == agent {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memProfileRepo) FindActiveByLicense(_ context.Context, license string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.IsActive() && p.LicenseNumber == license {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memProfileRepo) MaxPoiID(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxIDErr != nil {
		return "", r.maxIDErr
	}
	maxSuffix := -1
	maxID := ""
	for id, p := range r.profiles {
		_ = p
		if n, ok := parsePoiSuffix(id); ok && n > maxSuffix {
			maxSuffix = n
			maxID = id
		}
	}
	return maxID, nil
}

func (r *memProfileRepo) List(_ context.Context, page, pageSize int) ([]*Profile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*Profile
	start := (page - 1) * pageSize
	for i, id := range ids {
		if i >= start && len(out) < pageSize {
			clone := *r.profiles[id]
			out = append(out, &clone)
		}
	}
	return out, int64(len(ids)), nil
}

// seedProfile inserts a pre-built active profile for matcher tests.
func (r *memProfileRepo) seedProfile(poiID, nameEng, nameChi, agent, license, company string) *Profile {
	p := &Profile{
		BaseEntity:    common.BaseEntity{ID: common.ID(uuid.NewString()), Version: 1},
		PoiID:         poiID,
		NameEnglish:   strings.TrimSpace(nameEng),
		NameChinese:   strings.TrimSpace(nameChi),
		AgentNumber:   agent,
		LicenseNumber: license,
		Company:       company,
		Status:        intel.StatusActive,
	}
	p.RecomputeNormalizedName(NewNormalizer(DefaultMatchConfig()))
	_ = r.Insert(context.Background(), p)
	return p
}
