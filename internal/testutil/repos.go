// Package testutil provides in-memory implementations of the persistence
// ports for tests outside the poi package.  They mirror the behavior the
// real Postgres repositories guarantee: unique-constraint conflicts surface
// as ErrCodeConflict, absent profiles as ErrCodeProfileNotFound, and absent
// links as (nil, nil).
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// ─────────────────────────────────────────────────────────────────────────────
// MemProfileRepo
// ─────────────────────────────────────────────────────────────────────────────

// MemProfileRepo is an in-memory poi.ProfileRepository.  Error fields let
// tests inject infrastructure failures per method.
type MemProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*poi.Profile // keyed by PoiID

	MaxIDErr  error
	ScanErr   error
	UpdateErr error
}

// NewMemProfileRepo returns an empty repository.
func NewMemProfileRepo() *MemProfileRepo {
	return &MemProfileRepo{profiles: make(map[string]*poi.Profile)}
}

func (r *MemProfileRepo) Insert(_ context.Context, p *poi.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *MemProfileRepo) Update(_ context.Context, p *poi.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if _, exists := r.profiles[p.PoiID]; !exists {
		return errors.NotFound("profile").WithDetail(p.PoiID)
	}
	clone := *p
	r.profiles[p.PoiID] = &clone
	return nil
}

func (r *MemProfileRepo) FindByID(_ context.Context, id common.ID) (*poi.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(string(id))
}

func (r *MemProfileRepo) FindByPoiID(_ context.Context, poiID string) (*poi.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[poiID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(poiID)
}

func (r *MemProfileRepo) FindAllActive(_ context.Context) ([]*poi.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ScanErr != nil {
		return nil, r.ScanErr
	}
	var out []*poi.Profile
	for _, p := range r.profiles {
		if p.IsActive() {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *MemProfileRepo) FindActiveByAgentNumber(_ context.Context, agent string) (*poi.Profile, error) {
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

func (r *MemProfileRepo) FindActiveByLicense(_ context.Context, license string) (*poi.Profile, error) {
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

func (r *MemProfileRepo) MaxPoiID(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MaxIDErr != nil {
		return "", r.MaxIDErr
	}
	maxSuffix := -1
	maxID := ""
	for id := range r.profiles {
		if n, ok := poiSuffix(id); ok && n > maxSuffix {
			maxSuffix = n
			maxID = id
		}
	}
	return maxID, nil
}

func (r *MemProfileRepo) List(_ context.Context, page, pageSize int) ([]*poi.Profile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*poi.Profile
	start := (page - 1) * pageSize
	for i, id := range ids {
		if i >= start && len(out) < pageSize {
			clone := *r.profiles[id]
			out = append(out, &clone)
		}
	}
	return out, int64(len(ids)), nil
}

// Seed inserts a pre-built active profile and returns the stored copy.
func (r *MemProfileRepo) Seed(p *poi.Profile) *poi.Profile {
	if p.Status == "" {
		p.Status = types.StatusActive
	}
	if p.ID == "" {
		p.ID = common.ID(uuid.NewString())
	}
	_ = r.Insert(context.Background(), p)
	return p
}

// Get returns the stored profile without the not-found error wrapping.
func (r *MemProfileRepo) Get(poiID string) *poi.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[poiID]
}

func poiSuffix(poiID string) (int, bool) {
	if !strings.HasPrefix(poiID, poi.PoiIDPrefix) {
		return 0, false
	}
	n := 0
	digits := strings.TrimPrefix(poiID, poi.PoiIDPrefix)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// ─────────────────────────────────────────────────────────────────────────────
// MemLinkRepo
// ─────────────────────────────────────────────────────────────────────────────

// MemLinkRepo is an in-memory intel.LinkRepository keyed by the registration
// triple.
type MemLinkRepo struct {
	mu    sync.Mutex
	links map[string]*intel.Link

	FindErr   error
	InsertErr error
	UpdateErr error
}

// NewMemLinkRepo returns an empty repository.
func NewMemLinkRepo() *MemLinkRepo {
	return &MemLinkRepo{links: make(map[string]*intel.Link)}
}

func tripleKey(poiID string, st types.SourceType, sourceID string) string {
	return poiID + "/" + st.String() + "/" + sourceID
}

func (r *MemLinkRepo) Insert(_ context.Context, l *intel.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InsertErr != nil {
		return r.InsertErr
	}
	key := tripleKey(l.PoiID, l.SourceType, l.SourceID)
	if _, exists := r.links[key]; exists {
		return errors.Conflict("duplicate link").WithDetail(key)
	}
	clone := *l
	r.links[key] = &clone
	return nil
}

func (r *MemLinkRepo) Find(_ context.Context, poiID string, st types.SourceType, sourceID string) (*intel.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	if l, ok := r.links[tripleKey(poiID, st, sourceID)]; ok {
		clone := *l
		return &clone, nil
	}
	return nil, nil
}

func (r *MemLinkRepo) UpdateConfidence(_ context.Context, poiID string, st types.SourceType, sourceID string, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	l, ok := r.links[tripleKey(poiID, st, sourceID)]
	if !ok {
		return errors.New(errors.ErrCodeLinkNotFound, "link not found")
	}
	l.ConfidenceScore = confidence
	return nil
}

func (r *MemLinkRepo) ListByPoi(_ context.Context, poiID string) ([]*intel.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*intel.Link
	for _, l := range r.links {
		if l.PoiID == poiID {
			clone := *l
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemLinkRepo) DeleteBySource(_ context.Context, st types.SourceType, sourceID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, l := range r.links {
		if l.SourceType == st && l.SourceID == sourceID {
			delete(r.links, key)
			n++
		}
	}
	return n, nil
}

func (r *MemLinkRepo) CountByPoi(_ context.Context, poiID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.links {
		if l.PoiID == poiID {
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored links.
func (r *MemLinkRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

// Get returns the stored link for the triple, or nil.
func (r *MemLinkRepo) Get(poiID string, st types.SourceType, sourceID string) *intel.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.links[tripleKey(poiID, st, sourceID)]
}

// ─────────────────────────────────────────────────────────────────────────────
// MemLegacyWriter / MemSourceRepo
// ─────────────────────────────────────────────────────────────────────────────

// MemLegacyWriter records legacy mirror writes; Err makes every write fail.
type MemLegacyWriter struct {
	mu     sync.Mutex
	Writes []*intel.Link
	Err    error
}

func (w *MemLegacyWriter) Write(_ context.Context, l *intel.Link) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	clone := *l
	w.Writes = append(w.Writes, &clone)
	return nil
}

// MemSourceRepo serves fixed source records per source type.
type MemSourceRepo struct {
	Records map[types.SourceType][]*intel.SourceRecord
	ScanErr map[types.SourceType]error
}

// NewMemSourceRepo returns an empty repository.
func NewMemSourceRepo() *MemSourceRepo {
	return &MemSourceRepo{
		Records: make(map[types.SourceType][]*intel.SourceRecord),
		ScanErr: make(map[types.SourceType]error),
	}
}

func (r *MemSourceRepo) ScanCandidates(_ context.Context, st types.SourceType) ([]*intel.SourceRecord, error) {
	if err := r.ScanErr[st]; err != nil {
		return nil, err
	}
	return r.Records[st], nil
}
