package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	rediscache "github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/database/redis"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
)

// listCacheTTL is short by design: the list cache is not invalidated on
// writes, it just ages out.
const listCacheTTL = 30 * time.Second

// PoiHandler serves read access to POI profiles and their source links.
type PoiHandler struct {
	profiles poi.ProfileRepository
	links    intel.LinkRepository
	cache    *rediscache.Cache
	logger   logging.Logger
}

func NewPoiHandler(profiles poi.ProfileRepository, links intel.LinkRepository, cache *rediscache.Cache, log logging.Logger) *PoiHandler {
	return &PoiHandler{profiles: profiles, links: links, cache: cache, logger: log}
}

// ProfilePage is one page of the profile listing.
type ProfilePage struct {
	Items    []*poi.Profile `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int64          `json:"total"`
}

// ProfileDetail is a single profile plus its registered source links.
type ProfileDetail struct {
	Profile *poi.Profile  `json:"profile"`
	Links   []*intel.Link `json:"links"`
}

// Get handles GET /api/v1/poi/{poiID}.
func (h *PoiHandler) Get(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")

	profile, err := h.profiles.FindByPoiID(r.Context(), poiID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	links, err := h.links.ListByPoi(r.Context(), poiID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileDetail{Profile: profile, Links: links})
}

// List handles GET /api/v1/poi with pagination.
func (h *PoiHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.listPage(r.Context(), page, pageSize)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PoiHandler) listPage(ctx context.Context, page, pageSize int) (*ProfilePage, error) {
	load := func(ctx context.Context) (interface{}, error) {
		items, total, err := h.profiles.List(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		return &ProfilePage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
	}

	if h.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.(*ProfilePage), nil
	}

	var result ProfilePage
	key := fmt.Sprintf("profiles:page:%d:%d", page, pageSize)
	if err := h.cache.GetOrSet(ctx, key, &result, listCacheTTL, load); err != nil {
		return nil, err
	}
	return &result, nil
}
