package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

const linkColumns = `
	id, poi_id, source_type, source_id, extraction_method, confidence_score,
	created_at, updated_at, version`

// LinkRepository is the PostgreSQL implementation of intel.LinkRepository.
type LinkRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewLinkRepository constructs a ready-to-use LinkRepository.
func NewLinkRepository(pool *pgxpool.Pool, logger logging.Logger) *LinkRepository {
	return &LinkRepository{pool: pool, logger: logger.Named("link_repo")}
}

func (r *LinkRepository) Insert(ctx context.Context, l *intel.Link) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO intelligence_links (`+linkColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		l.ID, l.PoiID, l.SourceType, l.SourceID, l.ExtractionMethod, l.ConfidenceScore,
		l.CreatedAt, l.UpdatedAt, l.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict("duplicate link").WithDetail(l.Key()).WithCause(err)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert link")
	}
	return nil
}

func (r *LinkRepository) Find(ctx context.Context, poiID string, st types.SourceType, sourceID string) (*intel.Link, error) {
	l, err := scanLink(r.pool.QueryRow(ctx, `
		SELECT `+linkColumns+` FROM intelligence_links
		WHERE poi_id = $1 AND source_type = $2 AND source_id = $3`,
		poiID, st, sourceID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to look up link")
	}
	return l, nil
}

func (r *LinkRepository) UpdateConfidence(ctx context.Context, poiID string, st types.SourceType, sourceID string, confidence float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE intelligence_links
		SET confidence_score = $4, updated_at = now(), version = version + 1
		WHERE poi_id = $1 AND source_type = $2 AND source_id = $3`,
		poiID, st, sourceID, confidence,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update link confidence")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeLinkNotFound, "link not found")
	}
	return nil
}

func (r *LinkRepository) ListByPoi(ctx context.Context, poiID string) ([]*intel.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+linkColumns+` FROM intelligence_links
		WHERE poi_id = $1
		ORDER BY created_at DESC`, poiID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list links")
	}
	defer rows.Close()

	var out []*intel.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan link row")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "link list aborted")
	}
	return out, nil
}

func (r *LinkRepository) DeleteBySource(ctx context.Context, st types.SourceType, sourceID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM intelligence_links
		WHERE source_type = $1 AND source_id = $2`, st, sourceID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete links for source")
	}
	return tag.RowsAffected(), nil
}

func (r *LinkRepository) CountByPoi(ctx context.Context, poiID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM intelligence_links WHERE poi_id = $1`, poiID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count links")
	}
	return n, nil
}

func scanLink(s scanner) (*intel.Link, error) {
	var l intel.Link
	err := s.Scan(
		&l.ID, &l.PoiID, &l.SourceType, &l.SourceID, &l.ExtractionMethod, &l.ConfidenceScore,
		&l.CreatedAt, &l.UpdatedAt, &l.Version,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LegacyLinkWriter mirrors registrations into legacy_profile_links.  The
// registrar treats failures here as log-only.
type LegacyLinkWriter struct {
	pool *pgxpool.Pool
}

// NewLegacyLinkWriter constructs a LegacyLinkWriter.
func NewLegacyLinkWriter(pool *pgxpool.Pool) *LegacyLinkWriter {
	return &LegacyLinkWriter{pool: pool}
}

func (w *LegacyLinkWriter) Write(ctx context.Context, l *intel.Link) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO legacy_profile_links (poi_id, source_type, source_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poi_id, source_type, source_id) DO NOTHING`,
		l.PoiID, l.SourceType, l.SourceID, l.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSecondaryLinkWrite, "legacy link write failed")
	}
	return nil
}
