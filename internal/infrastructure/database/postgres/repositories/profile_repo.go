// Package repositories provides the PostgreSQL-backed implementations of the
// domain repository interfaces.  Every public method accepts a
// context.Context and uses parameterised queries exclusively; constraint
// violations and missing rows are translated into the platform's typed
// errors so no pgx detail leaks past this package.
package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const profileColumns = `
	id, poi_id, name_english, name_chinese, name_normalized, aliases,
	agent_number, license_number, company, role,
	status, merged_into_poi_id, created_by,
	email_count, whatsapp_count, patrol_count, surveillance_count, hand_delivered_count,
	first_mentioned_date, last_mentioned_date,
	created_at, updated_at, version`

// ProfileRepository is the PostgreSQL implementation of poi.ProfileRepository.
type ProfileRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewProfileRepository constructs a ready-to-use ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool, logger logging.Logger) *ProfileRepository {
	return &ProfileRepository{pool: pool, logger: logger.Named("profile_repo")}
}

func (r *ProfileRepository) Insert(ctx context.Context, p *poi.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO poi_profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		p.ID, p.PoiID, p.NameEnglish, p.NameChinese, p.NameNormalized, p.Aliases,
		p.AgentNumber, p.LicenseNumber, p.Company, p.Role,
		p.Status, p.MergedIntoPoiID, p.CreatedBy,
		p.EmailCount, p.WhatsAppCount, p.PatrolCount, p.SurveillanceCount, p.HandDeliveredCount,
		p.FirstMentionedDate, p.LastMentionedDate,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict("duplicate poi_id").WithDetail(p.PoiID).WithCause(err)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert profile")
	}
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *poi.Profile) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE poi_profiles SET
			name_english = $2, name_chinese = $3, name_normalized = $4, aliases = $5,
			agent_number = $6, license_number = $7, company = $8, role = $9,
			status = $10, merged_into_poi_id = $11,
			email_count = $12, whatsapp_count = $13, patrol_count = $14,
			surveillance_count = $15, hand_delivered_count = $16,
			first_mentioned_date = $17, last_mentioned_date = $18,
			updated_at = $19, version = $20
		WHERE poi_id = $1`,
		p.PoiID, p.NameEnglish, p.NameChinese, p.NameNormalized, p.Aliases,
		p.AgentNumber, p.LicenseNumber, p.Company, p.Role,
		p.Status, p.MergedIntoPoiID,
		p.EmailCount, p.WhatsAppCount, p.PatrolCount,
		p.SurveillanceCount, p.HandDeliveredCount,
		p.FirstMentionedDate, p.LastMentionedDate,
		p.UpdatedAt, p.Version,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update profile")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(p.PoiID)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id common.ID) (*poi.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM poi_profiles WHERE id = $1`, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load profile")
	}
	return p, nil
}

func (r *ProfileRepository) FindByPoiID(ctx context.Context, poiID string) (*poi.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM poi_profiles WHERE poi_id = $1`, poiID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(poiID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load profile")
	}
	return p, nil
}

func (r *ProfileRepository) FindAllActive(ctx context.Context) ([]*poi.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM poi_profiles WHERE status <> 'MERGED'`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan active profiles")
	}
	defer rows.Close()

	var out []*poi.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan profile row")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "profile scan aborted")
	}
	return out, nil
}

func (r *ProfileRepository) FindActiveByAgentNumber(ctx context.Context, agentNumber string) (*poi.Profile, error) {
	return r.findActiveByField(ctx, "agent_number", agentNumber)
}

func (r *ProfileRepository) FindActiveByLicense(ctx context.Context, licenseNumber string) (*poi.Profile, error) {
	return r.findActiveByField(ctx, "license_number", licenseNumber)
}

func (r *ProfileRepository) findActiveByField(ctx context.Context, column, value string) (*poi.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM poi_profiles
		 WHERE `+column+` = $1 AND status <> 'MERGED'
		 ORDER BY poi_id LIMIT 1`, value))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to look up profile by "+column)
	}
	return p, nil
}

func (r *ProfileRepository) MaxPoiID(ctx context.Context) (string, error) {
	// Length-first ordering keeps identifiers beyond POI-999 ahead of the
	// zero-padded three-digit range.
	var poiID string
	err := r.pool.QueryRow(ctx, `
		SELECT poi_id FROM poi_profiles
		WHERE poi_id LIKE 'POI-%'
		ORDER BY length(poi_id) DESC, poi_id DESC
		LIMIT 1`).Scan(&poiID)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read max poi_id")
	}
	return poiID, nil
}

func (r *ProfileRepository) List(ctx context.Context, page, pageSize int) ([]*poi.Profile, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM poi_profiles`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count profiles")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+` FROM poi_profiles
		ORDER BY length(poi_id), poi_id
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list profiles")
	}
	defer rows.Close()

	var out []*poi.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan profile row")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "profile list aborted")
	}
	return out, total, nil
}

// scanner abstracts pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (*poi.Profile, error) {
	var p poi.Profile
	err := s.Scan(
		&p.ID, &p.PoiID, &p.NameEnglish, &p.NameChinese, &p.NameNormalized, &p.Aliases,
		&p.AgentNumber, &p.LicenseNumber, &p.Company, &p.Role,
		&p.Status, &p.MergedIntoPoiID, &p.CreatedBy,
		&p.EmailCount, &p.WhatsAppCount, &p.PatrolCount, &p.SurveillanceCount, &p.HandDeliveredCount,
		&p.FirstMentionedDate, &p.LastMentionedDate,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
