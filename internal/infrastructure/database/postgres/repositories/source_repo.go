package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// sourceTables maps each intelligence channel to its storage table.  All five
// share the same alleged_* column layout.
var sourceTables = map[types.SourceType]string{
	types.SourceEmail:          "intel_emails",
	types.SourceWhatsApp:       "intel_whatsapp_messages",
	types.SourcePatrol:         "intel_patrol_records",
	types.SourceSurveillance:   "intel_surveillance_records",
	types.SourceReceivedByHand: "intel_hand_documents",
}

// SourceRepository is the PostgreSQL implementation of intel.SourceRepository.
type SourceRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewSourceRepository constructs a ready-to-use SourceRepository.
func NewSourceRepository(pool *pgxpool.Pool, logger logging.Logger) *SourceRepository {
	return &SourceRepository{pool: pool, logger: logger.Named("source_repo")}
}

func (r *SourceRepository) ScanCandidates(ctx context.Context, st types.SourceType) ([]*intel.SourceRecord, error) {
	table, ok := sourceTables[st]
	if !ok {
		return nil, errors.New(errors.ErrCodeSourceUnsupported, "unsupported source type").
			WithDetail(st.String())
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, alleged_names_english, alleged_names_chinese,
		       alleged_agent_number, alleged_license_number,
		       alleged_company, alleged_role, received_at
		FROM `+table+`
		WHERE alleged_names_english <> ''
		   OR alleged_names_chinese <> ''
		   OR alleged_agent_number <> ''
		ORDER BY received_at`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceScanFailed, "failed to scan "+table)
	}
	defer rows.Close()

	var out []*intel.SourceRecord
	for rows.Next() {
		var rec intel.SourceRecord
		if err := rows.Scan(
			&rec.ID, &rec.NamesEnglish, &rec.NamesChinese,
			&rec.AgentNumber, &rec.LicenseNumber,
			&rec.Company, &rec.Role, &rec.ReceivedAt,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSourceScanFailed, "failed to scan source row")
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceScanFailed, "source scan aborted")
	}
	return out, nil
}
