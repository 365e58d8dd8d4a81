package devices

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BatchResult reports the outcome of one bulk insert.
type BatchResult struct {
	Attempted  int
	Inserted   int
	Duplicates int
}

// Store persists device records through the shared pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertBatch writes a bounded batch in a single multi-row statement.
// ON CONFLICT DO NOTHING keeps the insert unordered: a record whose
// identity tuple already exists for its organization is skipped without
// affecting its siblings, and the first insert wins. Any execution error
// means the store itself failed and the whole batch is in doubt.
func (s *Store) InsertBatch(ctx context.Context, records []DeviceRecord) (BatchResult, error) {
	result := BatchResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	query, args := insertStatement(records)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("insert device batch: %w", err)
	}
	result.Inserted = int(tag.RowsAffected())
	result.Duplicates = result.Attempted - result.Inserted
	return result, nil
}

func insertStatement(records []DeviceRecord) (string, []any) {
	var b strings.Builder
	b.WriteString(`INSERT INTO device_masters
		(id, section, device_type, brand, device_model, lead_accessories,
		 mri_compatible, mri_condition, organization_id) VALUES `)

	args := make([]any, 0, len(records)*9)
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			uuid.NewString(), r.Section, r.DeviceType, r.Brand, r.DeviceModel,
			r.LeadAccessories, r.MRICompatible, r.MRICondition, r.OrganizationID,
		)
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args
}
