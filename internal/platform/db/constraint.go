package db

import (
	"context"
	"fmt"
)

// BookingIndexName is the partial unique index that keeps at most one live
// appointment per doctor and timestamp.
const BookingIndexName = "appointment_doctor_slot_active_uq"

// BookingIndexDDL creates BookingIndexName. The schema is owned outside this
// service; operators apply it once.
const BookingIndexDDL = `CREATE UNIQUE INDEX CONCURRENTLY IF NOT EXISTS ` + BookingIndexName + `
    ON appointment ("doctorId", "appointmentDate")
    WHERE status NOT IN ('cancelled', 'no_show');`

// BookingIndexExists checks the catalog for BookingIndexName.
func BookingIndexExists(ctx context.Context, q Querier) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'appointment' AND indexname = $1
		)`, BookingIndexName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("look up index %s: %w", BookingIndexName, err)
	}
	return exists, nil
}
