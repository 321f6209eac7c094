package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/appointments/internal/platform/db"
)

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const doctorCols = `id, "firstName", "lastName", specialization, qualification,
	experience, email, phone, department, bio, rating, "isAvailable", availability`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialization, &d.Qualification,
		&d.Experience, &d.Email, &d.Phone, &d.Department, &d.Bio, &d.Rating, &d.IsAvailable, &d.RawSchedule)
	return &d, err
}

func (r *doctorRepoPG) SearchAvailable(ctx context.Context, specialization string) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctor WHERE "isAvailable" = true`
	var args []interface{}
	if specialization != "" {
		query += ` AND LOWER(specialization) LIKE LOWER($1)`
		args = append(args, "%"+escapeLike(specialization)+"%")
	}
	query += ` ORDER BY rating DESC, experience DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) GetAvailable(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1 AND "isAvailable" = true`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor %s: %w", id, err)
	}
	return d, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, "firstName", "lastName" FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return &p, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const detailCols = `a.id, a."patientId", a."doctorId", a."appointmentDate", a.duration,
	a.status, a.type, a.reason, a.symptoms, a.notes, a."createdAt", a."updatedAt",
	d."firstName", d."lastName", d.specialization,
	p."firstName", p."lastName"`

const detailFrom = ` FROM appointment a
	JOIN doctor d ON a."doctorId" = d.id
	JOIN patient p ON a."patientId" = p.id`

func (r *appointmentRepoPG) scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var a AppointmentDetail
	var status, typ string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Duration,
		&status, &typ, &a.Reason, &a.Symptoms, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		&a.DoctorFirstName, &a.DoctorLastName, &a.Specialization,
		&a.PatientFirstName, &a.PatientLastName)
	a.Status = Status(status)
	a.Type = AppointmentType(typ)
	return &a, err
}

func (r *appointmentRepoPG) LockSlot(ctx context.Context, doctorID uuid.UUID, at time.Time) error {
	key := doctorID.String() + "|" + at.Format(time.RFC3339)
	if _, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT "appointmentDate" FROM appointment
		WHERE "doctorId" = $1
		  AND "appointmentDate" >= $2 AND "appointmentDate" < $3
		  AND status NOT IN ('cancelled', 'no_show')
		ORDER BY "appointmentDate"`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list booked times: %w", err)
	}
	defer rows.Close()
	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment ("patientId", "doctorId", "appointmentDate", duration,
			status, type, reason, symptoms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, "createdAt", "updatedAt"`,
		a.PatientID, a.DoctorID, a.AppointmentDate, a.Duration,
		string(a.Status), string(a.Type), a.Reason, a.Symptoms).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, db.BookingIndexName):
		return fmt.Errorf("insert appointment: %w", ErrSlotUnavailable)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("insert appointment: %w", ErrPatientNotFound)
	default:
		return fmt.Errorf("insert appointment: %w", err)
	}
}

func (r *appointmentRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, err := r.scanDetail(r.conn(ctx).QueryRow(ctx,
		`SELECT `+detailCols+detailFrom+` WHERE a.id = $1 FOR UPDATE OF a`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, "updatedAt" = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) UpdateDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET "appointmentDate" = $2, "updatedAt" = NOW() WHERE id = $1`, id, at)
	if db.IsUniqueViolation(err, db.BookingIndexName) {
		return fmt.Errorf("move appointment: %w", ErrSlotUnavailable)
	}
	if err != nil {
		return fmt.Errorf("move appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Search(ctx context.Context, f AppointmentFilter) ([]*AppointmentDetail, error) {
	query := `SELECT ` + detailCols + detailFrom + ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != nil {
		query += fmt.Sprintf(` AND a."patientId" = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.DoctorID != nil {
		query += fmt.Sprintf(` AND a."doctorId" = $%d`, idx)
		args = append(args, *f.DoctorID)
		idx++
	}
	if f.From != nil {
		query += fmt.Sprintf(` AND a."appointmentDate" >= $%d`, idx)
		args = append(args, *f.From)
	}
	query += ` ORDER BY a."appointmentDate" ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}
	defer rows.Close()
	var items []*AppointmentDetail
	for rows.Next() {
		a, err := r.scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
