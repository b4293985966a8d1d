package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

var constraintFields = map[string]string{
	"principals_phone_key":               FieldPhone,
	"principals_email_key":               FieldEmail,
	"doctor_profiles_license_number_key": FieldLicenseNumber,
	"doctor_profiles_handle_key":         FieldHandle,
	"products_product_id_key":            FieldProductID,
	"appointments_slot_id_key":           FieldSlotID,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if pgErr.ConstraintName == "appointments_doctor_time_key" {
				return ErrSlotTaken
			}
			if field, ok := constraintFields[pgErr.ConstraintName]; ok {
				return &ConflictError{Field: field}
			}
			return &ConflictError{Field: pgErr.ConstraintName}
		case "23503":
			return ErrNotFound
		}
	}
	return err
}

const principalColumns = `id, kind, phone, email, password_hash, full_name, date_of_birth, gender, preferred_language, created_at`

func scanPrincipal(row scanner) (model.Principal, error) {
	var (
		principal model.Principal
		kind      string
	)
	err := row.Scan(
		&principal.ID,
		&kind,
		&principal.Phone,
		&principal.Email,
		&principal.PasswordHash,
		&principal.FullName,
		&principal.DateOfBirth,
		&principal.Gender,
		&principal.PreferredLanguage,
		&principal.CreatedAt,
	)
	principal.Kind = model.Kind(kind)
	return principal, err
}

func (s *Postgres) FindPrincipalByLoginKey(ctx context.Context, kind model.Kind, key string) (model.Principal, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE kind = $1 AND (phone = $2 OR email = $3)
		ORDER BY id
		LIMIT 1
	`, string(kind), NormalizePhone(key), NormalizeEmail(key))
	principal, err := scanPrincipal(row)
	return principal, mapError(err)
}

func (s *Postgres) FindPrincipal(ctx context.Context, id int64, kind model.Kind) (model.Principal, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE id = $1 AND kind = $2
	`, id, string(kind))
	principal, err := scanPrincipal(row)
	return principal, mapError(err)
}

// Taken checks phone and email values against both login key columns.
func (s *Postgres) Taken(ctx context.Context, field, value string) (bool, error) {
	var (
		query string
		args  []any
	)
	switch field {
	case FieldPhone, FieldEmail:
		query = `SELECT EXISTS (SELECT 1 FROM principals WHERE phone IN ($1, $2) OR email IN ($1, $2))`
		args = []any{NormalizePhone(value), NormalizeEmail(value)}
	case FieldLicenseNumber:
		query = `SELECT EXISTS (SELECT 1 FROM doctor_profiles WHERE license_number = $1)`
		args = []any{value}
	default:
		return false, fmt.Errorf("unsupported unique field %q", field)
	}
	var taken bool
	err := s.pool.QueryRow(ctx, query, args...).Scan(&taken)
	return taken, err
}

func (s *Postgres) CreatePrincipal(ctx context.Context, principal model.Principal) (model.Principal, error) {
	created, err := insertPrincipal(ctx, s.pool, principal)
	return created, mapError(err)
}

func insertPrincipal(ctx context.Context, q querier, principal model.Principal) (model.Principal, error) {
	principal.Phone = normalizedPtr(principal.Phone, NormalizePhone)
	principal.Email = normalizedPtr(principal.Email, NormalizeEmail)
	row := q.QueryRow(ctx, `
		INSERT INTO principals (kind, phone, email, password_hash, full_name, date_of_birth, gender, preferred_language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, string(principal.Kind), principal.Phone, principal.Email, principal.PasswordHash, principal.FullName,
		principal.DateOfBirth, principal.Gender, principal.PreferredLanguage)
	err := row.Scan(&principal.ID, &principal.CreatedAt)
	return principal, err
}

// CreateDoctor inserts the principal and its profile in one transaction.
func (s *Postgres) CreateDoctor(ctx context.Context, principal model.Principal, profile model.DoctorProfile) (model.Principal, model.DoctorProfile, error) {
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		created, err := insertPrincipal(ctx, tx, principal)
		if err != nil {
			return err
		}
		principal = created
		profile.PrincipalID = created.ID
		if profile.Handle == "" {
			profile.Handle = DoctorHandle(created.ID)
		}
		return tx.QueryRow(ctx, `
			INSERT INTO doctor_profiles (
				principal_id, handle, license_number, name, qualification, specialization, experience, bio,
				years_experience, fee, available, availability_note, languages, rating, reviews, image
			)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id
		`, profile.PrincipalID, profile.Handle, profile.LicenseNumber, profile.Name, profile.Qualification,
			profile.Specialization, profile.Experience, profile.Bio, profile.YearsExperience, profile.Fee,
			profile.Available, profile.AvailabilityNote, nonNil(profile.Languages), profile.Rating,
			profile.Reviews, profile.Image,
		).Scan(&profile.ID)
	})
	if err != nil {
		return model.Principal{}, model.DoctorProfile{}, mapError(err)
	}
	return principal, profile, nil
}

const doctorColumns = `d.id, d.principal_id, d.handle, COALESCE(d.license_number, ''), d.name, d.qualification,
	d.specialization, d.experience, d.bio, d.years_experience, d.fee, d.available, d.availability_note,
	d.languages, d.rating, d.reviews, d.image`

func scanDoctor(row scanner, extra ...any) (model.DoctorProfile, error) {
	var profile model.DoctorProfile
	dest := []any{
		&profile.ID,
		&profile.PrincipalID,
		&profile.Handle,
		&profile.LicenseNumber,
		&profile.Name,
		&profile.Qualification,
		&profile.Specialization,
		&profile.Experience,
		&profile.Bio,
		&profile.YearsExperience,
		&profile.Fee,
		&profile.Available,
		&profile.AvailabilityNote,
		&profile.Languages,
		&profile.Rating,
		&profile.Reviews,
		&profile.Image,
	}
	err := row.Scan(append(dest, extra...)...)
	return profile, err
}

func (s *Postgres) GetDoctorProfile(ctx context.Context, id int64) (model.DoctorProfile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctor_profiles d WHERE d.id = $1`, id)
	profile, err := scanDoctor(row)
	return profile, mapError(err)
}

func (s *Postgres) GetDoctorProfileByPrincipal(ctx context.Context, principalID int64) (model.DoctorProfile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctor_profiles d WHERE d.principal_id = $1`, principalID)
	profile, err := scanDoctor(row)
	return profile, mapError(err)
}

func (s *Postgres) ListDoctors(ctx context.Context, filter DoctorFilter) ([]model.DoctorProfile, error) {
	page := filter.Page.Normalize()
	rows, err := s.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctor_profiles d
		WHERE ($1 = false OR d.available)
		  AND ($2 = ''
		       OR position(lower($2) IN lower(d.specialization->>'en')) > 0
		       OR position(lower($2) IN lower(d.specialization->>'hi')) > 0
		       OR position(lower($2) IN lower(d.specialization->>'pa')) > 0)
		ORDER BY d.id
		OFFSET $3 LIMIT $4
	`, filter.AvailableOnly, filter.Specialization, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []model.DoctorProfile{}
	for rows.Next() {
		profile, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, profile)
	}
	return doctors, rows.Err()
}

func (s *Postgres) ListDoctorsWithOpenSlots(ctx context.Context, limit int) ([]DoctorSlots, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+doctorColumns+`, count(a.id) AS open_slots
		FROM doctor_profiles d
		JOIN appointments a ON a.doctor_id = d.id
		WHERE a.available AND a.patient_id IS NULL AND a.status <> 'cancelled'
		GROUP BY d.id
		ORDER BY open_slots DESC, d.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DoctorSlots{}
	for rows.Next() {
		var count int
		profile, err := scanDoctor(rows, &count)
		if err != nil {
			return nil, err
		}
		result = append(result, DoctorSlots{Doctor: profile, OpenSlots: count})
	}
	return result, rows.Err()
}

const appointmentColumns = `id, slot_id, doctor_id, patient_id, date, time, available, status, symptoms, notes, created_at`

func scanAppointment(row scanner) (model.Appointment, error) {
	var (
		appointment model.Appointment
		status      string
	)
	err := row.Scan(
		&appointment.ID,
		&appointment.SlotID,
		&appointment.DoctorID,
		&appointment.PatientID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Available,
		&status,
		&appointment.Symptoms,
		&appointment.Notes,
		&appointment.CreatedAt,
	)
	appointment.Status = model.AppointmentStatus(status)
	return appointment, err
}

func (s *Postgres) CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error) {
	if appointment.PatientID != nil {
		appointment.Available = false
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO appointments (slot_id, doctor_id, patient_id, date, time, available, status, symptoms, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+appointmentColumns,
		appointment.SlotID, appointment.DoctorID, appointment.PatientID, appointment.Date, appointment.Time,
		appointment.Available, string(appointment.Status), appointment.Symptoms, appointment.Notes)
	created, err := scanAppointment(row)
	return created, mapError(err)
}

func (s *Postgres) GetAppointment(ctx context.Context, id int64) (model.Appointment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appointment, err := scanAppointment(row)
	return appointment, mapError(err)
}

// FindSlot returns the live appointment occupying a doctor's date and time, preferring
// an open slot over a booking.
func (s *Postgres) FindSlot(ctx context.Context, doctorID int64, date, time string) (model.Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND time = $3 AND status <> 'cancelled'
		ORDER BY available DESC, id
		LIMIT 1
	`, doctorID, date, time)
	appointment, err := scanAppointment(row)
	return appointment, mapError(err)
}

// BookSlot claims an open slot. The conditional update is the only arbiter between
// concurrent bookings; the loser gets ErrSlotTaken.
func (s *Postgres) BookSlot(ctx context.Context, id, patientID int64, symptoms *string) (model.Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2, available = false, status = 'pending', symptoms = $3
		WHERE id = $1 AND available AND patient_id IS NULL AND status <> 'cancelled'
		RETURNING `+appointmentColumns,
		id, patientID, symptoms)
	appointment, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetAppointment(ctx, id); getErr != nil {
			return model.Appointment{}, getErr
		}
		return model.Appointment{}, ErrSlotTaken
	}
	return appointment, mapError(err)
}

func (s *Postgres) UpdateAppointment(ctx context.Context, id int64, patch AppointmentPatch) (model.Appointment, error) {
	var status *string
	if patch.Status != nil {
		value := string(*patch.Status)
		status = &value
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = COALESCE($2, status), notes = COALESCE($3, notes)
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, status, patch.Notes)
	appointment, err := scanAppointment(row)
	return appointment, mapError(err)
}

func (s *Postgres) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	page := filter.Page.Normalize()
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::bigint IS NULL OR doctor_id = $1)
		  AND ($2::bigint IS NULL OR patient_id = $2)
		  AND ($3 = false OR (available AND patient_id IS NULL AND status <> 'cancelled'))
		ORDER BY date, time, id
		OFFSET $4 LIMIT $5
	`, filter.DoctorID, filter.PatientID, filter.OpenOnly, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

const healthRecordColumns = `id, patient_id, record_type, title, description, file_url, created_at, updated_at`

func scanHealthRecord(row scanner) (model.HealthRecord, error) {
	var record model.HealthRecord
	err := row.Scan(
		&record.ID,
		&record.PatientID,
		&record.RecordType,
		&record.Title,
		&record.Description,
		&record.FileURL,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	return record, err
}

func (s *Postgres) CreateHealthRecord(ctx context.Context, record model.HealthRecord) (model.HealthRecord, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO health_records (patient_id, record_type, title, description, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+healthRecordColumns,
		record.PatientID, record.RecordType, record.Title, record.Description, record.FileURL)
	created, err := scanHealthRecord(row)
	return created, mapError(err)
}

func (s *Postgres) GetHealthRecord(ctx context.Context, id int64) (model.HealthRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+healthRecordColumns+` FROM health_records WHERE id = $1`, id)
	record, err := scanHealthRecord(row)
	return record, mapError(err)
}

func (s *Postgres) ListHealthRecords(ctx context.Context, patientID *int64, page Page) ([]model.HealthRecord, error) {
	page = page.Normalize()
	rows, err := s.pool.Query(ctx, `
		SELECT `+healthRecordColumns+`
		FROM health_records
		WHERE ($1::bigint IS NULL OR patient_id = $1)
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, patientID, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.HealthRecord{}
	for rows.Next() {
		record, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

const productColumns = `id, product_id, name, generic_name, brand, category, price, original_price, image, description,
	prescription_required, in_stock, pack_size, dosage, manufacturer, uses, rating, reviews`

func scanProduct(row scanner) (model.Product, error) {
	var product model.Product
	err := row.Scan(
		&product.ID,
		&product.ProductID,
		&product.Name,
		&product.GenericName,
		&product.Brand,
		&product.Category,
		&product.Price,
		&product.OriginalPrice,
		&product.Image,
		&product.Description,
		&product.PrescriptionRequired,
		&product.InStock,
		&product.PackSize,
		&product.Dosage,
		&product.Manufacturer,
		&product.Uses,
		&product.Rating,
		&product.Reviews,
	)
	return product, err
}

func (s *Postgres) ListProducts(ctx context.Context, page Page) ([]model.Product, error) {
	page = page.Normalize()
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id OFFSET $1 LIMIT $2`, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *Postgres) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (
			product_id, name, generic_name, brand, category, price, original_price, image, description,
			prescription_required, in_stock, pack_size, dosage, manufacturer, uses, rating, reviews
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+productColumns,
		product.ProductID, product.Name, product.GenericName, product.Brand, product.Category, product.Price,
		product.OriginalPrice, product.Image, product.Description, product.PrescriptionRequired, product.InStock,
		product.PackSize, product.Dosage, product.Manufacturer, nonNil(product.Uses), product.Rating,
		product.Reviews)
	created, err := scanProduct(row)
	return created, mapError(err)
}

func (s *Postgres) ListRemedies(ctx context.Context, page Page) ([]model.Remedy, error) {
	page = page.Normalize()
	rows, err := s.pool.Query(ctx, `
		SELECT id, remedy_id, symptoms, title, description, steps, warning, audio_text
		FROM remedies
		ORDER BY id
		OFFSET $1 LIMIT $2
	`, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	remedies := []model.Remedy{}
	for rows.Next() {
		var remedy model.Remedy
		if err := rows.Scan(
			&remedy.ID,
			&remedy.RemedyID,
			&remedy.Symptoms,
			&remedy.Title,
			&remedy.Description,
			&remedy.Steps,
			&remedy.Warning,
			&remedy.AudioText,
		); err != nil {
			return nil, err
		}
		remedies = append(remedies, remedy)
	}
	return remedies, rows.Err()
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func normalizedPtr(value *string, normalize func(string) string) *string {
	if value == nil {
		return nil
	}
	normalized := normalize(*value)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
