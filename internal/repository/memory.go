package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

// Memory is an in-process Store with the same uniqueness and booking rules as the
// Postgres schema. It backs STORE_DRIVER=memory and the test suites.
type Memory struct {
	mu sync.Mutex

	nextID       map[string]int64
	principals   map[int64]model.Principal
	doctors      map[int64]model.DoctorProfile
	appointments map[int64]model.Appointment
	records      map[int64]model.HealthRecord
	products     map[int64]model.Product
	remedies     map[int64]model.Remedy

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		nextID:       map[string]int64{},
		principals:   map[int64]model.Principal{},
		doctors:      map[int64]model.DoctorProfile{},
		appointments: map[int64]model.Appointment{},
		records:      map[int64]model.HealthRecord{},
		products:     map[int64]model.Product{},
		remedies:     map[int64]model.Remedy{},
		now:          time.Now,
	}
}

func (m *Memory) id(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

// Put stores a principal as-is, skipping unique checks. It exists for fixtures that
// need states the constraints would reject.
func (m *Memory) Put(principal model.Principal) model.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if principal.ID == 0 {
		principal.ID = m.id("principals")
	} else if principal.ID > m.nextID["principals"] {
		m.nextID["principals"] = principal.ID
	}
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = m.now().UTC()
	}
	m.principals[principal.ID] = principal
	return principal
}

// PutDoctorProfile stores a profile with a fixed id, for fixtures.
func (m *Memory) PutDoctorProfile(profile model.DoctorProfile) model.DoctorProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = m.id("doctors")
	} else if profile.ID > m.nextID["doctors"] {
		m.nextID["doctors"] = profile.ID
	}
	if profile.Handle == "" {
		profile.Handle = DoctorHandle(profile.PrincipalID)
	}
	m.doctors[profile.ID] = profile
	return profile
}

func (m *Memory) PutRemedy(remedy model.Remedy) model.Remedy {
	m.mu.Lock()
	defer m.mu.Unlock()
	remedy.ID = m.id("remedies")
	m.remedies[remedy.ID] = remedy
	return remedy
}

func (m *Memory) FindPrincipalByLoginKey(_ context.Context, kind model.Kind, key string) (model.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	phone, email := NormalizePhone(key), NormalizeEmail(key)
	for _, principal := range m.sortedPrincipals() {
		if principal.Kind != kind {
			continue
		}
		if (principal.Phone != nil && *principal.Phone == phone) || (principal.Email != nil && *principal.Email == email) {
			return principal, nil
		}
	}
	return model.Principal{}, ErrNotFound
}

func (m *Memory) FindPrincipal(_ context.Context, id int64, kind model.Kind) (model.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	principal, ok := m.principals[id]
	if !ok || principal.Kind != kind {
		return model.Principal{}, ErrNotFound
	}
	return principal, nil
}

func (m *Memory) Taken(_ context.Context, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch field {
	case FieldPhone, FieldEmail:
		return m.loginKeyTaken(value), nil
	case FieldLicenseNumber:
		return m.licenseTaken(value), nil
	default:
		return false, fmt.Errorf("unsupported unique field %q", field)
	}
}

// loginKeyTaken reports whether value is already a phone or an email of any principal.
func (m *Memory) loginKeyTaken(value string) bool {
	phone, email := NormalizePhone(value), NormalizeEmail(value)
	if phone == "" {
		return false
	}
	for _, principal := range m.principals {
		if (principal.Phone != nil && (*principal.Phone == phone || *principal.Phone == email)) ||
			(principal.Email != nil && (*principal.Email == email || *principal.Email == phone)) {
			return true
		}
	}
	return false
}

func (m *Memory) licenseTaken(license string) bool {
	if license == "" {
		return false
	}
	for _, profile := range m.doctors {
		if profile.LicenseNumber == license {
			return true
		}
	}
	return false
}

func (m *Memory) CreatePrincipal(_ context.Context, principal model.Principal) (model.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPrincipal(principal)
}

func (m *Memory) insertPrincipal(principal model.Principal) (model.Principal, error) {
	principal.Phone = normalizedPtr(principal.Phone, NormalizePhone)
	principal.Email = normalizedPtr(principal.Email, NormalizeEmail)
	if principal.Phone == nil && principal.Email == nil {
		return model.Principal{}, fmt.Errorf("principal requires a phone or email")
	}
	if principal.Phone != nil && m.loginKeyTaken(*principal.Phone) {
		return model.Principal{}, &ConflictError{Field: FieldPhone}
	}
	if principal.Email != nil && m.loginKeyTaken(*principal.Email) {
		return model.Principal{}, &ConflictError{Field: FieldEmail}
	}
	principal.ID = m.id("principals")
	principal.CreatedAt = m.now().UTC()
	m.principals[principal.ID] = principal
	return principal, nil
}

func (m *Memory) CreateDoctor(_ context.Context, principal model.Principal, profile model.DoctorProfile) (model.Principal, model.DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Both checks run before either write, which is what the transaction gives Postgres.
	if m.licenseTaken(profile.LicenseNumber) {
		return model.Principal{}, model.DoctorProfile{}, &ConflictError{Field: FieldLicenseNumber}
	}
	created, err := m.insertPrincipal(principal)
	if err != nil {
		return model.Principal{}, model.DoctorProfile{}, err
	}
	profile.ID = m.id("doctors")
	profile.PrincipalID = created.ID
	if profile.Handle == "" {
		profile.Handle = DoctorHandle(created.ID)
	}
	profile.Languages = nonNil(profile.Languages)
	m.doctors[profile.ID] = profile
	return created, profile, nil
}

func (m *Memory) GetDoctorProfile(_ context.Context, id int64) (model.DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.doctors[id]
	if !ok {
		return model.DoctorProfile{}, ErrNotFound
	}
	return profile, nil
}

func (m *Memory) GetDoctorProfileByPrincipal(_ context.Context, principalID int64) (model.DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, profile := range m.doctors {
		if profile.PrincipalID == principalID {
			return profile, nil
		}
	}
	return model.DoctorProfile{}, ErrNotFound
}

func (m *Memory) ListDoctors(_ context.Context, filter DoctorFilter) ([]model.DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []model.DoctorProfile{}
	for _, profile := range m.sortedDoctors() {
		if filter.AvailableOnly && !profile.Available {
			continue
		}
		if filter.Specialization != "" && !profile.Specialization.Contains(filter.Specialization) {
			continue
		}
		matched = append(matched, profile)
	}
	return paginate(matched, filter.Page), nil
}

func (m *Memory) ListDoctorsWithOpenSlots(_ context.Context, limit int) ([]DoctorSlots, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	counts := map[int64]int{}
	for _, appointment := range m.appointments {
		if openSlot(appointment) {
			counts[appointment.DoctorID]++
		}
	}
	result := []DoctorSlots{}
	for doctorID, count := range counts {
		profile, ok := m.doctors[doctorID]
		if !ok {
			continue
		}
		result = append(result, DoctorSlots{Doctor: profile, OpenSlots: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenSlots != result[j].OpenSlots {
			return result[i].OpenSlots > result[j].OpenSlots
		}
		return result[i].Doctor.ID < result[j].Doctor.ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) CreateAppointment(_ context.Context, appointment model.Appointment) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[appointment.DoctorID]; !ok {
		return model.Appointment{}, ErrNotFound
	}
	for _, existing := range m.appointments {
		if existing.SlotID == appointment.SlotID {
			return model.Appointment{}, &ConflictError{Field: FieldSlotID}
		}
	}
	if live(appointment) && m.liveSlotHeld(appointment) {
		return model.Appointment{}, ErrSlotTaken
	}
	if appointment.PatientID != nil {
		appointment.Available = false
	}
	appointment.ID = m.id("appointments")
	appointment.CreatedAt = m.now().UTC()
	m.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (m *Memory) GetAppointment(_ context.Context, id int64) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appointment, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return appointment, nil
}

func (m *Memory) FindSlot(_ context.Context, doctorID int64, date, time string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.Appointment
	for _, appointment := range m.sortedAppointments() {
		if !live(appointment) || appointment.DoctorID != doctorID || appointment.Date != date || appointment.Time != time {
			continue
		}
		if openSlot(appointment) {
			return appointment, nil
		}
		if found == nil {
			candidate := appointment
			found = &candidate
		}
	}
	if found == nil {
		return model.Appointment{}, ErrNotFound
	}
	return *found, nil
}

func (m *Memory) BookSlot(_ context.Context, id, patientID int64, symptoms *string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appointment, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if !openSlot(appointment) {
		return model.Appointment{}, ErrSlotTaken
	}
	appointment.PatientID = &patientID
	appointment.Available = false
	appointment.Status = model.StatusPending
	appointment.Symptoms = symptoms
	m.appointments[id] = appointment
	return appointment, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, id int64, patch AppointmentPatch) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appointment, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if patch.Status != nil {
		appointment.Status = *patch.Status
		if live(appointment) && m.liveSlotHeld(appointment) {
			return model.Appointment{}, ErrSlotTaken
		}
	}
	if patch.Notes != nil {
		notes := *patch.Notes
		appointment.Notes = &notes
	}
	m.appointments[id] = appointment
	return appointment, nil
}

func (m *Memory) ListAppointments(_ context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []model.Appointment{}
	for _, appointment := range m.sortedAppointments() {
		if filter.DoctorID != nil && appointment.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && (appointment.PatientID == nil || *appointment.PatientID != *filter.PatientID) {
			continue
		}
		if filter.OpenOnly && !openSlot(appointment) {
			continue
		}
		matched = append(matched, appointment)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date < matched[j].Date
		}
		return matched[i].Time < matched[j].Time
	})
	return paginate(matched, filter.Page), nil
}

func (m *Memory) CreateHealthRecord(_ context.Context, record model.HealthRecord) (model.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.principals[record.PatientID]; !ok {
		return model.HealthRecord{}, ErrNotFound
	}
	record.ID = m.id("records")
	record.CreatedAt = m.now().UTC()
	record.UpdatedAt = nil
	m.records[record.ID] = record
	return record, nil
}

func (m *Memory) GetHealthRecord(_ context.Context, id int64) (model.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return model.HealthRecord{}, ErrNotFound
	}
	return record, nil
}

func (m *Memory) ListHealthRecords(_ context.Context, patientID *int64, page Page) ([]model.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := sortedKeys(m.records)
	matched := []model.HealthRecord{}
	for i := len(ids) - 1; i >= 0; i-- {
		record := m.records[ids[i]]
		if patientID != nil && record.PatientID != *patientID {
			continue
		}
		matched = append(matched, record)
	}
	return paginate(matched, page), nil
}

func (m *Memory) ListProducts(_ context.Context, page Page) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]model.Product, 0, len(m.products))
	for _, id := range sortedKeys(m.products) {
		products = append(products, m.products[id])
	}
	return paginate(products, page), nil
}

func (m *Memory) CreateProduct(_ context.Context, product model.Product) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.ProductID == product.ProductID {
			return model.Product{}, &ConflictError{Field: FieldProductID}
		}
	}
	product.ID = m.id("products")
	product.Uses = nonNil(product.Uses)
	m.products[product.ID] = product
	return product, nil
}

func (m *Memory) ListRemedies(_ context.Context, page Page) ([]model.Remedy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	remedies := make([]model.Remedy, 0, len(m.remedies))
	for _, id := range sortedKeys(m.remedies) {
		remedies = append(remedies, m.remedies[id])
	}
	return paginate(remedies, page), nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) sortedPrincipals() []model.Principal {
	principals := make([]model.Principal, 0, len(m.principals))
	for _, id := range sortedKeys(m.principals) {
		principals = append(principals, m.principals[id])
	}
	return principals
}

func (m *Memory) sortedDoctors() []model.DoctorProfile {
	doctors := make([]model.DoctorProfile, 0, len(m.doctors))
	for _, id := range sortedKeys(m.doctors) {
		doctors = append(doctors, m.doctors[id])
	}
	return doctors
}

func (m *Memory) sortedAppointments() []model.Appointment {
	appointments := make([]model.Appointment, 0, len(m.appointments))
	for _, id := range sortedKeys(m.appointments) {
		appointments = append(appointments, m.appointments[id])
	}
	return appointments
}

// liveSlotHeld reports whether another live appointment holds the same doctor, date and time.
func (m *Memory) liveSlotHeld(appointment model.Appointment) bool {
	for _, existing := range m.appointments {
		if existing.ID != appointment.ID && live(existing) &&
			existing.DoctorID == appointment.DoctorID && existing.Date == appointment.Date && existing.Time == appointment.Time {
			return true
		}
	}
	return false
}

func live(appointment model.Appointment) bool {
	return appointment.Status != model.StatusCancelled
}

func openSlot(appointment model.Appointment) bool {
	return live(appointment) && appointment.Available && appointment.PatientID == nil
}

func sortedKeys[V any](items map[int64]V) []int64 {
	keys := make([]int64, 0, len(items))
	for id := range items {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func paginate[T any](items []T, page Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}
