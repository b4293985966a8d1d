package http

import (
	"time"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/account"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

type userResponse struct {
	ID                int64     `json:"id"`
	Role              string    `json:"role"`
	FullName          string    `json:"full_name"`
	PhoneNumber       *string   `json:"phone_number"`
	Email             *string   `json:"email"`
	DateOfBirth       string    `json:"date_of_birth,omitempty"`
	Gender            string    `json:"gender,omitempty"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func mapUser(principal model.Principal) userResponse {
	resp := userResponse{
		ID:                principal.ID,
		Role:              string(principal.Kind),
		FullName:          principal.FullName,
		PhoneNumber:       principal.Phone,
		Email:             principal.Email,
		Gender:            principal.Gender,
		PreferredLanguage: principal.PreferredLanguage,
		CreatedAt:         principal.CreatedAt,
	}
	if principal.DateOfBirth != nil {
		resp.DateOfBirth = principal.DateOfBirth.Format("2006-01-02")
	}
	return resp
}

type doctorResponse struct {
	ID               int64               `json:"id"`
	DoctorID         string              `json:"doctor_id"`
	UserID           int64               `json:"user_id"`
	LicenseNumber    string              `json:"license_number,omitempty"`
	Name             model.LocalizedText `json:"name"`
	Qualification    model.LocalizedText `json:"qualification"`
	Specialization   model.LocalizedText `json:"specialization"`
	Experience       model.LocalizedText `json:"experience"`
	Bio              model.LocalizedText `json:"bio"`
	YearsExperience  *int                `json:"years_experience,omitempty"`
	Image            string              `json:"image"`
	Rating           float64             `json:"rating"`
	Reviews          int                 `json:"reviews"`
	Availability     bool                `json:"availability"`
	AvailabilityNote model.LocalizedText `json:"availability_note"`
	Fees             int                 `json:"fees"`
	Languages        []string            `json:"languages"`
}

func mapDoctor(profile model.DoctorProfile) doctorResponse {
	languages := profile.Languages
	if languages == nil {
		languages = []string{}
	}
	return doctorResponse{
		ID:               profile.ID,
		DoctorID:         profile.Handle,
		UserID:           profile.PrincipalID,
		LicenseNumber:    profile.LicenseNumber,
		Name:             profile.Name,
		Qualification:    profile.Qualification,
		Specialization:   profile.Specialization,
		Experience:       profile.Experience,
		Bio:              profile.Bio,
		YearsExperience:  profile.YearsExperience,
		Image:            profile.Image,
		Rating:           profile.Rating,
		Reviews:          profile.Reviews,
		Availability:     profile.Available,
		AvailabilityNote: profile.AvailabilityNote,
		Fees:             profile.Fee,
		Languages:        languages,
	}
}

func mapDoctors(profiles []model.DoctorProfile) []doctorResponse {
	out := make([]doctorResponse, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, mapDoctor(profile))
	}
	return out
}

type doctorMeResponse struct {
	userResponse
	DoctorProfile doctorResponse `json:"doctor_profile"`
}

type availableDoctorResponse struct {
	doctorResponse
	AvailableSlotsCount int `json:"available_slots_count"`
}

func mapAvailableDoctors(doctors []repository.DoctorSlots) []availableDoctorResponse {
	out := make([]availableDoctorResponse, 0, len(doctors))
	for _, entry := range doctors {
		out = append(out, availableDoctorResponse{doctorResponse: mapDoctor(entry.Doctor), AvailableSlotsCount: entry.OpenSlots})
	}
	return out
}

type appointmentResponse struct {
	ID        int64     `json:"id"`
	SlotID    string    `json:"slot_id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID *int64    `json:"patient_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Available bool      `json:"available"`
	Status    string    `json:"status"`
	Symptoms  *string   `json:"symptoms"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func mapAppointment(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:        a.ID,
		SlotID:    a.SlotID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      a.Date,
		Time:      a.Time,
		Available: a.Available,
		Status:    string(a.Status),
		Symptoms:  a.Symptoms,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
	}
}

func mapAppointments(appointments []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, mapAppointment(a))
	}
	return out
}

type healthRecordResponse struct {
	ID          int64      `json:"id"`
	PatientID   int64      `json:"patient_id"`
	RecordType  string     `json:"record_type"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	FileURL     *string    `json:"file_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func mapHealthRecord(record model.HealthRecord) healthRecordResponse {
	return healthRecordResponse{
		ID:          record.ID,
		PatientID:   record.PatientID,
		RecordType:  record.RecordType,
		Title:       record.Title,
		Description: record.Description,
		FileURL:     record.FileURL,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

type productPayload struct {
	ID                   int64    `json:"id,omitempty"`
	ProductID            string   `json:"product_id"`
	Name                 string   `json:"name"`
	GenericName          string   `json:"generic_name"`
	Brand                string   `json:"brand"`
	Category             string   `json:"category"`
	Price                float64  `json:"price"`
	OriginalPrice        float64  `json:"original_price"`
	Image                string   `json:"image"`
	Description          string   `json:"description"`
	PrescriptionRequired bool     `json:"prescription_required"`
	InStock              bool     `json:"in_stock"`
	PackSize             string   `json:"pack_size"`
	Dosage               string   `json:"dosage"`
	Manufacturer         string   `json:"manufacturer"`
	Uses                 []string `json:"uses"`
	Rating               float64  `json:"rating"`
	Reviews              int      `json:"reviews"`
}

func (p productPayload) model() model.Product {
	return model.Product{
		ProductID:            p.ProductID,
		Name:                 p.Name,
		GenericName:          p.GenericName,
		Brand:                p.Brand,
		Category:             p.Category,
		Price:                p.Price,
		OriginalPrice:        p.OriginalPrice,
		Image:                p.Image,
		Description:          p.Description,
		PrescriptionRequired: p.PrescriptionRequired,
		InStock:              p.InStock,
		PackSize:             p.PackSize,
		Dosage:               p.Dosage,
		Manufacturer:         p.Manufacturer,
		Uses:                 p.Uses,
		Rating:               p.Rating,
		Reviews:              p.Reviews,
	}
}

func mapProduct(p model.Product) productPayload {
	uses := p.Uses
	if uses == nil {
		uses = []string{}
	}
	return productPayload{
		ID:                   p.ID,
		ProductID:            p.ProductID,
		Name:                 p.Name,
		GenericName:          p.GenericName,
		Brand:                p.Brand,
		Category:             p.Category,
		Price:                p.Price,
		OriginalPrice:        p.OriginalPrice,
		Image:                p.Image,
		Description:          p.Description,
		PrescriptionRequired: p.PrescriptionRequired,
		InStock:              p.InStock,
		PackSize:             p.PackSize,
		Dosage:               p.Dosage,
		Manufacturer:         p.Manufacturer,
		Uses:                 uses,
		Rating:               p.Rating,
		Reviews:              p.Reviews,
	}
}

type remedyResponse struct {
	ID           int64    `json:"id"`
	RemedyID     string   `json:"remedy_id"`
	Symptoms     []string `json:"symptoms"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RemediesList []string `json:"remedies_list"`
	Warning      string   `json:"warning"`
	AudioText    string   `json:"audio_text"`
}

func mapRemedy(r model.Remedy) remedyResponse {
	return remedyResponse{
		ID:           r.ID,
		RemedyID:     r.RemedyID,
		Symptoms:     nonNil(r.Symptoms),
		Title:        r.Title,
		Description:  r.Description,
		RemediesList: nonNil(r.Steps),
		Warning:      r.Warning,
		AudioText:    r.AudioText,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

func mapToken(token account.Token) tokenResponse {
	return tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
