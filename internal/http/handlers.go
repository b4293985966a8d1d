package http

import (
	"net/http"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/appointment"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/records"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	availableOnly, err := boolQuery(r, "available_only")
	if err != nil {
		writeError(w, err)
		return
	}
	doctors, err := s.catalog.Doctors(r.Context(), repository.DoctorFilter{
		AvailableOnly:  availableOnly,
		Specialization: r.URL.Query().Get("specialization"),
		Page:           page,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDoctors(doctors))
}

func (s *Server) handleAvailableDoctors(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 10)
	if err != nil {
		writeError(w, err)
		return
	}
	doctors, err := s.catalog.AvailableDoctors(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAvailableDoctors(doctors))
}

func (s *Server) handleDoctorSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := idParam(r, "doctorID")
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	slots, err := s.appointments.OpenSlots(r.Context(), doctorID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAppointments(slots))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	appointments, err := s.appointments.List(r.Context(), principalFromContext(r.Context()), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAppointments(appointments))
}

type bookAppointmentRequest struct {
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Symptoms string `json:"symptoms"`
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	booked, err := s.appointments.Book(r.Context(), principalFromContext(r.Context()), appointment.BookingRequest{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Symptoms: req.Symptoms,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAppointment(booked))
}

type publishSlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (s *Server) handlePublishSlot(w http.ResponseWriter, r *http.Request) {
	var req publishSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	slot, err := s.appointments.PublishSlot(r.Context(), principalFromContext(r.Context()), appointment.SlotRequest{Date: req.Date, Time: req.Time})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAppointment(slot))
}

type updateAppointmentRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.appointments.Update(r.Context(), principalFromContext(r.Context()), id, appointment.UpdateRequest{Status: req.Status, Notes: req.Notes})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAppointment(updated))
}

func (s *Server) handleListHealthRecords(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.records.List(r.Context(), principalFromContext(r.Context()), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]healthRecordResponse, 0, len(list))
	for _, record := range list {
		out = append(out, mapHealthRecord(record))
	}
	writeJSON(w, http.StatusOK, out)
}

type createHealthRecordRequest struct {
	RecordType  string `json:"record_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
}

func (s *Server) handleCreateHealthRecord(w http.ResponseWriter, r *http.Request) {
	var req createHealthRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	record, err := s.records.Create(r.Context(), principalFromContext(r.Context()), records.CreateRequest{
		RecordType:  req.RecordType,
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapHealthRecord(record))
}

func (s *Server) handleGetHealthRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "recordID")
	if err != nil {
		writeError(w, err)
		return
	}
	record, err := s.records.Get(r.Context(), principalFromContext(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapHealthRecord(record))
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	products, err := s.catalog.Products(r.Context(), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]productPayload, 0, len(products))
	for _, product := range products {
		out = append(out, mapProduct(product))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	product, err := s.catalog.CreateProduct(r.Context(), principalFromContext(r.Context()), req.model())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(product))
}

func (s *Server) handleListRemedies(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.catalog.Remedies(r.Context(), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]remedyResponse, 0, len(list))
	for _, item := range list {
		out = append(out, mapRemedy(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAIRemedy(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	suggestion, err := s.remedies.Suggest(r.Context(), query.Get("symptom"), query.Get("lang"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
