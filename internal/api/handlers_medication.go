package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
	"github.com/Fau-Caudullo/happyapp/internal/api/validate"
	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// MedicationHandler exposes medications and their daily taken flag.
type MedicationHandler struct {
	svc *services.HealthService
}

func NewMedicationHandler(svc *services.HealthService) *MedicationHandler {
	return &MedicationHandler{svc: svc}
}

// ListMedications GET /api/medications?date=
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	meds, err := h.svc.ListMedications(r.Context(), date)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"date": date, "medications": meds, "count": len(meds)})
}

// CreateMedication POST /api/medications
func (h *MedicationHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		ScheduleTime string `json:"schedule_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	m, err := h.svc.AddMedication(r.Context(), req.Name, req.Description, req.ScheduleTime)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// UpdateMedication PATCH /api/medications/{id}
func (h *MedicationHandler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID("id", mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	var req struct {
		Name           *string `json:"name"`
		Description    *string `json:"description"`
		ScheduleTime   *string `json:"schedule_time"`
		LastTakenDate  *string `json:"last_taken_date"`
		ClearLastTaken bool    `json:"clear_last_taken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.ClearLastTaken && req.LastTakenDate != nil {
		respond.WriteBadRequest(w, "last_taken_date and clear_last_taken are mutually exclusive")
		return
	}
	m, err := h.svc.UpdateMedication(r.Context(), id, model.MedicationUpdate{
		Name:           req.Name,
		Description:    req.Description,
		ScheduleTime:   req.ScheduleTime,
		LastTakenDate:  req.LastTakenDate,
		ClearLastTaken: req.ClearLastTaken,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// DeleteMedication DELETE /api/medications/{id}
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID("id", mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if err := h.svc.DeleteMedication(r.Context(), id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTaken POST /api/medications/{id}/toggle?date=
func (h *MedicationHandler) ToggleTaken(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID("id", mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	st, err := h.svc.ToggleTaken(r.Context(), id, date)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}
