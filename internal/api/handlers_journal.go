package api

import (
	"encoding/json"
	"net/http"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
	"github.com/Fau-Caudullo/happyapp/internal/api/validate"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// JournalHandler exposes the one-note-per-day journal.
type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// GetNote GET /api/journal/today?date=
func (h *JournalHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	note, err := h.svc.NoteOn(r.Context(), date)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"date": date, "note": note})
}

// SaveNote PUT /api/journal/today
func (h *JournalHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Journal(req.Content); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	note, err := h.svc.SaveNote(r.Context(), req.Content)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, note)
}

// History GET /api/journal
func (h *JournalHandler) History(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.History(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"notes": notes, "count": len(notes)})
}
