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

// DayHandler is a thin HTTP transport over DayService.
type DayHandler struct {
	svc *services.DayService
}

func NewDayHandler(svc *services.DayService) *DayHandler { return &DayHandler{svc: svc} }

// dateAndID reads the {date} and {id} path variables.
func dateAndID(r *http.Request) (string, int64, error) {
	vars := mux.Vars(r)
	if err := validate.Date(vars["date"]); err != nil {
		return "", 0, err
	}
	id, err := validate.ID("id", vars["id"])
	return vars["date"], id, err
}

// GetDay GET /api/days/{date}
func (h *DayHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetDay(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, b)
}

// NextDay GET /api/days/{date}/next
func (h *DayHandler) NextDay(w http.ResponseWriter, r *http.Request) { h.shift(w, r, 1) }

// PrevDay GET /api/days/{date}/prev
func (h *DayHandler) PrevDay(w http.ResponseWriter, r *http.Request) { h.shift(w, r, -1) }

func (h *DayHandler) shift(w http.ResponseWriter, r *http.Request, n int) {
	b, err := h.svc.ShiftDay(r.Context(), mux.Vars(r)["date"], n)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, b)
}

// PutDay PUT /api/days/{date}
func (h *DayHandler) PutDay(w http.ResponseWriter, r *http.Request) {
	var in model.DayBundle
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.PutDay(r.Context(), mux.Vars(r)["date"], in)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ListDates GET /api/dates
func (h *DayHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.svc.Dates(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"dates": dates, "count": len(dates)})
}

// AddTask POST /api/days/{date}/tasks
func (h *DayHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.AddTask(req.Text); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	t, err := h.svc.AddTask(r.Context(), mux.Vars(r)["date"], req.Text)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, t)
}

// ToggleTask PATCH /api/days/{date}/tasks/{id}/toggle
func (h *DayHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	date, id, err := dateAndID(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	t, err := h.svc.ToggleTask(r.Context(), date, id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, t)
}

// DeleteTask DELETE /api/days/{date}/tasks/{id}
func (h *DayHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	date, id, err := dateAndID(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if err := h.svc.DeleteTask(r.Context(), date, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNote POST /api/days/{date}/notes
func (h *DayHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.AddNote(req.Title, req.Content); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	n, err := h.svc.AddNote(r.Context(), mux.Vars(r)["date"], req.Title, req.Content)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, n)
}

// DeleteNote DELETE /api/days/{date}/notes/{id}
func (h *DayHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	date, id, err := dateAndID(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if err := h.svc.DeleteNote(r.Context(), date, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddEvent POST /api/days/{date}/events
// The event lands in the bundle of its own date when it names one.
func (h *DayHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.AddEvent(r.Context(), mux.Vars(r)["date"], ev)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// DeleteEvent DELETE /api/days/{date}/events/{id}
func (h *DayHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	date, id, err := dateAndID(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), date, id); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveEvent POST /api/days/{date}/events/{id}/move
func (h *DayHandler) MoveEvent(w http.ResponseWriter, r *http.Request) {
	date, id, err := dateAndID(r)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	var req struct {
		ToDate string `json:"toDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	ev, err := h.svc.MoveEvent(r.Context(), date, id, req.ToDate)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ev)
}

// SetDiary PUT /api/days/{date}/diary
func (h *DayHandler) SetDiary(w http.ResponseWriter, r *http.Request) {
	var d model.Diary
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Diary(d.Text); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	out, err := h.svc.SetDiary(r.Context(), mux.Vars(r)["date"], d)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DiaryHTML GET /api/days/{date}/diary.html
func (h *DayHandler) DiaryHTML(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DiaryHTML(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// SetStatus PUT /api/days/{date}/status
func (h *DayHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var st model.Status
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.SetStatus(r.Context(), mux.Vars(r)["date"], st)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ListEvents GET /api/events?from=&to=
func (h *DayHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if err := validate.Date(from); err != nil {
		respond.WriteBadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	to, err := validate.OptionalDate(to, from)
	if err != nil {
		respond.WriteBadRequest(w, "to must be YYYY-MM-DD")
		return
	}
	evs, err := h.svc.Events(r.Context(), from, to)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": evs, "count": len(evs)})
}

// Search GET /api/search?q=&from=&to=
func (h *DayHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := validate.Search(q.Get("q")); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	for _, k := range []string{"from", "to"} {
		if v := q.Get(k); v != "" {
			if err := validate.Date(v); err != nil {
				respond.WriteBadRequest(w, k+" must be YYYY-MM-DD")
				return
			}
		}
	}
	hits, err := h.svc.Search(r.Context(), q.Get("q"), q.Get("from"), q.Get("to"))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"hits": hits, "count": len(hits)})
}
