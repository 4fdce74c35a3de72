package api

import (
	"encoding/json"
	"net/http"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
	"github.com/Fau-Caudullo/happyapp/internal/api/validate"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// MetricsHandler exposes health metrics, water intake, cycle tracking and moods.
type MetricsHandler struct {
	svc *services.HealthService
}

func NewMetricsHandler(svc *services.HealthService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

// ListMetrics GET /api/metrics?type=&grouped=true
func (h *MetricsHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("grouped") == "true" {
		groups, err := h.svc.GroupedMetrics(r.Context())
		if err != nil {
			respond.WriteServiceError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"metrics": groups})
		return
	}
	rows, err := h.svc.ListMetrics(r.Context(), q.Get("type"))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"metrics": rows, "count": len(rows)})
}

// CreateMetric POST /api/metrics
func (h *MetricsHandler) CreateMetric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string   `json:"type"`
		Value *float64 `json:"value"`
		Unit  string   `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Value == nil {
		respond.WriteBadRequest(w, "value is required")
		return
	}
	m, err := h.svc.AddMetric(r.Context(), req.Type, *req.Value, req.Unit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// RecordPressure POST /api/metrics/pressure
func (h *MetricsHandler) RecordPressure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Systolic  float64 `json:"systolic"`
		Diastolic float64 `json:"diastolic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	rows, err := h.svc.RecordPressure(r.Context(), req.Systolic, req.Diastolic)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"metrics": rows, "count": len(rows)})
}

// AddWater POST /api/metrics/water
// An empty body records a default glass.
func (h *MetricsHandler) AddWater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ML float64 `json:"ml"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	m, err := h.svc.AddWater(r.Context(), req.ML)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// WaterTotal GET /api/metrics/water?date=
func (h *MetricsHandler) WaterTotal(w http.ResponseWriter, r *http.Request) {
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	total, err := h.svc.WaterTotal(r.Context(), date)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"date": date, "total_ml": total})
}

// MarkPeriodStart POST /api/metrics/period-start
func (h *MetricsHandler) MarkPeriodStart(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.MarkPeriodStart(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// CycleDay GET /api/cycle?date=
// cycle_day is null when no period start applies.
func (h *MetricsHandler) CycleDay(w http.ResponseWriter, r *http.Request) {
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	day, err := h.svc.CycleDay(r.Context(), date)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"date": date, "cycle_day": day})
}

// RecordMood POST /api/moods
func (h *MetricsHandler) RecordMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	m, err := h.svc.RecordMood(r.Context(), req.Mood)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// ListMoods GET /api/moods
func (h *MetricsHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	moods, err := h.svc.ListMoods(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"moods": moods, "count": len(moods)})
}
