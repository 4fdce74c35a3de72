package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
	"github.com/Fau-Caudullo/happyapp/internal/api/validate"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// AlmanacSource serves facts, saints and proverbs.
type AlmanacSource interface {
	FactOfDay(ctx context.Context, month, day int) model.Fact
	Almanac(ctx context.Context, date string) (model.Almanac, error)
}

// AlmanacHandler exposes the fact of the day and the daily almanac.
type AlmanacHandler struct {
	src AlmanacSource
}

func NewAlmanacHandler(src AlmanacSource) *AlmanacHandler { return &AlmanacHandler{src: src} }

// GetAlmanac GET /api/almanac/{date}
func (h *AlmanacHandler) GetAlmanac(w http.ResponseWriter, r *http.Request) {
	a, err := h.src.Almanac(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// GetFact GET /api/facts/{month}/{day}
// Impossible dates such as 2/30 still answer 200 with the placeholder fact.
func (h *AlmanacHandler) GetFact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	month, day, err := validate.MonthDay(vars["month"], vars["day"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.src.FactOfDay(r.Context(), month, day))
}
