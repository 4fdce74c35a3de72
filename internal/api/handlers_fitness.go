package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
	"github.com/Fau-Caudullo/happyapp/internal/api/validate"
	"github.com/Fau-Caudullo/happyapp/internal/fitness"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// AuthURLBuilder builds the OAuth2 authorization URL of the fitness provider.
type AuthURLBuilder interface {
	AuthURL(state string) (string, error)
}

// FitnessHandler links the fitness provider and imports daily step totals.
type FitnessHandler struct {
	auth AuthURLBuilder
	svc  *services.HealthService
}

func NewFitnessHandler(auth AuthURLBuilder, svc *services.HealthService) *FitnessHandler {
	return &FitnessHandler{auth: auth, svc: svc}
}

// AuthURL GET /api/fitness/auth-url?state=
func (h *FitnessHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = uuid.NewString()
	}
	u, err := h.auth.AuthURL(state)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"url": u, "state": state})
}

// SyncSteps POST /api/fitness/sync?date=
// The body carries either access_token or the raw redirect fragment.
func (h *FitnessHandler) SyncSteps(w http.ResponseWriter, r *http.Request) {
	date, err := validate.OptionalDate(r.URL.Query().Get("date"), h.svc.Today())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	var req struct {
		AccessToken string `json:"access_token"`
		Fragment    string `json:"fragment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	var tok *oauth2.Token
	switch {
	case strings.TrimSpace(req.AccessToken) != "":
		tok = &oauth2.Token{AccessToken: req.AccessToken, TokenType: "Bearer"}
	case req.Fragment != "":
		if tok, err = fitness.TokenFromFragment(req.Fragment); err != nil {
			respond.WriteServiceError(w, err)
			return
		}
	default:
		respond.WriteBadRequest(w, "access_token or fragment is required")
		return
	}

	steps, err := h.svc.SyncSteps(r.Context(), tok, date)
	if errors.Is(err, fitness.ErrUnauthorized) {
		respond.WriteError(w, http.StatusUnauthorized, "fitness access token rejected")
		return
	}
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"date": date, "steps": steps})
}
