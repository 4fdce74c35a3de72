package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{model.NewValidationError("date", "bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", model.NewNotFoundError("task", "1")), http.StatusNotFound},
		{model.NewConflictError("medication", "dup"), http.StatusConflict},
		{model.UpstreamError{Service: "row store", Err: errors.New("503")}, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		WriteServiceError(rr, tc.err)
		if rr.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rr.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Code != tc.code || body.Error != http.StatusText(tc.code) {
			t.Fatalf("unexpected envelope: %+v", body)
		}
		if tc.code == http.StatusInternalServerError && body.Message != "internal error" {
			t.Fatalf("internal details leaked: %q", body.Message)
		}
	}
}
