package client

import (
	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	DayBundle        = model.DayBundle
	Task             = model.Task
	Note             = model.Note
	Event            = model.Event
	Fact             = model.Fact
	Almanac          = model.Almanac
	MedicationStatus = services.MedicationStatus
	JournalNote      = model.JournalNote
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
	Timestamp  string          `json:"timestamp"`
}
