package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/api/middleware"
	"github.com/Fau-Caudullo/happyapp/internal/api/recovery"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Days    *services.DayService
	Health  *services.HealthService
	Journal *services.JournalService
	Almanac AlmanacSource
	Fitness AuthURLBuilder
	Status  ServiceHealth
	Log     zerolog.Logger
}

const (
	datePat = `{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}`
	idPat   = `{id:[0-9]+}`
)

// NewRouter creates the HTTP router with every API route.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(middleware.WithRequestID)
	router.Use(middleware.AccessLog(d.Log))
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(d.Status)
	dayHandler := NewDayHandler(d.Days)
	medHandler := NewMedicationHandler(d.Health)
	metricsHandler := NewMetricsHandler(d.Health)
	almanacHandler := NewAlmanacHandler(d.Almanac)
	fitnessHandler := NewFitnessHandler(d.Fitness, d.Health)
	journalHandler := NewJournalHandler(d.Journal)

	// Health and metrics
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Day bundles
	day := "/api/days/" + datePat
	router.HandleFunc(day, dayHandler.GetDay).Methods("GET")
	router.HandleFunc(day, dayHandler.PutDay).Methods("PUT")
	router.HandleFunc(day+"/next", dayHandler.NextDay).Methods("GET")
	router.HandleFunc(day+"/prev", dayHandler.PrevDay).Methods("GET")
	router.HandleFunc("/api/dates", dayHandler.ListDates).Methods("GET")

	// Tasks and notes
	router.HandleFunc(day+"/tasks", dayHandler.AddTask).Methods("POST")
	router.HandleFunc(day+"/tasks/"+idPat+"/toggle", dayHandler.ToggleTask).Methods("PATCH")
	router.HandleFunc(day+"/tasks/"+idPat, dayHandler.DeleteTask).Methods("DELETE")
	router.HandleFunc(day+"/notes", dayHandler.AddNote).Methods("POST")
	router.HandleFunc(day+"/notes/"+idPat, dayHandler.DeleteNote).Methods("DELETE")

	// Events
	router.HandleFunc(day+"/events", dayHandler.AddEvent).Methods("POST")
	router.HandleFunc(day+"/events/"+idPat, dayHandler.DeleteEvent).Methods("DELETE")
	router.HandleFunc(day+"/events/"+idPat+"/move", dayHandler.MoveEvent).Methods("POST")
	router.HandleFunc("/api/events", dayHandler.ListEvents).Methods("GET")

	// Diary and status
	router.HandleFunc(day+"/diary", dayHandler.SetDiary).Methods("PUT")
	router.HandleFunc(day+"/diary.html", dayHandler.DiaryHTML).Methods("GET")
	router.HandleFunc(day+"/status", dayHandler.SetStatus).Methods("PUT")

	router.HandleFunc("/api/search", dayHandler.Search).Methods("GET")

	// Almanac
	router.HandleFunc("/api/almanac/"+datePat, almanacHandler.GetAlmanac).Methods("GET")
	router.HandleFunc("/api/facts/{month:[0-9]{1,2}}/{day:[0-9]{1,2}}", almanacHandler.GetFact).Methods("GET")

	// Medications
	router.HandleFunc("/api/medications", medHandler.ListMedications).Methods("GET")
	router.HandleFunc("/api/medications", medHandler.CreateMedication).Methods("POST")
	router.HandleFunc("/api/medications/"+idPat, medHandler.UpdateMedication).Methods("PATCH")
	router.HandleFunc("/api/medications/"+idPat, medHandler.DeleteMedication).Methods("DELETE")
	router.HandleFunc("/api/medications/"+idPat+"/toggle", medHandler.ToggleTaken).Methods("POST")

	// Metrics, cycle and moods
	router.HandleFunc("/api/metrics", metricsHandler.ListMetrics).Methods("GET")
	router.HandleFunc("/api/metrics", metricsHandler.CreateMetric).Methods("POST")
	router.HandleFunc("/api/metrics/pressure", metricsHandler.RecordPressure).Methods("POST")
	router.HandleFunc("/api/metrics/water", metricsHandler.AddWater).Methods("POST")
	router.HandleFunc("/api/metrics/water", metricsHandler.WaterTotal).Methods("GET")
	router.HandleFunc("/api/metrics/period-start", metricsHandler.MarkPeriodStart).Methods("POST")
	router.HandleFunc("/api/cycle", metricsHandler.CycleDay).Methods("GET")
	router.HandleFunc("/api/moods", metricsHandler.RecordMood).Methods("POST")
	router.HandleFunc("/api/moods", metricsHandler.ListMoods).Methods("GET")

	// Journal
	router.HandleFunc("/api/journal", journalHandler.History).Methods("GET")
	router.HandleFunc("/api/journal/today", journalHandler.GetNote).Methods("GET")
	router.HandleFunc("/api/journal/today", journalHandler.SaveNote).Methods("PUT")

	// Fitness
	router.HandleFunc("/api/fitness/auth-url", fitnessHandler.AuthURL).Methods("GET")
	router.HandleFunc("/api/fitness/sync", fitnessHandler.SyncSteps).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","code":404}`))
	})
	return router
}
