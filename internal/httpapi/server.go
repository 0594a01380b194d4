package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/awaistahir/smart-boiler/internal/store"
	"github.com/awaistahir/smart-boiler/internal/weather"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server exposes the planning core over HTTP.
type Server struct {
	store   *store.Store
	weather *weather.Cache
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewServer creates the HTTP API server. logger may be nil.
func NewServer(st *store.Store, wc *weather.Cache, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		store:   st,
		weather: wc,
		log:     logger,
		now:     time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
		r.Post("/onboarding/complete", s.handleCompleteOnboarding)
		r.Get("/baselines", s.handleGetBaselines)
		r.Put("/baselines", s.handleReplaceBaselines)
		r.Get("/weather", s.handleGetWeather)
		r.Post("/plan", s.handlePlan)
		r.Get("/schedules", s.handleGetSchedules)
		r.Get("/schedules/{id}", s.handleGetSchedule)
		r.Get("/feedback/pending", s.handlePendingFeedback)
		r.Get("/feedback/recent", s.handleRecentFeedback)
		r.Post("/feedback", s.handleCreateFeedback)
		r.Get("/recurring", s.handleListRecurring)
		r.Post("/recurring", s.handleCreateRecurring)
		r.Put("/recurring/{groupID}", s.handleSetRecurringEnabled)
		r.Delete("/recurring/{groupID}", s.handleDeleteRecurring)
		r.Post("/recurring/sync", s.handleSyncRecurring)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	onboarded := false
	if cfg, err := s.store.GetConfig(); err == nil {
		onboarded = cfg.OnboardingComplete
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   "1.0.0",
		"onboarded": onboarded,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetConfig()
	if err != nil {
		respondError(w, http.StatusNotFound, "boiler not configured")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg boiler.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid config payload")
		return
	}
	if cfg.CapacityLiters <= 0 || cfg.HeatingPowerKw <= 0 {
		respondError(w, http.StatusBadRequest, "capacity and heating power must be positive")
		return
	}
	if err := s.store.SaveConfig(&cfg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SetOnboardingComplete(true); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"onboarding_complete": true})
}

func (s *Server) handleGetBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.store.GetBaselines()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, baselines)
}

func (s *Server) handleReplaceBaselines(w http.ResponseWriter, r *http.Request) {
	var baselines []boiler.Baseline
	if err := json.NewDecoder(r.Body).Decode(&baselines); err != nil {
		respondError(w, http.StatusBadRequest, "invalid baselines payload")
		return
	}
	for _, b := range baselines {
		if b.DurationMinutes < 0 {
			respondError(w, http.StatusBadRequest, "baseline duration must not be negative")
			return
		}
	}
	if err := s.store.ReplaceBaselines(baselines); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, baselines)
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetConfig()
	if err != nil {
		respondError(w, http.StatusNotFound, "boiler not configured")
		return
	}

	date := s.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse(boiler.DateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date (use YYYY-MM-DD)")
			return
		}
	}

	fc, err := s.weather.GetForecast(r.Context(), cfg.Latitude, cfg.Longitude, date)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, fc)
}

type planRequest struct {
	PeopleCount int    `json:"people_count"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan payload")
		return
	}

	cfg, err := s.store.GetConfig()
	if err != nil {
		respondError(w, http.StatusNotFound, "boiler not configured")
		return
	}
	if req.PeopleCount <= 0 {
		req.PeopleCount = cfg.DefaultPeopleCount
	}

	now := s.now()
	date := now
	if req.Date != "" {
		date, err = time.Parse(boiler.DateLayout, req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date (use YYYY-MM-DD)")
			return
		}
	}

	baselines, err := s.store.GetBaselines()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fc, err := s.weather.GetForecast(r.Context(), cfg.Latitude, cfg.Longitude, date)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	sched, err := boiler.PlanShower(req.PeopleCount, date, req.Time, *cfg, baselines, fc, now)
	switch {
	case errors.Is(err, boiler.ErrInvalidInput), errors.Is(err, boiler.ErrScheduleInPast):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, boiler.ErrNotEnoughTime):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id, err := s.store.InsertSchedule(sched)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sched.ID = id
	respondJSON(w, http.StatusCreated, sched)
}

func (s *Server) handleGetSchedules(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().Format(boiler.DateLayout)
	}
	schedules, err := s.store.GetSchedulesForDate(date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}
	sched, err := s.store.GetSchedule(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "schedule not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

func (s *Server) handlePendingFeedback(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	ids, err := s.store.SchedulesNeedingFeedback(now.Format(boiler.DateLayout), now.Format(boiler.TimeLayout))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ids)
}

func (s *Server) handleRecentFeedback(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	entries, err := s.store.RecentFeedback(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

type feedbackRequest struct {
	ScheduleID int64         `json:"schedule_id"`
	Rating     boiler.Rating `json:"rating"`
}

func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid feedback payload")
		return
	}
	switch req.Rating {
	case boiler.RatingTooCold, boiler.RatingJustRight, boiler.RatingTooHot:
	default:
		respondError(w, http.StatusBadRequest, "unknown rating")
		return
	}

	sched, err := s.store.GetSchedule(req.ScheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "schedule not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// One feedback entry per occurrence.
	if _, err := s.store.FeedbackForSchedule(sched.ID); err == nil {
		respondError(w, http.StatusConflict, "feedback already recorded for this schedule")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry := &boiler.FeedbackEntry{
		ScheduleID:        sched.ID,
		Date:              sched.Date,
		DayType:           sched.DayType,
		Rating:            req.Rating,
		HeatingMinutes:    sched.HeatingMinutes,
		CloudCoverPercent: sched.CloudCoverPercent,
		CreatedAt:         s.now(),
	}
	id, err := s.store.InsertFeedback(entry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entry.ID = id

	// Fold the rating into the baselines for similar future days.
	baselines, err := s.store.GetBaselines()
	if err == nil {
		updated := boiler.AdjustBaselines(req.Rating, sched.DayType, baselines)
		if err := s.store.ReplaceBaselines(updated); err != nil {
			s.log.Errorw("baseline adjustment failed", "schedule", sched.ID, "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	configs, err := s.store.GetRecurringSchedules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, configs)
}

type recurringRequest struct {
	Time        string `json:"time"`
	PeopleCount int    `json:"people_count"`
	Days        []int  `json:"days"` // 1=Monday .. 7=Sunday
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid recurring payload")
		return
	}
	if _, err := time.Parse(boiler.TimeLayout, req.Time); err != nil {
		respondError(w, http.StatusBadRequest, "invalid time (use HH:MM)")
		return
	}
	days := weekdaysFromISO(req.Days)
	if len(days) == 0 {
		respondError(w, http.StatusBadRequest, "at least one weekday required")
		return
	}
	if req.PeopleCount <= 0 {
		if cfg, err := s.store.GetConfig(); err == nil {
			req.PeopleCount = cfg.DefaultPeopleCount
		} else {
			req.PeopleCount = 1
		}
	}

	now := s.now()
	tpl := boiler.RecurringSchedule{
		GroupID:     uuid.NewString(),
		StartDate:   now.Format(boiler.DateLayout),
		TimeOfDay:   req.Time,
		PeopleCount: req.PeopleCount,
		Days:        days,
		Enabled:     true,
	}

	templateRow := &boiler.Schedule{
		Date:              tpl.StartDate,
		ScheduledTime:     tpl.TimeOfDay,
		PeopleCount:       tpl.PeopleCount,
		RecurringTemplate: true,
		RecurrenceGroupID: tpl.GroupID,
		RecurrenceDays:    tpl.Days,
		RecurringEnabled:  true,
	}
	if _, err := s.store.InsertSchedule(templateRow); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := boiler.SyncRecurringSchedules(s.store, []boiler.RecurringSchedule{tpl}, now, boiler.DefaultSyncDaysAhead)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"recurring": tpl,
		"created":   len(created),
	})
}

type recurringEnableRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetRecurringEnabled(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	var req recurringEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	today := s.now().Format(boiler.DateLayout)
	if err := s.store.SetRecurringEnabled(groupID, req.Enabled, today); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"group_id": groupID, "enabled": req.Enabled})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if err := s.store.DeleteRecurringGroup(groupID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.GetRecurringSchedules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	created, err := boiler.SyncRecurringSchedules(s.store, templates, s.now(), boiler.DefaultSyncDaysAhead)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"created": len(created)})
}

// weekdaysFromISO converts 1=Monday..7=Sunday ints to time.Weekday values.
func weekdaysFromISO(days []int) []time.Weekday {
	out := []time.Weekday{}
	for _, d := range days {
		if d < 1 || d > 7 {
			continue
		}
		out = append(out, time.Weekday(d%7))
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
