package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/chart"
)

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	id, err := s.itemID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	rows, err := s.charts.Today(r.Context(), id, r.URL.Query().Get("location"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleChartToday(w http.ResponseWriter, r *http.Request) {
	id, err := s.itemID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	res, err := s.charts.TodayChart(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChartDay(w http.ResponseWriter, r *http.Request) {
	id, err := s.itemID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	date := chi.URLParam(r, "date")
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}
	day, err := time.ParseInLocation(chart.DateLayout, date, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	res, err := s.charts.DayChart(r.Context(), id, day)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChartWeek(w http.ResponseWriter, r *http.Request) {
	id, err := s.itemID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	res, err := s.charts.WeekChart(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
