package http

import (
	"fmt"
	"net/http"
	"time"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

type categoriesResponse struct {
	Categories []core.Category `json:"categories"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: core.Categories()})
}

// referenceTime resolves the optional date parameter, writing a 400 on
// failure.
func (s *Server) referenceTime(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	now, err := ParseReferenceTime(r.URL.Query(), s.clock.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return now, true
}

// viewKey identifies a view by ledger revision and reference day; every
// aggregation depends on nothing finer than the day.
func viewKey(rev uint64, now time.Time) string {
	return fmt.Sprintf("%d|%s", rev, now.Format(time.DateOnly))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now, ok := s.referenceTime(w, r)
	if !ok {
		return
	}
	snap, rev := s.store.SnapshotAt()
	key := viewKey(rev, now)
	view, hit := s.dashboards.Get(key)
	if !hit {
		view = analytics.Dashboard(snap, now)
		s.dashboards.Set(key, view)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	now, ok := s.referenceTime(w, r)
	if !ok {
		return
	}
	snap, rev := s.store.SnapshotAt()
	key := viewKey(rev, now)
	view, hit := s.analyses.Get(key)
	if !hit {
		view = analytics.Analytics(snap, now, s.currency)
		s.analyses.Set(key, view)
	}
	writeJSON(w, http.StatusOK, view)
}
