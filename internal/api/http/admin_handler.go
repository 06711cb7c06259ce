package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/jobs"
)

type AdminHandler struct {
	jobs *jobs.JobRunner
}

func NewAdminHandler(runner *jobs.JobRunner) *AdminHandler {
	return &AdminHandler{jobs: runner}
}

// RunDailyJobs triggers the overdue and reminder passes outside the schedule.
func (h *AdminHandler) RunDailyJobs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.jobs.RunDailyJobs()
	if errors.Is(err, jobs.ErrJobInProgress) {
		respondFail(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Daily jobs completed", summary)
}

func RegisterAdminRoutes(router *mux.Router, h *AdminHandler) {
	router.HandleFunc("/admin/jobs/daily", h.RunDailyJobs).Methods(http.MethodPost)
}
