package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	errs "reportfire/errors"
	"reportfire/internal/lifecycle"
	"reportfire/internal/state"
	"reportfire/internal/store"
)

const (
	PageSize = 15
)

// HttpRouteHandler serves the monitoring dashboard as a JSON API: job
// listings, per-job logs, status charts and the stop/restart/delete actions.
type HttpRouteHandler struct {
	families  map[string]*lifecycle.Service
	records   store.JobRecordStore
	monitor   store.MonitoringStore
	users     store.UserStore
	SecretKey string
	UseAuth   bool
	Port      uint
}

func NewRouteHandler(
	families map[string]*lifecycle.Service,
	records store.JobRecordStore,
	monitor store.MonitoringStore,
	users store.UserStore,
	secretKey string,
	useAuth bool,
	port uint,
) *HttpRouteHandler {
	return &HttpRouteHandler{
		families:  families,
		records:   records,
		monitor:   monitor,
		users:     users,
		SecretKey: secretKey,
		UseAuth:   useAuth,
		Port:      port,
	}
}

// Routes builds the dashboard mux.
func (handler *HttpRouteHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", handler.authMiddleware(handler.handleJobs))
	mux.HandleFunc("/job-logs", handler.authMiddleware(handler.handleJobLogs))
	mux.HandleFunc("/charts", handler.authMiddleware(handler.handleCharts))
	mux.HandleFunc("/change-job-status", handler.authMiddleware(handler.handleChangeJobStatus))
	mux.HandleFunc("/login", handler.handleLogin)
	mux.HandleFunc("/logout", handler.handleLogout)
	return mux
}

func (handler *HttpRouteHandler) Serve() error {
	addr := fmt.Sprintf(":%d", handler.Port)
	printBanner(addr)
	return http.ListenAndServe(addr, handler.Routes())
}

func (handler *HttpRouteHandler) handleJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pageNumber := getPageNumber(r)
	statusParam := strings.TrimSpace(r.URL.Query().Get("status"))
	status := state.JobStatus(statusParam)

	jobs, err := handler.records.GetAll(ctx, pageNumber, PageSize, status)
	if err != nil {
		log.Printf("failed to fetch jobs: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (handler *HttpRouteHandler) handleJobLogs(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	entries, err := handler.monitor.QueryByJobID(r.Context(), id)
	if err != nil {
		log.Printf("failed to fetch logs of job %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch job logs")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (handler *HttpRouteHandler) handleCharts(w http.ResponseWriter, r *http.Request) {
	jobCounts, err := handler.records.CountGroupedByStatus(r.Context())
	if err != nil {
		log.Println("Error in job counts:", err)
		writeError(w, http.StatusInternalServerError, "Failed to get job counts")
		return
	}

	logCounts, err := handler.monitor.CountGroupedByStatus(r.Context())
	if err != nil {
		log.Println("Error in log counts:", err)
		writeError(w, http.StatusInternalServerError, "Failed to get log counts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":     jobCounts,
		"job_logs": logCounts,
	})
}

func (handler *HttpRouteHandler) handleChangeJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	id := r.FormValue("id")
	family := r.FormValue("family")
	action := r.FormValue("action")

	if id == "" || family == "" {
		writeError(w, http.StatusBadRequest, "Invalid Parameters")
		return
	}

	svc, ok := handler.families[family]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown family '%s'", family))
		return
	}

	log.Printf("Changing status of job %s to %s\n", id, action)

	var err error
	var message string
	switch action {
	case "stop":
		err = svc.Stop(r.Context(), id)
		message = "Job stopped successfully!"
	case "restart":
		err = svc.Restart(r.Context(), id)
		message = "Job restarted successfully!"
	case "delete":
		err = svc.Delete(r.Context(), id)
		message = "Job deleted successfully!"
	default:
		writeError(w, http.StatusBadRequest, "Invalid Action")
		return
	}

	if err != nil {
		writeError(w, changeStatusCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// changeStatusCode maps lifecycle errors onto status codes: a missing job is
// 404, a runtime pause/resume failure is an internal 500, and everything else
// (invalid transitions, bad parameters) is the caller's fault.
func changeStatusCode(err error) int {
	// A pause/resume failure means the record exists but the runtime could not
	// act on its trigger. That is an internal inconsistency, not a bad request.
	var pauseErr *errs.PauseError
	var resumeErr *errs.ResumeError
	if errors.As(err, &pauseErr) || errors.As(err, &resumeErr) {
		return http.StatusInternalServerError
	}
	if errs.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func (handler *HttpRouteHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if handler.users == nil {
		writeError(w, http.StatusServiceUnavailable, "no user store configured")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := handler.users.Find(r.Context(), username, password)
	if err != nil || user == nil {
		if err != nil {
			log.Println(err.Error())
		}
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    signAuthCookie(username, handler.SecretKey),
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

func (handler *HttpRouteHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   authCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
