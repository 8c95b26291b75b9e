package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/history"
	"medibot-afrika/internal/platform/apperr"
	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/report"
	"medibot-afrika/internal/session"
	"medibot-afrika/internal/viewstate"
)

type Handler struct {
	sessions *session.Manager
	history  *history.Store
	slips    *report.Service
}

func NewHandler(sessions *session.Manager, store *history.Store, slips *report.Service) *Handler {
	return &Handler{sessions: sessions, history: store, slips: slips}
}

// RegisterRoutes mounts the API. limit guards the routes that start work
// (session creation and submission) and may be nil.
func RegisterRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.With(limit).Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Put("/view", h.SelectView)
		r.Put("/language", h.SetLanguage)
		r.Post("/theme/toggle", h.ToggleTheme)
		r.Post("/new", h.NewConsultation)
		r.With(limit).Post("/consultations", h.SubmitConsultation)
	})

	r.Get("/history", h.ListHistory)
	r.Get("/history/{recordID}/referral.pdf", h.ReferralSlip)
}

// FormValue accepts a JSON string or number. Browsers send the age field of
// the intake form either way, and validation needs the raw text.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

type SubmitRequest struct {
	Name     string    `json:"name"`
	Age      FormValue `json:"age"`
	Gender   string    `json:"gender"`
	Symptoms string    `json:"symptoms"`
}

type SubmitResponse struct {
	Record             consultation.ConsultationRecord `json:"record"`
	PersistenceWarning string                          `json:"persistence_warning,omitempty"`
	Session            SessionResponse                 `json:"session"`
}

type SessionResponse struct {
	ID string `json:"id"`
	viewstate.Snapshot
	Processing bool `json:"processing"`
}

type ViewRequest struct {
	View viewstate.View `json:"view"`
}

type LanguageRequest struct {
	Language consultation.Language `json:"language"`
}

type HistoryResponse struct {
	Records []consultation.ConsultationRecord `json:"records"`
	Total   int                               `json:"total"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, sessionResponse(s))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) SelectView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}
	if _, err := s.View.Select(req.View); err != nil {
		writeError(w, r, apperr.BadRequest(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req LanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}
	if err := s.View.SetLanguage(req.Language); err != nil {
		writeError(w, r, apperr.BadRequest(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.View.ToggleTheme()
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) NewConsultation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.View.NewConsultation()
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) SubmitConsultation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	out, err := s.Submit(r.Context(), consultation.FormInput{
		Name:     req.Name,
		Age:      string(req.Age),
		Gender:   req.Gender,
		Symptoms: req.Symptoms,
	})
	if err != nil {
		writeError(w, r, submitError(err))
		return
	}

	resp := SubmitResponse{Record: out.Record, Session: sessionResponse(s)}
	if out.PersistenceWarning != nil {
		resp.PersistenceWarning = out.PersistenceWarning.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := history.ParseUrgencyFilter(r.URL.Query().Get("urgency"))
	if err != nil {
		writeError(w, r, apperr.BadRequest(err.Error()))
		return
	}
	all := h.history.Load(r.Context())
	writeJSON(w, http.StatusOK, HistoryResponse{
		Records: history.Query(all, r.URL.Query().Get("search"), filter),
		Total:   len(all),
	})
}

func (h *Handler) ReferralSlip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	rec, ok := h.history.Find(r.Context(), id)
	if !ok {
		writeError(w, r, apperr.NotFound("record", id))
		return
	}

	pdf, err := h.slips.ReferralPDF(rec)
	if err != nil {
		if errors.Is(err, report.ErrFontUnavailable) {
			writeError(w, r, &apperr.AppError{
				Err:        err,
				Message:    "referral slips are unavailable on this server",
				Code:       "PDF_UNAVAILABLE",
				HTTPStatus: http.StatusServiceUnavailable,
			})
			return
		}
		writeError(w, r, apperr.Internal(err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(rec)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, r, apperr.NotFound("session", id))
		return nil, false
	}
	return s, true
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID.String(),
		Snapshot:   s.View.Snapshot(),
		Processing: s.Engine.State() == consultation.StateProcessing,
	}
}

func submitError(err error) *apperr.AppError {
	var verr *consultation.ValidationError
	switch {
	case errors.As(err, &verr):
		return apperr.Validation("invalid "+verr.Field, map[string]string{
			"field":  verr.Field,
			"reason": verr.Reason,
		})
	case errors.Is(err, consultation.ErrSubmissionInProgress):
		return apperr.Conflict(err.Error())
	default:
		return apperr.Unavailable("diagnosis could not be completed", err)
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", err,
		)
	}
	writeJSON(w, appErr.HTTPStatus, errorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
