package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/response"
	reportsvc "github.com/worklane/timeledger-backend-go/internal/service/report"
	summarysvc "github.com/worklane/timeledger-backend-go/internal/service/summary"
)

type SummaryHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	Regenerate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SignByStaff(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	SetFinancials(w http.ResponseWriter, r *http.Request)
	ExportPDF(w http.ResponseWriter, r *http.Request)
}

type SummaryHandlerImpl struct {
	service       *summarysvc.Service
	reportService *reportsvc.Service
}

func NewSummaryHandler(service *summarysvc.Service, reportService *reportsvc.Service) SummaryHandler {
	return &SummaryHandlerImpl{
		service:       service,
		reportService: reportService,
	}
}

func (h *SummaryHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req summary.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Summary generate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	s, err := h.service.Generate(r.Context(), req)
	if err != nil {
		slog.Error("Summary generate error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Monthly summary generated", summary.NewSummaryResponse(s))
}

func (h *SummaryHandlerImpl) Regenerate(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Regenerate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Summary regenerate error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Monthly summary regenerated", summary.NewSummaryResponse(s))
}

func (h *SummaryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	filter := summary.SummaryFilter{}
	q := r.URL.Query()

	if v := q.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	if !identity.IsAdmin() {
		filter.EmployeeID = identity.EmployeeID
	}
	if v := q.Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			filter.Month = &m
		}
	}
	if v := q.Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			filter.Year = &y
		}
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	summaries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		slog.Error("Summary list error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, summary.NewSummaryResponses(summaries), listMeta(filter.Page, filter.Limit, total))
}

func (h *SummaryHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}
	response.Success(w, summary.NewSummaryResponse(s))
}

// SignByStaff records the employee's own signature over their summary. Even
// admins cannot sign for someone else.
func (h *SummaryHandlerImpl) SignByStaff(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	s, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if identity.EmployeeID == nil || *identity.EmployeeID != s.EmployeeID {
		response.HandleError(w, user.ErrNotRecordOwner)
		return
	}

	var req summary.SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	signed, err := h.service.SignByStaff(r.Context(), s.ID, identity.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Summary signed", summary.NewSummaryResponse(signed))
}

func (h *SummaryHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	var req summary.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	approved, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), identity.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Summary approved", summary.NewSummaryResponse(approved))
}

func (h *SummaryHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	var req struct {
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	rejected, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Remarks)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Summary rejected", summary.NewSummaryResponse(rejected))
}

func (h *SummaryHandlerImpl) SetFinancials(w http.ResponseWriter, r *http.Request) {
	var req summary.FinancialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	s, err := h.service.SetFinancials(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		slog.Error("Summary financials error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Summary financials updated", summary.NewSummaryResponse(s))
}

func (h *SummaryHandlerImpl) ExportPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}

	data, filename, err := h.reportService.SummaryPDF(r.Context(), s.ID)
	if err != nil {
		slog.Error("Summary PDF export error", "error", err, "summary_id", s.ID)
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *SummaryHandlerImpl) ownedSummary(w http.ResponseWriter, r *http.Request) (summary.Summary, bool) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return summary.Summary{}, false
	}

	s, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return summary.Summary{}, false
	}

	if !identity.Owns(s.EmployeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return summary.Summary{}, false
	}

	return s, true
}
