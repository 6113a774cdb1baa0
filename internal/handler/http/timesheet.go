package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/response"
	timesheetsvc "github.com/worklane/timeledger-backend-go/internal/service/timesheet"
)

type TimesheetHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Reopen(w http.ResponseWriter, r *http.Request)
	ApproveOvertime(w http.ResponseWriter, r *http.Request)
	RejectOvertime(w http.ResponseWriter, r *http.Request)
}

type TimesheetHandlerImpl struct {
	service *timesheetsvc.Service
}

func NewTimesheetHandler(service *timesheetsvc.Service) TimesheetHandler {
	return &TimesheetHandlerImpl{service: service}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *TimesheetHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req timesheet.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Timesheet create decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	// Staff file for themselves; an empty employee_id defaults to the caller.
	if req.EmployeeID == "" && identity.EmployeeID != nil {
		req.EmployeeID = *identity.EmployeeID
	}
	if !identity.Owns(req.EmployeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return
	}

	entry, err := h.service.Create(r.Context(), req)
	if err != nil {
		slog.Error("Timesheet create error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Timesheet entry created", timesheet.NewEntryResponse(entry))
}

func (h *TimesheetHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	filter := timesheet.EntryFilter{}
	q := r.URL.Query()

	if v := q.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	// Staff only ever see their own entries regardless of the filter.
	if !identity.IsAdmin() {
		filter.EmployeeID = identity.EmployeeID
	}

	if v := q.Get("project_id"); v != "" {
		filter.ProjectID = &v
	}
	if v := q.Get("approval_status"); v != "" {
		filter.ApprovalStatus = &v
	}
	if v := q.Get("ot_approval_status"); v != "" {
		filter.OvertimeStatus = &v
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateTo = &t
		}
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		slog.Error("Timesheet list error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, timesheet.NewEntryResponses(entries), listMeta(filter.Page, filter.Limit, total))
}

func (h *TimesheetHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	response.Success(w, timesheet.NewEntryResponse(entry))
}

func (h *TimesheetHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	var req timesheet.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Timesheet update decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = entry.ID

	updated, err := h.service.Update(r.Context(), req)
	if err != nil {
		slog.Error("Timesheet update error", "error", err, "entry_id", entry.ID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry updated", timesheet.NewEntryResponse(updated))
}

func (h *TimesheetHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), entry.ID); err != nil {
		slog.Error("Timesheet delete error", "error", err, "entry_id", entry.ID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry deleted", nil)
}

func (h *TimesheetHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	submitted, err := h.service.Submit(r.Context(), entry.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry submitted", timesheet.NewEntryResponse(submitted))
}

func (h *TimesheetHandlerImpl) Reopen(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	reopened, err := h.service.Reopen(r.Context(), entry.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry reopened", timesheet.NewEntryResponse(reopened))
}

func (h *TimesheetHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	approved, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry approved", timesheet.NewEntryResponse(approved))
}

func (h *TimesheetHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	rejected, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet entry rejected", timesheet.NewEntryResponse(rejected))
}

func (h *TimesheetHandlerImpl) ApproveOvertime(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	reviewed, err := h.service.ApproveOvertime(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime approved", timesheet.NewEntryResponse(reviewed))
}

func (h *TimesheetHandlerImpl) RejectOvertime(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	reviewed, err := h.service.RejectOvertime(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime rejected", timesheet.NewEntryResponse(reviewed))
}

// ownedEntry loads the path entry and enforces record ownership.
func (h *TimesheetHandlerImpl) ownedEntry(w http.ResponseWriter, r *http.Request) (timesheet.Entry, bool) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return timesheet.Entry{}, false
	}

	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return timesheet.Entry{}, false
	}

	if !identity.Owns(entry.EmployeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return timesheet.Entry{}, false
	}

	return entry, true
}

func listMeta(page, limit int, total int64) *response.Meta {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return &response.Meta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
