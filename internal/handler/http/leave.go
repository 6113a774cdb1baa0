package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/response"
	leavesvc "github.com/worklane/timeledger-backend-go/internal/service/leave"
)

type LeaveHandler interface {
	ListTypes(w http.ResponseWriter, r *http.Request)
	CreateRequest(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
	AllocateBalance(w http.ResponseWriter, r *http.Request)
	AllocateYearly(w http.ResponseWriter, r *http.Request)
	GetBalances(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	requestService *leavesvc.RequestService
	balanceService *leavesvc.BalanceService
}

func NewLeaveHandler(requestService *leavesvc.RequestService, balanceService *leavesvc.BalanceService) LeaveHandler {
	return &LeaveHandlerImpl{
		requestService: requestService,
		balanceService: balanceService,
	}
}

func (h *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.requestService.ListTypes(r.Context())
	if err != nil {
		slog.Error("Leave types list error", "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]leave.TypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, leave.NewTypeResponse(t))
	}
	response.Success(w, out)
}

func (h *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Leave request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}
	if req.EmployeeID == "" && identity.EmployeeID != nil {
		req.EmployeeID = *identity.EmployeeID
	}
	if !identity.Owns(req.EmployeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return
	}

	request, err := h.requestService.CreateRequest(r.Context(), req)
	if err != nil {
		slog.Error("Leave request create error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request created", leave.NewRequestResponse(request))
}

func (h *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	filter := leave.RequestFilter{}
	q := r.URL.Query()

	if v := q.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	if !identity.IsAdmin() {
		filter.EmployeeID = identity.EmployeeID
	}
	if v := q.Get("leave_type_id"); v != "" {
		filter.LeaveTypeID = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = &t
		}
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	requests, total, err := h.requestService.ListRequests(r.Context(), filter)
	if err != nil {
		slog.Error("Leave request list error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, leave.NewRequestResponses(requests), listMeta(filter.Page, filter.Limit, total))
}

func (h *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, ok := h.ownedRequest(w, r)
	if !ok {
		return
	}
	response.Success(w, leave.NewRequestResponse(request))
}

func (h *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	approved, err := h.requestService.Approve(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		slog.Error("Leave request approve error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", leave.NewRequestResponse(approved))
}

func (h *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
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

	rejected, err := h.requestService.Reject(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", leave.NewRequestResponse(rejected))
}

func (h *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	request, ok := h.ownedRequest(w, r)
	if !ok {
		return
	}

	cancelled, err := h.requestService.Cancel(r.Context(), request.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", leave.NewRequestResponse(cancelled))
}

func (h *LeaveHandlerImpl) AllocateBalance(w http.ResponseWriter, r *http.Request) {
	var req leave.AllocateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Balance allocate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	balance, err := h.balanceService.Allocate(r.Context(), req)
	if err != nil {
		slog.Error("Balance allocate error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balance allocated", leave.NewBalanceResponse(balance))
}

// AllocateYearly resets every auto-reset leave grant for a year to the type
// default. Destructive for manual adjustments, hence a separate explicit
// endpoint rather than part of the background sweep.
func (h *LeaveHandlerImpl) AllocateYearly(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.Year < 2000 || req.Year > 2200 {
		response.BadRequest(w, "year is out of range", nil)
		return
	}

	if err := h.balanceService.AllocateYear(r.Context(), req.Year); err != nil {
		slog.Error("Yearly allocation error", "year", req.Year, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Yearly balances allocated", nil)
}

func (h *LeaveHandlerImpl) GetBalances(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" && identity.EmployeeID != nil {
		employeeID = *identity.EmployeeID
	}
	if !identity.Owns(employeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	balances, err := h.balanceService.GetBalances(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]leave.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, leave.NewBalanceResponse(b))
	}
	response.Success(w, out)
}

func (h *LeaveHandlerImpl) ownedRequest(w http.ResponseWriter, r *http.Request) (leave.Request, bool) {
	identity, ok := middleware.IdentityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing or invalid token")
		return leave.Request{}, false
	}

	request, err := h.requestService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return leave.Request{}, false
	}

	if !identity.Owns(request.EmployeeID) {
		response.HandleError(w, user.ErrNotRecordOwner)
		return leave.Request{}, false
	}

	return request, true
}
