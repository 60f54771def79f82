package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/community-hub/internal/application"
)

// MemberService captures the member operations the handler depends on.
type MemberService interface {
	CreateMember(ctx context.Context, params application.CreateMemberParams) (application.Member, error)
	GetMember(ctx context.Context, principal application.Principal, id string) (application.Member, error)
	ListMembers(ctx context.Context, principal application.Principal) ([]application.Member, error)
	UpdateMemberStatus(ctx context.Context, params application.UpdateMemberStatusParams) (application.Member, error)
}

// MemberHandler serves the membership roster endpoints.
type MemberHandler struct {
	service   MemberService
	responder responder
	logger    *slog.Logger
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(service MemberService, logger *slog.Logger) *MemberHandler {
	logger = defaultLogger(logger)
	return &MemberHandler{service: service, responder: newResponder(logger), logger: logger}
}

type createMemberRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"is_admin"`
}

// Create registers a new member in PENDING status.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	member, err := h.service.CreateMember(ctx, application.CreateMemberParams{
		Principal: principal,
		Input: application.MemberInput{
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Phone:       req.Phone,
			Password:    req.Password,
			IsAdmin:     req.IsAdmin,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, toMemberResponse(member))
}

// List returns the roster.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	members, err := h.service.ListMembers(ctx, principal)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, member := range members {
		out = append(out, toMemberResponse(member))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, out)
}

// Get returns a single member record.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	member, err := h.service.GetMember(ctx, principal, chi.URLParam(r, "member_id"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toMemberResponse(member))
}

type updateMemberStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus changes a member's standing.
func (h *MemberHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req updateMemberStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	member, err := h.service.UpdateMemberStatus(ctx, application.UpdateMemberStatusParams{
		Principal: principal,
		MemberID:  chi.URLParam(r, "member_id"),
		Target:    application.MemberStatus(req.Status),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toMemberResponse(member))
}
