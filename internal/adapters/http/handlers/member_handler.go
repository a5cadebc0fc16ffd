package handlers

import (
	"assofund/internal/core/services"
	"assofund/internal/pkg/pagination"
	"assofund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles roster requests
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// Create handles POST /api/v1/members
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req services.CreateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.Create(c.Context(), &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Created(c, "Member registered", member)
}

// List handles GET /api/v1/members
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	members, total, err := h.memberService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return respondDomainError(c, err)
	}

	return c.JSON(pagination.NewResponse(members, params, total))
}

// Search handles GET /api/v1/members/search?q=...
func (h *MemberHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	limit := c.QueryInt("limit", 20)

	members, err := h.memberService.Search(c.Context(), query, limit)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Members found", members)
}

// Get handles GET /api/v1/members/:membNo
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	member, err := h.memberService.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Member retrieved", member)
}

// SetActiveRequest represents the activation toggle payload
type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetActive handles PATCH /api/v1/members/:membNo/active
func (h *MemberHandler) SetActive(c *fiber.Ctx) error {
	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.IsActive == nil {
		return response.BadRequest(c, "is_active is required")
	}

	member, err := h.memberService.SetActive(c.Context(), c.Params("membNo"), *req.IsActive)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Member updated", member)
}
