package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/service"
	"github.com/spec-kit/membership-service/pkg/util"
)

// MembersHandler exposes registration and directory endpoints.
type MembersHandler struct {
	members *service.MemberService
	gate    ratelimit.Gate
}

// NewMembersHandler constructs handler.
func NewMembersHandler(members *service.MemberService, gate ratelimit.Gate) *MembersHandler {
	return &MembersHandler{members: members, gate: gate}
}

// Register handles POST /members.
func (h *MembersHandler) Register(c *fiber.Ctx) error {
	if err := h.gate.Allow(c.UserContext(), ratelimit.OpRegister); err != nil {
		return err
	}

	var req dto.MemberRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return util.NewValidationError("email required", nil)
	}

	member, err := h.members.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Role:      domain.MemberRole(req.Role),
	})
	if err != nil {
		// The account may exist even though code delivery failed; report the
		// member so the client can drive a resend.
		if member != nil && util.HasCode(err, util.CodeNotificationFailure) {
			return c.Status(http.StatusCreated).JSON(fiber.Map{
				"data": fiber.Map{
					"member":       dto.NewMemberResponse(member),
					"notification": "delivery_failed",
				},
			})
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"member": dto.NewMemberResponse(member)},
	})
}

// Get handles GET /members/:id.
func (h *MembersHandler) Get(c *fiber.Ctx) error {
	member, err := h.members.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"member": dto.NewMemberResponse(member)}})
}

// List handles GET /members.
func (h *MembersHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	members, err := h.members.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, dto.NewMemberResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"members": out}})
}

// Update handles PUT /members/:id.
func (h *MembersHandler) Update(c *fiber.Ctx) error {
	var req dto.MemberUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := service.UpdateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	}
	if req.Role != nil {
		role := domain.MemberRole(*req.Role)
		input.Role = &role
	}

	member, err := h.members.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"member": dto.NewMemberResponse(member)}})
}

// Delete handles DELETE /members/:id.
func (h *MembersHandler) Delete(c *fiber.Ctx) error {
	if err := h.members.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
