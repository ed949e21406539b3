package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/service"
	"github.com/spec-kit/membership-service/pkg/util"
)

// ConfirmationHandler exposes the confirmation and activation endpoints.
type ConfirmationHandler struct {
	confirmation *service.ConfirmationService
	gate         ratelimit.Gate
}

// NewConfirmationHandler constructs handler.
func NewConfirmationHandler(confirmation *service.ConfirmationService, gate ratelimit.Gate) *ConfirmationHandler {
	return &ConfirmationHandler{confirmation: confirmation, gate: gate}
}

// Confirm handles POST /members/:id/confirm.
func (h *ConfirmationHandler) Confirm(c *fiber.Ctx) error {
	if err := h.gate.Allow(c.UserContext(), ratelimit.OpConfirm); err != nil {
		return err
	}

	var req dto.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Code == "" {
		return util.NewValidationError("code required", nil)
	}

	result, err := h.confirmation.Confirm(c.UserContext(), c.Params("id"), req.Code)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.ConfirmResponse{
		Message:          result.Message,
		TemporaryToken:   result.TemporaryToken,
		ExpiresInSeconds: result.ExpiresInSeconds,
	}})
}

// Resend handles POST /members/:id/confirm/resend.
func (h *ConfirmationHandler) Resend(c *fiber.Ctx) error {
	if err := h.gate.Allow(c.UserContext(), ratelimit.OpResend); err != nil {
		return err
	}

	if _, err := h.confirmation.IssueCode(c.UserContext(), c.Params("id"), service.CodeKindResend); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{"message": "confirmation code sent"},
	})
}

// ActivationToken handles POST /members/:id/activation-token.
func (h *ConfirmationHandler) ActivationToken(c *fiber.Ctx) error {
	result, err := h.confirmation.RequestActivationToken(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ConfirmResponse{
		Message:          result.Message,
		TemporaryToken:   result.TemporaryToken,
		ExpiresInSeconds: result.ExpiresInSeconds,
	}})
}

// SetPassword handles POST /members/password.
func (h *ConfirmationHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.SetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.TemporaryToken == "" || req.NewPassword == "" {
		return util.NewValidationError("temporary token and new password required", nil)
	}

	if err := h.confirmation.SetPassword(c.UserContext(), req.TemporaryToken, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password set"}})
}

// SweepCodes handles POST /admin/confirmation-codes/sweep.
func (h *ConfirmationHandler) SweepCodes(c *fiber.Ctx) error {
	deleted, err := h.confirmation.SweepExpiredCodes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{Deleted: deleted}})
}
