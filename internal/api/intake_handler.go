package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/core"
	"sellervault-backend-go/internal/middleware"
	"sellervault-backend-go/internal/models"
)

// IntakeHandler exposes the intake controller over HTTP.
type IntakeHandler struct {
	controller core.IntakeController
	sessions   *core.SessionRegistry
	logger     *zap.Logger
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(controller core.IntakeController, sessions *core.SessionRegistry, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{controller: controller, sessions: sessions, logger: logger}
}

// mapIntakeErrorToStatus maps intake errors to HTTP status codes.
func mapIntakeErrorToStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrMemberUnresolved):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrVaultNotOwned):
		return http.StatusForbidden
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrActionInFlight), errors.Is(err, core.ErrSellerNotVerified):
		return http.StatusConflict
	case errors.Is(err, core.ErrIncompleteData), errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrVault):
		var vErr *core.VaultError
		if errors.As(err, &vErr) && vErr.Kind == core.VaultErrNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, core.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *IntakeHandler) member(c *gin.Context) (*models.Member, bool) {
	member, ok := middleware.MemberFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.MsgMemberNotLoaded})
		return nil, false
	}
	return member, true
}

// respond writes the rendered view with the status derived from err. Error
// details stay in the log; the client only sees the message shown in the view.
func (h *IntakeHandler) respond(c *gin.Context, member *models.Member, view *renderedView, err error) {
	resp := view.response()
	if s, getErr := h.sessions.Get(member.ID); getErr == nil {
		resp.State = string(s.State())
	}
	if err != nil {
		status := mapIntakeErrorToStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Unexpected intake error", zap.String("memberId", member.ID), zap.Error(err))
		} else {
			h.logger.Warn("Intake action failed", zap.String("memberId", member.ID), zap.Int("status", status), zap.Error(err))
		}
		resp.Error = resp.ErrorMessage
		if resp.Error == "" {
			resp.Error = publicErrorMessage(status)
		}
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// publicErrorMessage is the client-facing text for a status when the view has none.
func publicErrorMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return core.MsgMemberNotLoaded
	case http.StatusForbidden:
		return "Access to this vault submission is denied."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The request conflicts with the current state of your vault."
	case http.StatusUnprocessableEntity:
		return "The submitted data is invalid or incomplete."
	case http.StatusBadGateway:
		return "The vault service is unavailable. Please try again."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again."
	default:
		return "An unexpected internal server error occurred."
	}
}

type viewAction func(ctx context.Context, member *models.Member, view core.View) error

// run executes a controller action against a view built from inputs.
func (h *IntakeHandler) run(c *gin.Context, inputs map[string]string, fn viewAction) {
	member, ok := h.member(c)
	if !ok {
		return
	}
	view := newRenderedView(inputs)
	err := fn(c.Request.Context(), member, view)
	h.respond(c, member, view, err)
}

// OpenSession handles POST /intake/session?returnTo=|redirect=|from=
func (h *IntakeHandler) OpenSession(c *gin.Context) {
	member, ok := h.member(c)
	if !ok {
		return
	}
	target := core.FirstRedirectTarget(c.Query("returnTo"), c.Query("redirect"), c.Query("from"))
	view := newRenderedView(nil)
	_, err := h.controller.Open(c.Request.Context(), member, target, view)
	h.respond(c, member, view, err)
}

func bindCard(c *gin.Context) (models.CardInput, bool) {
	var req models.CardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return req, false
	}
	return req, true
}

func bindBank(c *gin.Context) (models.BankInput, bool) {
	var req models.BankInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return req, false
	}
	return req, true
}

// SubmitCard handles POST /intake/card
func (h *IntakeHandler) SubmitCard(c *gin.Context) {
	req, ok := bindCard(c)
	if !ok {
		return
	}
	h.run(c, map[string]string{
		core.ElemCardNumber: req.Number,
		core.ElemCardCVV:    req.CVV,
		core.ElemCardExpiry: req.Expiry,
	}, h.controller.SubmitCard)
}

// SubmitBank handles POST /intake/bank
func (h *IntakeHandler) SubmitBank(c *gin.Context) {
	req, ok := bindBank(c)
	if !ok {
		return
	}
	h.run(c, map[string]string{
		core.ElemAccountNumber: req.AccountNumber,
		core.ElemRoutingNumber: req.RoutingNumber,
	}, h.controller.SubmitBank)
}

// UpdateCard handles PUT /intake/card
func (h *IntakeHandler) UpdateCard(c *gin.Context) {
	req, ok := bindCard(c)
	if !ok {
		return
	}
	h.run(c, map[string]string{
		core.ElemAdjCardNumber: req.Number,
		core.ElemAdjCardCVV:    req.CVV,
		core.ElemAdjCardExpiry: req.Expiry,
	}, h.controller.UpdateCard)
}

// UpdateBank handles PUT /intake/bank
func (h *IntakeHandler) UpdateBank(c *gin.Context) {
	req, ok := bindBank(c)
	if !ok {
		return
	}
	h.run(c, map[string]string{
		core.ElemAdjAccountNumber: req.AccountNumber,
		core.ElemAdjRoutingNumber: req.RoutingNumber,
	}, h.controller.UpdateBank)
}

func (h *IntakeHandler) ChangeCard(c *gin.Context) { h.run(c, nil, h.controller.ChangeCard) }

func (h *IntakeHandler) ChangeBank(c *gin.Context) { h.run(c, nil, h.controller.ChangeBank) }

func (h *IntakeHandler) CancelCardUpdate(c *gin.Context) {
	h.run(c, nil, h.controller.CancelCardUpdate)
}

func (h *IntakeHandler) CancelBankUpdate(c *gin.Context) {
	h.run(c, nil, h.controller.CancelBankUpdate)
}

// CheckApproval handles POST /intake/approval/check
func (h *IntakeHandler) CheckApproval(c *gin.Context) {
	member, ok := h.member(c)
	if !ok {
		return
	}
	view := newRenderedView(nil)
	outcome, err := h.controller.CheckApproval(c.Request.Context(), member, view)
	if err == nil && outcome != nil {
		promoted := outcome.Promoted
		view.out.Promoted = &promoted
	}
	h.respond(c, member, view, err)
}

// FinalizeVault handles POST /intake/vault/:vaultId/finalize
func (h *IntakeHandler) FinalizeVault(c *gin.Context) {
	member, ok := h.member(c)
	if !ok {
		return
	}
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.FinalizeVaultRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
			return
		}
	}

	result, err := h.controller.FinalizeVault(c.Request.Context(), member, vaultID, req.ProcessingResult)
	if err != nil {
		status := mapIntakeErrorToStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Unexpected finalize error", zap.String("vaultId", vaultID), zap.Error(err))
		} else {
			h.logger.Warn("Finalize failed", zap.String("vaultId", vaultID), zap.Int("status", status), zap.Error(err))
		}
		c.JSON(status, ErrorResponse{Error: publicErrorMessage(status)})
		return
	}

	resp := FinalizeResponse{VaultID: result.VaultID, Status: string(result.Status)}
	if result.CleanupErr != nil {
		resp.CleanupWarning = "The submission was processed but its cleanup did not complete."
	}
	c.JSON(http.StatusOK, resp)
}
