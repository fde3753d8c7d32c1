package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/service"
)

// VerifyHandlers serves personhood verification
type VerifyHandlers struct {
	verifyService *service.VerifyService
}

// NewVerifyHandlers creates new verification handlers
func NewVerifyHandlers(verifyService *service.VerifyService) *VerifyHandlers {
	return &VerifyHandlers{verifyService: verifyService}
}

// Verify checks a personhood proof for the authenticated address
func (h *VerifyHandlers) Verify(c *gin.Context) {
	var req struct {
		Payload *core.ProofPayload `json:"payload" binding:"required"`
		Action  string             `json:"action" binding:"required"`
		Signal  string             `json:"signal"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.verifyService.Verify(c.Request.Context(), c.GetString(userAddressKey), req.Payload, req.Action, req.Signal)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidProof):
			c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": err.Error()})
		case errors.Is(err, core.ErrAlreadyVerified):
			c.JSON(http.StatusConflict, gin.H{"status": http.StatusConflict, "error": "Proof already used by another account"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": http.StatusInternalServerError, "error": "Verification failed"})
		}
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"verifyRes": res, "status": status})
}

// Status reports whether the authenticated address is verified
func (h *VerifyHandlers) Status(c *gin.Context) {
	v, err := h.verifyService.Status(c.Request.Context(), c.GetString(userAddressKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load verification"})
		return
	}

	if v == nil {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true, "verification": v})
}
