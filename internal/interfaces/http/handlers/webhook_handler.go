package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/interfaces/http/response"
	"onyx.backend/pkg/crypto"
)

const (
	// DuplicateHeader marks a response for an already recorded reference
	DuplicateHeader = "X-Funding-Duplicate"

	maxWebhookBodyBytes = 1 << 20
)

// WebhookService processes signed provider events
type WebhookService interface {
	ProcessPaystackWebhook(ctx context.Context, raw []byte, signature string) (*entities.WebhookResult, error)
}

// WebhookHandler handles webhook endpoints
type WebhookHandler struct {
	service WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandlePaystackWebhook verifies and applies a payment provider event. The
// body is read raw; the signature covers the exact bytes received.
// POST /api/funding/webhook
func (h *WebhookHandler) HandlePaystackWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, domainerrors.NewAppError(http.StatusRequestEntityTooLarge, domainerrors.CodeValidation, "Payload too large", err))
			return
		}
		response.Error(c, domainerrors.ValidationError("Unable to read request body"))
		return
	}

	result, err := h.service.ProcessPaystackWebhook(c.Request.Context(), raw, c.GetHeader(crypto.PaystackSignatureHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Duplicate {
		c.Header(DuplicateHeader, "true")
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}
