package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/interfaces/http/middleware"
	"onyx.backend/internal/interfaces/http/response"
	"onyx.backend/pkg/utils"
)

// FundingService is the ledger surface used by the funding endpoints
type FundingService interface {
	RecordDirect(ctx context.Context, req *entities.DirectFundingRequest) (*entities.RecordFundingResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*entities.UserBalance, error)
	ListRecords(ctx context.Context, userID uuid.UUID, pagination utils.PaginationParams) ([]*entities.FundingRecord, utils.PaginationMeta, error)
}

// FundingHandler handles direct funding and ledger queries
type FundingHandler struct {
	service FundingService
}

// NewFundingHandler creates a new funding handler
func NewFundingHandler(service FundingService) *FundingHandler {
	return &FundingHandler{service: service}
}

// LogFunding records a wallet-initiated top-up claim
// POST /api/funding/log
func (h *FundingHandler) LogFunding(c *gin.Context) {
	var req entities.DirectFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	if subject, ok := middleware.GetProviderSubject(c); ok && !sameUser(subject, req.UserID) {
		response.Error(c, domainerrors.Forbidden("Token subject does not match user_id"))
		return
	}

	result, err := h.service.RecordDirect(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Duplicate {
		c.Header(DuplicateHeader, "true")
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}

// GetBalance returns a user's stored balance
// GET /api/funding/users/:userId/balance
func (h *FundingHandler) GetBalance(c *gin.Context) {
	userID, err := utils.ParseCanonicalUUID(c.Param("userId"))
	if err != nil {
		response.Error(c, domainerrors.ValidationError("Invalid user id"))
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, balance)
}

// ListRecords returns a user's funding records, newest first
// GET /api/funding/users/:userId/records
func (h *FundingHandler) ListRecords(c *gin.Context) {
	userID, err := utils.ParseCanonicalUUID(c.Param("userId"))
	if err != nil {
		response.Error(c, domainerrors.ValidationError("Invalid user id"))
		return
	}

	var params utils.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, domainerrors.ValidationError("Invalid pagination parameters"))
		return
	}
	params = utils.GetPaginationParams(params.Page, params.Limit)

	records, meta, err := h.service.ListRecords(c.Request.Context(), userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"records":    records,
		"pagination": meta,
	})
}

// sameUser reports whether the token subject names the claimed user. Both
// sides are compared as UUIDs so letter case does not matter. A user_id that
// is not a UUID is left for request validation to reject.
func sameUser(subject, userID string) bool {
	claimed, err := utils.ParseCanonicalUUID(userID)
	if err != nil {
		return true
	}
	sub, err := utils.ParseCanonicalUUID(subject)
	return err == nil && sub == claimed
}

// bindError maps a JSON binding failure to a validation error. Absent
// required fields and an empty body read as missing fields; anything else
// is a malformed payload.
func bindError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) || errors.Is(err, io.EOF) {
		return domainerrors.MissingFields()
	}
	return domainerrors.ValidationError(err.Error())
}
