package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"onyx.backend/internal/domain/entities"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/pkg/crypto"
	"onyx.backend/pkg/logger"
	"onyx.backend/pkg/metrics"
	"onyx.backend/pkg/utils"
)

const (
	userIDCustomField   = "user_id"
	fallbackCurrency    = "NGN"
	unauthorizedMessage = "Unauthorized"
)

// FundingRecorder runs the shared ledger sequence
type FundingRecorder interface {
	Record(ctx context.Context, in entities.RecordFundingInput) (*entities.RecordFundingResult, error)
}

// WebhookUsecase handles signed charge notifications from the payment provider
type WebhookUsecase struct {
	recorder        FundingRecorder
	secret          string
	defaultCurrency string
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(recorder FundingRecorder, secret, defaultCurrency string) *WebhookUsecase {
	defaultCurrency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if defaultCurrency == "" {
		defaultCurrency = fallbackCurrency
	}
	return &WebhookUsecase{
		recorder:        recorder,
		secret:          secret,
		defaultCurrency: defaultCurrency,
	}
}

// ProcessPaystackWebhook authenticates raw against signature and credits the
// payer for charge.success events. raw must be the body exactly as received.
func (u *WebhookUsecase) ProcessPaystackWebhook(ctx context.Context, raw []byte, signature string) (*entities.WebhookResult, error) {
	if u.secret == "" {
		metrics.WebhookSignatureFailures.Inc()
		logger.Error(ctx, "Webhook rejected, provider secret is not configured")
		return nil, domainerrors.Unauthorized(unauthorizedMessage)
	}
	if err := crypto.VerifyPayload(u.secret, raw, signature); err != nil {
		metrics.WebhookSignatureFailures.Inc()
		logger.Warn(ctx, "Webhook signature rejected",
			zap.Bool("signature_present", !errors.Is(err, crypto.ErrMissingSignature)),
			zap.Int("body_bytes", len(raw)),
		)
		return nil, domainerrors.Unauthorized(unauthorizedMessage)
	}

	var event entities.PaystackEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Warn(ctx, "Webhook payload is not valid JSON", zap.Error(err))
		return nil, domainerrors.ValidationError("Invalid JSON payload")
	}

	if event.Event != entities.PaystackEventChargeSuccess {
		metrics.FundingEvents.WithLabelValues(string(entities.FundingSourcePaystack), metrics.OutcomeIgnored).Inc()
		logger.Info(ctx, "Webhook event ignored", zap.String("event", event.Event))
		return &entities.WebhookResult{Event: event.Event}, nil
	}

	in, err := u.chargeInput(event.Data)
	if err != nil {
		logger.Warn(ctx, "Webhook charge rejected",
			zap.String("reference", event.Data.Reference),
			zap.Error(err),
		)
		return nil, err
	}

	res, err := u.recorder.Record(ctx, in)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Webhook charge processed",
		zap.String("reference", in.TxReference),
		zap.String("user_id", in.UserID.String()),
		zap.Bool("duplicate", res.Duplicate),
	)
	return &entities.WebhookResult{
		Event:     event.Event,
		Processed: true,
		Duplicate: res.Duplicate,
	}, nil
}

func (u *WebhookUsecase) chargeInput(data entities.PaystackChargeData) (entities.RecordFundingInput, error) {
	reference := strings.TrimSpace(data.Reference)
	if reference == "" {
		return entities.RecordFundingInput{}, domainerrors.ValidationError("Missing transaction reference")
	}

	rawUserID, ok := data.Metadata.CustomField(userIDCustomField)
	if !ok {
		return entities.RecordFundingInput{}, domainerrors.ValidationError("Missing user_id in metadata")
	}
	userID, err := utils.ParseCanonicalUUID(rawUserID)
	if err != nil {
		return entities.RecordFundingInput{}, domainerrors.ValidationError("Invalid user_id in metadata")
	}

	if data.Amount <= 0 {
		return entities.RecordFundingInput{}, domainerrors.ValidationError("Amount must be a positive number")
	}

	currency := strings.ToUpper(strings.TrimSpace(data.Currency))
	if currency == "" {
		currency = u.defaultCurrency
	}

	return entities.RecordFundingInput{
		UserID:        userID,
		Amount:        data.MajorAmount(),
		Currency:      currency,
		TxReference:   reference,
		WalletAddress: null.String{},
		Source:        entities.FundingSourcePaystack,
	}, nil
}
