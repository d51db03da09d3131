package entitlement

import (
	errors "github.com/courseloop/courseloop/internal"
	"github.com/courseloop/courseloop/internal/core/common/validation"
)

// VerifyPaymentDTO is the client's proof of payment: the gateway-issued ids
// plus the signature binding them together.
type VerifyPaymentDTO struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Validate enforces presence only; a missing field is fatal for the request
// and is never retried.
func (d *VerifyPaymentDTO) Validate() error {
	if d.OrderID == "" || d.PaymentID == "" || d.Signature == "" {
		return errors.ErrMissingVerificationData
	}
	return nil
}

type ProgressUpdateDTO struct {
	ProgressPercentage int64 `json:"progress_percentage"`
}

func (d *ProgressUpdateDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("progress_percentage", d.ProgressPercentage).
		IntRange(0, 100, errors.ErrCodeInvalidProgress)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
