package service

import (
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	"github.com/loomcommerce/paygate/internal/processor"
	"gorm.io/datatypes"
)

// responseFromIntent translates the remote intent status into the host-facing
// outcome. The status string is authoritative; nothing is inferred locally.
func responseFromIntent(intent *processor.PaymentIntent) *domain.PaymentResponse {
	resp := &domain.PaymentResponse{
		Reference: intent.ID,
		Data:      datatypes.JSON(intent.Raw),
	}

	switch intent.Status {
	case processor.StatusSucceeded, processor.StatusRequiresCapture:
		resp.Success = true
	case processor.StatusProcessing:
		resp.Processing = true
	case processor.StatusRequiresAction:
		if intent.NextAction != nil {
			resp.RedirectURL = intent.NextAction.RedirectToURL.URL
		}
	default:
		if intent.LastPaymentError != nil {
			resp.Message = intent.LastPaymentError.Message
			resp.Code = intent.LastPaymentError.Code
		} else {
			resp.Message = "payment could not be completed"
		}
	}
	return resp
}

func responseFromRefund(refund *processor.Refund) *domain.PaymentResponse {
	resp := &domain.PaymentResponse{
		Reference: refund.ID,
		Data:      datatypes.JSON(refund.Raw),
	}
	switch refund.Status {
	case "succeeded", "pending":
		resp.Success = true
	default:
		resp.Message = "refund was not accepted"
	}
	return resp
}

// responseFromError converts a remote fault into a structured failure so the
// host never sees a raw transport error.
func responseFromError(err error) *domain.PaymentResponse {
	if apiErr, ok := processor.IsAPIError(err); ok {
		return &domain.PaymentResponse{
			Message: apiErr.Message,
			Code:    apiErr.Code,
		}
	}
	return &domain.PaymentResponse{
		Message: "payment processor is unavailable",
	}
}
