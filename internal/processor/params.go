package processor

import (
	"net/url"
	"strconv"
)

// CustomerParams is the mutable field set for customer create/update calls.
// Extra carries policy-supplied fields verbatim.
type CustomerParams struct {
	Description          string
	Email                string
	DefaultPaymentMethod string
	Extra                url.Values
}

func (p CustomerParams) values() url.Values {
	form := url.Values{}
	if p.Description != "" {
		form.Set("description", p.Description)
	}
	if p.Email != "" {
		form.Set("email", p.Email)
	}
	if p.DefaultPaymentMethod != "" {
		form.Set("invoice_settings[default_payment_method]", p.DefaultPaymentMethod)
	}
	for key, vals := range p.Extra {
		for _, v := range vals {
			form.Add(key, v)
		}
	}
	return form
}

// IntentParams is the field set shared by payment-intent create and update.
type IntentParams struct {
	Amount             int64
	Currency           string
	Customer           string
	PaymentMethod      string
	CaptureMethod      string
	ConfirmationMethod string
	Confirm            *bool
	ReceiptEmail       string
	Description        string
	Metadata           map[string]string
}

func (p IntentParams) values() url.Values {
	form := url.Values{}
	if p.Amount > 0 {
		form.Set("amount", strconv.FormatInt(p.Amount, 10))
	}
	if p.Currency != "" {
		form.Set("currency", p.Currency)
	}
	if p.Customer != "" {
		form.Set("customer", p.Customer)
	}
	if p.PaymentMethod != "" {
		form.Set("payment_method", p.PaymentMethod)
	}
	if p.CaptureMethod != "" {
		form.Set("capture_method", p.CaptureMethod)
	}
	if p.ConfirmationMethod != "" {
		form.Set("confirmation_method", p.ConfirmationMethod)
	}
	if p.Confirm != nil {
		form.Set("confirm", strconv.FormatBool(*p.Confirm))
	}
	if p.ReceiptEmail != "" {
		form.Set("receipt_email", p.ReceiptEmail)
	}
	if p.Description != "" {
		form.Set("description", p.Description)
	}
	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	return form
}

// SetupIntentParams is the field set for setup-intent creation.
type SetupIntentParams struct {
	Customer      string
	PaymentMethod string
	Confirm       bool
	ReturnURL     string
}

func (p SetupIntentParams) values() url.Values {
	form := url.Values{}
	if p.Customer != "" {
		form.Set("customer", p.Customer)
	}
	if p.PaymentMethod != "" {
		form.Set("payment_method", p.PaymentMethod)
	}
	if p.Confirm {
		form.Set("confirm", "true")
	}
	if p.ReturnURL != "" {
		form.Set("return_url", p.ReturnURL)
	}
	return form
}

// RefundParams targets a charge for a partial or full refund. Amount is in
// the currency's minor unit.
type RefundParams struct {
	Charge string
	Amount int64
}

func (p RefundParams) values() url.Values {
	form := url.Values{}
	form.Set("charge", p.Charge)
	if p.Amount > 0 {
		form.Set("amount", strconv.FormatInt(p.Amount, 10))
	}
	return form
}

func boolPtr(b bool) *bool { return &b }

// False is a ready-made Confirm value for IntentParams.
var False = boolPtr(false)
