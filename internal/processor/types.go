package processor

import "encoding/json"

// Intent status values as reported by the processor. The remote status string
// is authoritative; local records only cache it inside the raw snapshot.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusRequiresCapture       = "requires_capture"
	StatusProcessing            = "processing"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

const (
	CaptureMethodAutomatic = "automatic"
	CaptureMethodManual    = "manual"
)

type Customer struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Description     string          `json:"description"`
	InvoiceSettings InvoiceSettings `json:"invoice_settings"`

	Raw json.RawMessage `json:"-"`
}

type InvoiceSettings struct {
	DefaultPaymentMethod string `json:"default_payment_method"`
}

type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer"`
	Card     Card   `json:"card"`

	Raw json.RawMessage `json:"-"`
}

type PaymentMethodList struct {
	Data []PaymentMethod `json:"data"`
}

type NextAction struct {
	Type          string        `json:"type"`
	RedirectToURL RedirectToURL `json:"redirect_to_url"`
}

type RedirectToURL struct {
	URL       string `json:"url"`
	ReturnURL string `json:"return_url"`
}

type Charge struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Status         string `json:"status"`
}

type ChargeList struct {
	Data []Charge `json:"data"`
}

type APIErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaymentIntent struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	Amount           int64           `json:"amount"`
	Currency         string          `json:"currency"`
	Customer         string          `json:"customer"`
	PaymentMethod    string          `json:"payment_method"`
	CaptureMethod    string          `json:"capture_method"`
	NextAction       *NextAction     `json:"next_action"`
	Charges          ChargeList      `json:"charges"`
	LastPaymentError *APIErrorDetail `json:"last_payment_error"`

	Raw json.RawMessage `json:"-"`
}

type SetupIntent struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Customer      string          `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
	NextAction    *NextAction     `json:"next_action"`
	LastError     *APIErrorDetail `json:"last_setup_error"`

	Raw json.RawMessage `json:"-"`
}

type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	Customer           string `json:"customer"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	TrialEnd           int64  `json:"trial_end"`

	Raw json.RawMessage `json:"-"`
}

type Refund struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Charge   string `json:"charge"`
	Currency string `json:"currency"`

	Raw json.RawMessage `json:"-"`
}
