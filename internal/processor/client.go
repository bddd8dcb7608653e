package processor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// Config holds the connection settings for the processor API. The API key is
// explicit client state, never a package-level global.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the payment processor's REST API. All mutating calls accept
// an optional idempotency key which the processor deduplicates server-side.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu     sync.RWMutex
	apiKey string
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("processor"),
		apiKey:     cfg.APIKey,
	}
}

// RotateAPIKey swaps the key used for subsequent calls. In-flight requests
// keep the key they started with.
func (c *Client) RotateAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

func (c *Client) do(ctx context.Context, method, path, resource string, form url.Values, idempotencyKey string) ([]byte, error) {
	endpoint := c.baseURL + path

	var body io.Reader
	if method == http.MethodPost && form != nil {
		body = strings.NewReader(form.Encode())
	} else if method == http.MethodGet && len(form) > 0 {
		endpoint += "?" + form.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key())
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	callDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	if err != nil {
		callTotal.WithLabelValues(resource, "transport_error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		callTotal.WithLabelValues(resource, "transport_error").Inc()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		callTotal.WithLabelValues(resource, "api_error").Inc()
		c.log.Warn("processor call failed",
			zap.String("resource", resource),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, decodeError(resp.StatusCode, payload)
	}

	callTotal.WithLabelValues(resource, "ok").Inc()
	return payload, nil
}

// --- Customers ---

func (c *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	payload, err := c.do(ctx, http.MethodPost, "/customers", "customer", params.values(), "")
	if err != nil {
		return nil, err
	}
	return decodeCustomer(payload)
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, params CustomerParams) (*Customer, error) {
	payload, err := c.do(ctx, http.MethodPost, "/customers/"+id, "customer", params.values(), "")
	if err != nil {
		return nil, err
	}
	return decodeCustomer(payload)
}

// --- Payment methods ---

func (c *Client) RetrievePaymentMethod(ctx context.Context, id string) (*PaymentMethod, error) {
	payload, err := c.do(ctx, http.MethodGet, "/payment_methods/"+id, "payment_method", nil, "")
	if err != nil {
		return nil, err
	}
	return decodePaymentMethod(payload)
}

func (c *Client) AttachPaymentMethod(ctx context.Context, id, customer string) (*PaymentMethod, error) {
	form := url.Values{}
	form.Set("customer", customer)
	payload, err := c.do(ctx, http.MethodPost, "/payment_methods/"+id+"/attach", "payment_method", form, "")
	if err != nil {
		return nil, err
	}
	return decodePaymentMethod(payload)
}

func (c *Client) DetachPaymentMethod(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/payment_methods/"+id+"/detach", "payment_method", nil, "")
	return err
}

func (c *Client) ListPaymentMethods(ctx context.Context, customer, methodType string) ([]PaymentMethod, error) {
	form := url.Values{}
	form.Set("customer", customer)
	form.Set("type", methodType)
	payload, err := c.do(ctx, http.MethodGet, "/payment_methods", "payment_method", form, "")
	if err != nil {
		return nil, err
	}
	var list PaymentMethodList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// --- Payment intents ---

func (c *Client) CreatePaymentIntent(ctx context.Context, params IntentParams, idempotencyKey string) (*PaymentIntent, error) {
	payload, err := c.do(ctx, http.MethodPost, "/payment_intents", "payment_intent", params.values(), idempotencyKey)
	if err != nil {
		return nil, err
	}
	return decodePaymentIntent(payload)
}

func (c *Client) UpdatePaymentIntent(ctx context.Context, id string, params IntentParams, idempotencyKey string) (*PaymentIntent, error) {
	payload, err := c.do(ctx, http.MethodPost, "/payment_intents/"+id, "payment_intent", params.values(), idempotencyKey)
	if err != nil {
		return nil, err
	}
	return decodePaymentIntent(payload)
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	payload, err := c.do(ctx, http.MethodGet, "/payment_intents/"+id, "payment_intent", nil, "")
	if err != nil {
		return nil, err
	}
	return decodePaymentIntent(payload)
}

// ConfirmPaymentIntent deliberately carries no idempotency key: the payer may
// legitimately retrigger it by returning from an authentication challenge.
func (c *Client) ConfirmPaymentIntent(ctx context.Context, id, returnURL string) (*PaymentIntent, error) {
	form := url.Values{}
	if returnURL != "" {
		form.Set("return_url", returnURL)
	}
	payload, err := c.do(ctx, http.MethodPost, "/payment_intents/"+id+"/confirm", "payment_intent", form, "")
	if err != nil {
		return nil, err
	}
	return decodePaymentIntent(payload)
}

func (c *Client) CapturePaymentIntent(ctx context.Context, id, idempotencyKey string) (*PaymentIntent, error) {
	payload, err := c.do(ctx, http.MethodPost, "/payment_intents/"+id+"/capture", "payment_intent", nil, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return decodePaymentIntent(payload)
}

// --- Setup intents ---

func (c *Client) CreateSetupIntent(ctx context.Context, params SetupIntentParams) (*SetupIntent, error) {
	payload, err := c.do(ctx, http.MethodPost, "/setup_intents", "setup_intent", params.values(), "")
	if err != nil {
		return nil, err
	}
	return decodeSetupIntent(payload)
}

func (c *Client) RetrieveSetupIntent(ctx context.Context, id string) (*SetupIntent, error) {
	payload, err := c.do(ctx, http.MethodGet, "/setup_intents/"+id, "setup_intent", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeSetupIntent(payload)
}

// --- Subscriptions ---

// CreateSubscription takes a prebuilt form because subscription payloads are
// policy-extensible; callers own the full parameter set.
func (c *Client) CreateSubscription(ctx context.Context, form url.Values) (*Subscription, error) {
	payload, err := c.do(ctx, http.MethodPost, "/subscriptions", "subscription", form, "")
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := json.Unmarshal(payload, &sub); err != nil {
		return nil, err
	}
	sub.Raw = payload
	return &sub, nil
}

// --- Refunds ---

func (c *Client) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	payload, err := c.do(ctx, http.MethodPost, "/refunds", "refund", params.values(), "")
	if err != nil {
		return nil, err
	}
	var refund Refund
	if err := json.Unmarshal(payload, &refund); err != nil {
		return nil, err
	}
	refund.Raw = payload
	return &refund, nil
}

// --- Decoding ---

func decodeCustomer(payload []byte) (*Customer, error) {
	var cust Customer
	if err := json.Unmarshal(payload, &cust); err != nil {
		return nil, err
	}
	cust.Raw = payload
	return &cust, nil
}

func decodePaymentMethod(payload []byte) (*PaymentMethod, error) {
	var pm PaymentMethod
	if err := json.Unmarshal(payload, &pm); err != nil {
		return nil, err
	}
	pm.Raw = payload
	return &pm, nil
}

func decodePaymentIntent(payload []byte) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, err
	}
	intent.Raw = payload
	return &intent, nil
}

func decodeSetupIntent(payload []byte) (*SetupIntent, error) {
	var intent SetupIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, err
	}
	intent.Raw = payload
	return &intent, nil
}

// Redact removes a sensitive top-level field from a raw API snapshot. Used to
// strip client secrets before anything is returned or persisted.
func Redact(raw json.RawMessage, field string) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return raw
	}
	if _, ok := data[field]; !ok {
		return raw
	}
	delete(data, field)
	redacted, err := json.Marshal(data)
	if err != nil {
		return raw
	}
	return redacted
}
