package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/loomcommerce/paygate/internal/clock"
	"github.com/loomcommerce/paygate/internal/config"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	customerrepo "github.com/loomcommerce/paygate/internal/customer/repository"
	customerservice "github.com/loomcommerce/paygate/internal/customer/service"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	intentdomain "github.com/loomcommerce/paygate/internal/intent/domain"
	intentrepo "github.com/loomcommerce/paygate/internal/intent/repository"
	"github.com/loomcommerce/paygate/internal/processor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubCall records one request the fake processor received.
type stubCall struct {
	Method         string
	Path           string
	Form           url.Values
	IdempotencyKey string
}

// stubProcessor serves canned JSON keyed by "METHOD /path" and records every
// request for assertions.
type stubProcessor struct {
	responses map[string]string
	statuses  map[string]int
	calls     []stubCall
}

func (s *stubProcessor) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form := url.Values{}
		for k, v := range r.PostForm {
			form[k] = v
		}
		for k, v := range r.URL.Query() {
			form[k] = v
		}
		s.calls = append(s.calls, stubCall{
			Method:         r.Method,
			Path:           r.URL.Path,
			Form:           form,
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
		})

		key := r.Method + " " + r.URL.Path
		body, ok := s.responses[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"no such resource"}}`))
			return
		}
		if status, ok := s.statuses[key]; ok {
			w.WriteHeader(status)
		}
		w.Write([]byte(body))
	}
}

func (s *stubProcessor) paths() []string {
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

type orchestratorHarness struct {
	svc     domain.Orchestrator
	stub    *stubProcessor
	db      *gorm.DB
	intents intentdomain.Store
	cfg     config.Config
}

func newOrchestratorHarness(t *testing.T, stub *stubProcessor) orchestratorHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &intentdomain.PaymentIntent{}))

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	client := processor.NewClient(processor.Config{APIKey: "sk_test", BaseURL: srv.URL}, zap.NewNop())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	customers := customerservice.New(customerservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      customerrepo.Provide(db),
		Processor: client,
		GenID:     node,
		Clock:     clock.SystemClock{},
		Create:    customerdomain.DefaultCreationPolicy(),
		Update:    customerdomain.DefaultUpdatePolicy(),
	})
	intents := intentrepo.Provide(db, node, clock.SystemClock{})

	cfg := config.Config{}
	cfg.Gateway.ID = 7
	cfg.Gateway.ReturnURL = "https://shop.test/payments/complete"

	svc := NewOrchestrator(OrchestratorParams{
		DB:        db,
		Log:       zap.NewNop(),
		Config:    cfg,
		Processor: client,
		Customers: customers,
		Intents:   intents,
		Policy:    domain.DefaultSubscriptionPayloadPolicy(),
	})
	return orchestratorHarness{svc: svc, stub: stub, db: db, intents: intents, cfg: cfg}
}

func TestAuthorizeCreatesIntentAndConfirms(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"POST /customers":                    `{"id":"cus_1","email":"jane@shop.test"}`,
		"POST /payment_intents":              `{"id":"pi_1","status":"requires_confirmation","client_secret":"pi_1_secret","amount":1999}`,
		"POST /payment_intents/pi_1/confirm": `{"id":"pi_1","status":"succeeded","client_secret":"pi_1_secret","amount":1999}`,
	}}
	h := newOrchestratorHarness(t, stub)

	user := &customerdomain.User{ID: "u1", Email: "jane@shop.test"}
	tx := domain.Transaction{OrderID: "order-1", Hash: "hash-1", Amount: 19.99, Currency: "USD"}
	form := domain.PaymentForm{PaymentMethodID: "pm_1"}

	resp, err := h.svc.AuthorizeOrPurchase(context.Background(), tx, form, user, false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "pi_1", resp.Reference)

	require.Equal(t, []string{
		"POST /customers",
		"POST /payment_intents",
		"POST /payment_intents/pi_1/confirm",
	}, stub.paths())

	create := stub.calls[1]
	require.Equal(t, "hash-1", create.IdempotencyKey)
	require.Equal(t, "1999", create.Form.Get("amount"))
	require.Equal(t, "usd", create.Form.Get("currency"))
	require.Equal(t, "manual", create.Form.Get("capture_method"))
	require.Equal(t, "false", create.Form.Get("confirm"))
	require.Equal(t, "order-1", create.Form.Get("metadata[order_id]"))

	confirm := stub.calls[2]
	require.Empty(t, confirm.IdempotencyKey)
	require.Equal(t, h.cfg.Gateway.ReturnURL, confirm.Form.Get("return_url"))

	row, err := h.intents.FindByReference(context.Background(), nil, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Contains(t, string(row.IntentData), `"succeeded"`)
	require.NotContains(t, string(row.IntentData), "client_secret")
}

func TestAuthorizeReusesExistingIntent(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"POST /customers":                    `{"id":"cus_1"}`,
		"POST /payment_intents":              `{"id":"pi_1","status":"requires_confirmation"}`,
		"POST /payment_intents/pi_1":         `{"id":"pi_1","status":"requires_confirmation"}`,
		"POST /payment_intents/pi_1/confirm": `{"id":"pi_1","status":"succeeded"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	user := &customerdomain.User{ID: "u1"}
	tx := domain.Transaction{OrderID: "order-1", Hash: "hash-1", Amount: 10, Currency: "USD"}
	form := domain.PaymentForm{PaymentMethodID: "pm_1"}

	_, err := h.svc.AuthorizeOrPurchase(context.Background(), tx, form, user, true)
	require.NoError(t, err)

	tx.Hash = "hash-2"
	_, err = h.svc.AuthorizeOrPurchase(context.Background(), tx, form, user, true)
	require.NoError(t, err)

	// The second submission updates the recorded intent instead of creating
	// a new one, and only one correlation row exists.
	require.Contains(t, stub.paths(), "POST /payment_intents/pi_1")
	var count int64
	require.NoError(t, h.db.Model(&intentdomain.PaymentIntent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAuthorizeUnsupportedCurrencyMakesNoRemoteCalls(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{}}
	h := newOrchestratorHarness(t, stub)

	tx := domain.Transaction{OrderID: "order-1", Amount: 10, Currency: "XYZ"}
	_, err := h.svc.AuthorizeOrPurchase(context.Background(), tx, domain.PaymentForm{}, nil, true)
	require.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
	require.Empty(t, stub.calls)
}

func TestAuthorizeDeclinedCardIsStructuredFailure(t *testing.T) {
	stub := &stubProcessor{
		responses: map[string]string{
			"POST /payment_intents": `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
		},
		statuses: map[string]int{
			"POST /payment_intents": http.StatusPaymentRequired,
		},
	}
	h := newOrchestratorHarness(t, stub)

	tx := domain.Transaction{OrderID: "order-1", Hash: "h", Amount: 10, Currency: "USD"}
	resp, err := h.svc.AuthorizeOrPurchase(context.Background(), tx, domain.PaymentForm{PaymentMethodID: "pm_1"}, nil, true)
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "card_declined", resp.Code)
	require.Equal(t, "Your card was declined.", resp.Message)
}

func TestRefundConvertsAmountToMinorUnits(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"GET /payment_intents/pi_1": `{"id":"pi_1","status":"succeeded","charges":{"data":[{"id":"ch_1","amount":1999}]}}`,
		"POST /refunds":             `{"id":"re_1","status":"succeeded","amount":1999,"charge":"ch_1"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	tx := domain.Transaction{Reference: "pi_1", Amount: 19.99, Currency: "USD"}
	resp, err := h.svc.Refund(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "re_1", resp.Reference)

	var refundCall *stubCall
	for i := range stub.calls {
		if strings.HasSuffix(stub.calls[i].Path, "/refunds") {
			refundCall = &stub.calls[i]
		}
	}
	require.NotNil(t, refundCall)
	require.Equal(t, "ch_1", refundCall.Form.Get("charge"))
	require.Equal(t, "1999", refundCall.Form.Get("amount"))
}

func TestRefundOverwritesStoredSnapshot(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"POST /customers":                    `{"id":"cus_1"}`,
		"POST /payment_intents":              `{"id":"pi_1","status":"requires_confirmation","client_secret":"pi_1_secret"}`,
		"POST /payment_intents/pi_1/confirm": `{"id":"pi_1","status":"succeeded","client_secret":"pi_1_secret"}`,
		"GET /payment_intents/pi_1":          `{"id":"pi_1","status":"succeeded","client_secret":"pi_1_secret","amount_refunded":1999,"charges":{"data":[{"id":"ch_1"}]}}`,
		"POST /refunds":                      `{"id":"re_1","status":"succeeded","amount":1999,"charge":"ch_1"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	user := &customerdomain.User{ID: "u1"}
	tx := domain.Transaction{OrderID: "order-1", Hash: "hash-1", Amount: 19.99, Currency: "USD"}
	_, err := h.svc.AuthorizeOrPurchase(context.Background(), tx, domain.PaymentForm{PaymentMethodID: "pm_1"}, user, true)
	require.NoError(t, err)

	row, err := h.intents.FindByReference(context.Background(), nil, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotContains(t, string(row.IntentData), "amount_refunded")

	tx.Reference = "pi_1"
	resp, err := h.svc.Refund(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, resp.Success)

	// The existing row now holds the post-refund remote state, still without
	// the client secret.
	row, err = h.intents.FindByReference(context.Background(), nil, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Contains(t, string(row.IntentData), `"amount_refunded":1999`)
	require.NotContains(t, string(row.IntentData), "client_secret")

	var count int64
	require.NoError(t, h.db.Model(&intentdomain.PaymentIntent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRefundZeroDecimalCurrency(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"GET /payment_intents/pi_1": `{"id":"pi_1","status":"succeeded","charges":{"data":[{"id":"ch_1"}]}}`,
		"POST /refunds":             `{"id":"re_1","status":"succeeded"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	tx := domain.Transaction{Reference: "pi_1", Amount: 500, Currency: "JPY"}
	_, err := h.svc.Refund(context.Background(), tx)
	require.NoError(t, err)

	last := stub.calls[len(stub.calls)-1]
	require.Equal(t, "500", last.Form.Get("amount"))
}

func TestRefundUnsupportedCurrencyMakesNoRemoteCalls(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{}}
	h := newOrchestratorHarness(t, stub)

	tx := domain.Transaction{Reference: "pi_1", Amount: 10, Currency: "ZZZ"}
	_, err := h.svc.Refund(context.Background(), tx)
	require.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
	require.Empty(t, stub.calls)
}

func TestRefundWithoutChargeFails(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"GET /payment_intents/pi_1": `{"id":"pi_1","status":"requires_confirmation","charges":{"data":[]}}`,
	}}
	h := newOrchestratorHarness(t, stub)

	resp, err := h.svc.Refund(context.Background(), domain.Transaction{Reference: "pi_1", Amount: 10, Currency: "USD"})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Message)
}

func TestCompletePaymentConfirmsPendingIntent(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"GET /payment_intents/pi_1":          `{"id":"pi_1","status":"requires_confirmation","payment_method":"pm_1"}`,
		"POST /payment_intents/pi_1/confirm": `{"id":"pi_1","status":"succeeded","payment_method":"pm_1"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	resp, err := h.svc.CompletePayment(context.Background(), domain.Transaction{Reference: "pi_1"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Contains(t, stub.paths(), "POST /payment_intents/pi_1/confirm")
}

func TestCompletePaymentSkipsConfirmWithoutMethod(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"GET /payment_intents/pi_1": `{"id":"pi_1","status":"requires_payment_method"}`,
	}}
	h := newOrchestratorHarness(t, stub)

	resp, err := h.svc.CompletePayment(context.Background(), domain.Transaction{Reference: "pi_1"})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, []string{"GET /payment_intents/pi_1"}, stub.paths())
}

func TestSubscribeWithoutSavedMethod(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"POST /customers":      `{"id":"cus_1"}`,
		"GET /payment_methods": `{"data":[]}`,
	}}
	h := newOrchestratorHarness(t, stub)

	_, err := h.svc.Subscribe(context.Background(), customerdomain.User{ID: "u1"}, domain.Plan{Reference: "plan_1"}, domain.SubscriptionForm{})
	require.ErrorIs(t, err, domain.ErrNoPaymentSource)
}

func TestSubscribeHidesProcessorError(t *testing.T) {
	stub := &stubProcessor{
		responses: map[string]string{
			"POST /customers":      `{"id":"cus_1"}`,
			"GET /payment_methods": `{"data":[{"id":"pm_1","type":"card"}]}`,
			"POST /subscriptions":  `{"error":{"type":"invalid_request_error","message":"no such plan"}}`,
		},
		statuses: map[string]int{"POST /subscriptions": http.StatusBadRequest},
	}
	h := newOrchestratorHarness(t, stub)

	_, err := h.svc.Subscribe(context.Background(), customerdomain.User{ID: "u1"}, domain.Plan{Reference: "plan_x"}, domain.SubscriptionForm{})
	require.ErrorIs(t, err, domain.ErrSubscription)
	require.NotContains(t, err.Error(), "no such plan")
}

func TestSubscribeSendsTrialSettings(t *testing.T) {
	stub := &stubProcessor{responses: map[string]string{
		"POST /customers":      `{"id":"cus_1"}`,
		"GET /payment_methods": `{"data":[{"id":"pm_1","type":"card"}]}`,
		"POST /subscriptions":  `{"id":"sub_1","status":"trialing","trial_end":1767225600,"current_period_end":1769904000}`,
	}}
	h := newOrchestratorHarness(t, stub)

	trial := 14
	resp, err := h.svc.Subscribe(context.Background(), customerdomain.User{ID: "u1"}, domain.Plan{Reference: "plan_1"}, domain.SubscriptionForm{TrialDays: &trial})
	require.NoError(t, err)
	require.Equal(t, "sub_1", resp.Reference)
	require.Equal(t, "trialing", resp.Status)
	require.NotNil(t, resp.TrialEnd)
	require.NotNil(t, resp.PeriodEnd)

	last := stub.calls[len(stub.calls)-1]
	require.Equal(t, "cus_1", last.Form.Get("customer"))
	require.Equal(t, "plan_1", last.Form.Get("items[0][plan]"))
	require.Equal(t, "14", last.Form.Get("trial_period_days"))
	require.Empty(t, last.Form.Get("trial_from_plan"))
}
