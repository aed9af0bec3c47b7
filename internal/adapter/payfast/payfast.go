// Package payfast builds signed PayFast checkout requests and verifies
// instant payment notifications.
package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

const (
	SandboxProcessURL = "https://sandbox.payfast.co.za/eng/process"
	LiveProcessURL    = "https://www.payfast.co.za/eng/process"

	statusComplete = "COMPLETE"
	signatureKey   = "signature"
)

var _ port.PaymentGateway = (*Gateway)(nil)

type Config struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	Sandbox     bool
	FrontendURL string
	BackendURL  string
}

type Gateway struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Gateway {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return &Gateway{cfg: cfg, now: time.Now}
}

func (g *Gateway) processURL() string {
	if g.cfg.Sandbox {
		return SandboxProcessURL
	}
	return LiveProcessURL
}

func (g *Gateway) Ready() error {
	if g.cfg.MerchantID == "" || g.cfg.MerchantKey == "" {
		return fmt.Errorf(
			"%w: merchant credentials are not configured", domain.ErrUnavailable,
		)
	}
	return nil
}

// Checkout returns the signed form the buyer posts to PayFast.
func (g *Gateway) Checkout(
	o domain.Order, s domain.Store,
) (domain.CheckoutRedirect, error) {
	const op = "Gateway.Checkout"

	if err := g.Ready(); err != nil {
		return domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
	}

	data := map[string]string{
		"merchant_id":      g.cfg.MerchantID,
		"merchant_key":     g.cfg.MerchantKey,
		"return_url":       g.cfg.FrontendURL + "/payment/success",
		"cancel_url":       g.cfg.FrontendURL + "/payment/cancel",
		"notify_url":       g.cfg.BackendURL + "/api/payments/payfast/notify",
		"name_first":       o.Customer.FirstName,
		"name_last":        o.Customer.LastName,
		"email_address":    o.Customer.Email,
		"m_payment_id":     o.ID,
		"amount":           o.Pricing.Total.StringFixed(2),
		"item_name":        "Order " + o.OrderNumber,
		"item_description": "Order from " + s.Name,
		"custom_str1":      o.ID,
		"custom_str2":      o.StoreID,
	}
	data[signatureKey] = Sign(data, g.cfg.Passphrase)

	return domain.CheckoutRedirect{URL: g.processURL(), Data: data}, nil
}

// VerifyNotification checks the IPN signature and extracts the outcome.
func (g *Gateway) VerifyNotification(
	form url.Values,
) (domain.PaymentNotification, error) {
	const op = "Gateway.VerifyNotification"

	got := form.Get(signatureKey)
	data := make(map[string]string, len(form))
	for k := range form {
		if k != signatureKey {
			data[k] = form.Get(k)
		}
	}
	want := Sign(data, g.cfg.Passphrase)

	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return domain.PaymentNotification{}, fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidSignature,
		)
	}

	orderID := form.Get("custom_str1")
	if orderID == "" {
		return domain.PaymentNotification{}, fmt.Errorf(
			"%s: %w", op, domain.Invalid("order reference is missing"),
		)
	}

	return domain.PaymentNotification{
		OrderID:           orderID,
		Success:           form.Get("payment_status") == statusComplete,
		ProviderPaymentID: form.Get("pf_payment_id"),
		ReceivedAt:        g.now(),
	}, nil
}

// Sign returns the MD5 signature of the parameters: keys sorted, empty
// values skipped, values trimmed and form encoded with spaces as +, the
// passphrase appended last when set.
func Sign(data map[string]string, passphrase string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		v := data[k]
		if v == "" {
			continue
		}
		pairs = append(pairs, k+"="+url.QueryEscape(strings.TrimSpace(v)))
	}
	if passphrase != "" {
		pairs = append(pairs,
			"passphrase="+url.QueryEscape(strings.TrimSpace(passphrase)),
		)
	}

	sum := md5.Sum([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:])
}
