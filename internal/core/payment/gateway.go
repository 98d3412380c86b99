package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/pkg/common"
)

// CheckoutRequest is what the gateway needs to create a payment link.
type CheckoutRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

// CheckoutLink is the gateway's answer: where to send the payer.
type CheckoutLink struct {
	CheckoutURL string `json:"checkoutUrl"`
	QRCode      string `json:"qrCode"`
}

type checkoutResponse struct {
	Code string       `json:"code"`
	Desc string       `json:"desc"`
	Data CheckoutLink `json:"data"`
}

// Gateway talks to the external payment provider.
type Gateway struct {
	client      *resty.Client
	clientID    string
	apiKey      string
	checksumKey string
	log         *zap.Logger
}

// NewGateway creates a payment gateway client.
func NewGateway(cfg config.PaymentConfig, log *zap.Logger) *Gateway {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Gateway{
		client:      client,
		clientID:    cfg.ClientID,
		apiKey:      cfg.APIKey,
		checksumKey: cfg.ChecksumKey,
		log:         log.Named("payment-gateway"),
	}
}

// CreatePaymentLink registers an order with the gateway and returns the
// checkout link the payer must visit.
func (g *Gateway) CreatePaymentLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	req.Signature = g.signCheckout(req)

	var out checkoutResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-client-id", g.clientID).
		SetHeader("x-api-key", g.apiKey).
		SetBody(req).
		SetResult(&out).
		Post("/v2/payment-requests")
	if err != nil {
		return nil, common.NewUpstreamError("payment gateway unreachable", err)
	}
	if resp.IsError() {
		g.log.Error("payment gateway rejected order",
			zap.Int("status", resp.StatusCode()),
			zap.Int64("order_code", req.OrderCode),
		)
		return nil, common.NewUpstreamError(
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode()), nil)
	}
	if out.Data.CheckoutURL == "" {
		return nil, common.NewUpstreamError("payment gateway returned no checkout url: "+out.Desc, nil)
	}
	return &out.Data, nil
}

// signCheckout signs the checkout fields the way the gateway expects:
// fixed field order, query-string form, HMAC-SHA256 hex.
func (g *Gateway) signCheckout(req CheckoutRequest) string {
	payload := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	return hmacHex(g.checksumKey, payload)
}

// VerifySignature checks a webhook payload signature. The payload fields
// are canonicalized as an alphabetically sorted query string before the
// HMAC comparison.
func (g *Gateway) VerifySignature(data map[string]interface{}, signature string) bool {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+formatValue(data[k]))
	}
	expected := hmacHex(g.checksumKey, strings.Join(pairs, "&"))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// formatValue renders a webhook field the way the gateway signs it.
// JSON numbers arrive as float64 and must never take exponent form.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func hmacHex(key, payload string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
