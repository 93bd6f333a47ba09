package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var ErrMissingAccessToken = errors.New("MERCADOPAGO_ACCESS_TOKEN is not set")

// MercadoPagoGateway captures payments through the Mercado Pago SDK. With
// MERCADOPAGO_MOCK (or PAYMENT_GATEWAY_MOCK) set, every capture approves
// locally instead of calling the provider, which is how the capture flow is
// exercised without credentials.
type MercadoPagoGateway struct {
	client payment.Client
	mock   bool
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if mockEnabled() {
		log.Printf("[payment][gateway] running in mock mode, all captures approve")
		return &MercadoPagoGateway{mock: true}, nil
	}
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, err
	}
	log.Printf("[payment][gateway] mercado pago client ready")
	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error) {
	if g.mock {
		return g.approveLocally(requestPayload)
	}

	var req payment.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		log.Printf("[payment][gateway] rejecting malformed payload err=%v", err)
		return "", "", nil, err
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][gateway] provider create failed err=%v", err)
		return "", "", nil, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return "", "", nil, err
	}
	log.Printf("[payment][gateway] provider accepted payment_id=%d status=%s", resp.ID, resp.Status)
	return fmt.Sprintf("%d", resp.ID), resp.Status, raw, nil
}

// approveLocally fabricates an approved provider response around the request
// payload so downstream code sees the same shape as a real capture.
func (g *MercadoPagoGateway) approveLocally(requestPayload json.RawMessage) (string, string, json.RawMessage, error) {
	body := map[string]any{}
	if len(requestPayload) > 0 && json.Valid(requestPayload) {
		_ = json.Unmarshal(requestPayload, &body)
	}

	now := time.Now().UTC()
	id := strconv.FormatInt(now.UnixNano(), 10)
	body["id"] = id
	body["status"] = "approved"
	body["status_detail"] = "accredited"
	body["date_approved"] = now.Format(time.RFC3339Nano)

	raw, err := json.Marshal(body)
	if err != nil {
		return "", "", nil, err
	}
	log.Printf("[payment][gateway] mock approval payment_id=%s", id)
	return id, "approved", raw, nil
}

func mockEnabled() bool {
	for _, key := range []string{"MERCADOPAGO_MOCK", "PAYMENT_GATEWAY_MOCK"} {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}
