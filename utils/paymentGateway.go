package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"lms/config"
	"lms/services"
	orderService "lms/services/order"

	"github.com/go-resty/resty/v2"
)

// PaymentGateway talks to the payment provider over HTTP. A deadline on the
// context bounds every call; a timeout is reported as unknown outcome, never
// as success or failure.
type PaymentGateway struct {
	client *resty.Client
}

// NewPaymentGateway builds the provider client from AppConfig.
func NewPaymentGateway() *PaymentGateway {
	client := resty.New().
		SetBaseURL(config.AppConfig.PaymentApiURL).
		SetHeader("Authorization", "Bearer "+config.AppConfig.PaymentApiKey).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &PaymentGateway{client: client}
}

type chargeResponse struct {
	Status        string `json:"status"` // success, failed
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// Charge asks the provider to charge the order amount.
func (g *PaymentGateway) Charge(ctx context.Context, orderNo string, amount float64) (*orderService.ChargeResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"orderNo": orderNo,
			"amount":  amount,
		}).
		Post("charges")
	if err != nil {
		if isTimeout(err) {
			log.Printf("[PAYMENT] Charge for %s timed out, outcome unknown", orderNo)
			return nil, services.ErrOutcomeUnknown
		}
		return nil, err
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("payment provider error: %s", resp.Status())
	}

	var body chargeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("invalid provider response: %v", err)
	}

	return &orderService.ChargeResult{
		TransactionID: body.TransactionID,
		Succeeded:     body.Status == "success",
		FailReason:    body.Message,
	}, nil
}

// Query asks the provider for the final state of a charge by order number.
func (g *PaymentGateway) Query(ctx context.Context, orderNo string) (*orderService.ChargeResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("orderNo", orderNo).
		Get("charges")
	if err != nil {
		if isTimeout(err) {
			return nil, services.ErrOutcomeUnknown
		}
		return nil, err
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("payment provider error: %s", resp.Status())
	}

	var body chargeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("invalid provider response: %v", err)
	}

	return &orderService.ChargeResult{
		TransactionID: body.TransactionID,
		Succeeded:     body.Status == "success",
		FailReason:    body.Message,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
