// Package ecpay implements the recurring credit-card flow of the ECPay gateway.
package ecpay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
	"go.uber.org/zap"
)

const (
	gatewayName = "ecpay"
	dateLayout  = "2006/01/02 15:04:05"
	successCode = "1"

	maxMemberIDLength = 30
)

// Config holds merchant settings for Client
type Config struct {
	MerchantID      string
	CheckoutURL     string
	PeriodActionURL string
	ReturnURL       string
	PeriodReturnURL string
	ClientBackURL   string
	ExecTimes       int
	Location        *time.Location
}

// Client builds signed checkout forms and calls the period action API.
type Client struct {
	cfg    Config
	codec  provider.SignatureCodec
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewClient creates a new ECPay client
func NewClient(cfg Config, codec provider.SignatureCodec, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ExecTimes <= 0 {
		cfg.ExecTimes = 12
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		cfg:    cfg,
		codec:  codec,
		client: httpClient,
		logger: logger,
		now:    time.Now,
	}
}

var _ provider.RecurringGateway = (*Client)(nil)

func (c *Client) Name() string {
	return gatewayName
}

// BuildCheckout returns the AioCheckOut form for a monthly card agreement.
// The first charge and every period charge are for req.Amount.
func (c *Client) BuildCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutForm, error) {
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Truncate(0)) {
		return nil, fmt.Errorf("checkout amount must be a positive whole number, got %s", req.Amount)
	}
	amount := req.Amount.StringFixed(0)

	fields := map[string]string{
		"MerchantID":        c.cfg.MerchantID,
		"MerchantTradeNo":   req.MerchantTradeNo,
		"MerchantTradeDate": req.TradeDate.In(c.cfg.Location).Format(dateLayout),
		"PaymentType":       "aio",
		"TotalAmount":       amount,
		"TradeDesc":         req.TradeDesc,
		"ItemName":          req.ItemName,
		"ReturnURL":         c.cfg.ReturnURL,
		"ChoosePayment":     "Credit",
		"EncryptType":       "1",
		"PeriodAmount":      amount,
		"PeriodType":        "M",
		"Frequency":         "1",
		"ExecTimes":         strconv.Itoa(c.cfg.ExecTimes),
		"PeriodReturnURL":   c.cfg.PeriodReturnURL,
		"BindingCard":       "1",
		"MerchantMemberID":  memberID(req.MemberID),
		"CustomField1":      req.MemberID,
	}
	if c.cfg.ClientBackURL != "" {
		fields["ClientBackURL"] = c.cfg.ClientBackURL
	}
	fields[provider.SignatureField] = c.codec.Sign(fields)

	c.logger.Info("ECPay checkout form built",
		zap.String("merchant_trade_no", req.MerchantTradeNo),
		zap.String("amount", amount))

	return &provider.CheckoutForm{Action: c.cfg.CheckoutURL, Fields: fields}, nil
}

// CancelRecurring stops the period charges of an agreement. The synchronous
// answer is signed too and is verified before RtnCode is trusted.
func (c *Client) CancelRecurring(ctx context.Context, agreementID string) error {
	fields := map[string]string{
		"MerchantID":      c.cfg.MerchantID,
		"MerchantTradeNo": agreementID,
		"Action":          "Cancel",
		"TimeStamp":       strconv.FormatInt(c.now().Unix(), 10),
	}
	fields[provider.SignatureField] = c.codec.Sign(fields)

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PeriodActionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &domainErrors.GatewayError{Operation: "cancel", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("ECPay cancel request failed",
			zap.String("merchant_trade_no", agreementID),
			zap.Error(err))
		return &domainErrors.GatewayError{Operation: "cancel", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domainErrors.GatewayError{Operation: "cancel", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &domainErrors.GatewayError{
			Operation: "cancel",
			Code:      strconv.Itoa(resp.StatusCode),
			Message:   strings.TrimSpace(string(body)),
		}
	}

	result, err := parseFormResponse(string(body))
	if err != nil {
		return &domainErrors.GatewayError{Operation: "cancel", Cause: err}
	}

	if err := c.codec.Verify(result, result[provider.SignatureField]); err != nil {
		c.logger.Warn("ECPay cancel response signature mismatch",
			zap.String("merchant_trade_no", agreementID))
		return &domainErrors.GatewayError{Operation: "cancel", Cause: err}
	}

	if result["RtnCode"] != successCode {
		c.logger.Warn("ECPay rejected recurring cancellation",
			zap.String("merchant_trade_no", agreementID),
			zap.String("rtn_code", result["RtnCode"]),
			zap.String("rtn_msg", result["RtnMsg"]))
		return &domainErrors.GatewayError{
			Operation: "cancel",
			Code:      result["RtnCode"],
			Message:   result["RtnMsg"],
		}
	}

	c.logger.Info("ECPay recurring charges cancelled",
		zap.String("merchant_trade_no", agreementID))
	return nil
}

// memberID fits a member reference into the 30 characters the gateway accepts.
func memberID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > maxMemberIDLength {
		return id[:maxMemberIDLength]
	}
	return id
}

func parseFormResponse(body string) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	result := make(map[string]string, len(values))
	for k := range values {
		result[k] = values.Get(k)
	}
	return result, nil
}
