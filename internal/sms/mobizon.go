package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"centavo/internal/config"
)

const mobizonURL = "https://api.mobizon.com/service/message/sendsmsmessage"

// Client delivers verification codes over SMS. The chat transport can only
// reach chats it already knows; SMS reaches the claimed phone number itself,
// which is what the handshake needs before any link exists.
type Client struct {
	apiKey  string
	sender  string
	dryRun  bool
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type sendResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewClient(cfg config.SMSConfig, log *zap.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		sender:  cfg.Sender,
		dryRun:  cfg.DryRun,
		baseURL: mobizonURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// DeliverCode sends one message to a phone number. In dry-run mode (or with
// no API key configured) it only logs, so local runs never hit the gateway.
func (c *Client) DeliverCode(ctx context.Context, phone, message string) error {
	if c.dryRun || c.apiKey == "" {
		c.log.Info("[sms][dry-run] code delivery", zap.String("phone", phone), zap.String("text", message))
		return nil
	}

	form := url.Values{
		"apiKey":    {c.apiKey},
		"recipient": {phone},
		"text":      {message},
	}
	if c.sender != "" {
		form.Set("from", c.sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode sms response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("sms gateway error code %d for %s", result.Code, phone)
	}
	c.log.Info("[sms] code delivered", zap.String("phone", phone), zap.String("messageId", result.Data.MessageID))
	return nil
}
