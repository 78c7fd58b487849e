package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

type WhatsAppConfig struct {
	APIURL string
	Token  string
	// Timeout bounds the HTTP client; the caller's context usually wins.
	Timeout time.Duration
}

// WhatsAppTransport posts text messages to the provider's HTTP API.
type WhatsAppTransport struct {
	url    string
	token  string
	client *http.Client
}

func NewWhatsAppTransport(cfg WhatsAppConfig) *WhatsAppTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppTransport{
		url:    strings.TrimRight(cfg.APIURL, "/") + "/messages",
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}
}

type whatsappRequest struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsappError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *WhatsAppTransport) Deliver(ctx context.Context, recipient string, msg Message) error {
	phone := normalizePhone(recipient)
	if !phonePattern.MatchString(phone) {
		return &TransportError{Class: ClassMalformedRecipient, Err: fmt.Errorf("invalid phone number %q", recipient)}
	}

	var body whatsappRequest
	body.To = phone
	body.Type = "text"
	body.Text.Body = msg.Body
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return classifyHTTP(resp)
}

func classifyHTTP(resp *http.Response) error {
	var pe whatsappError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &pe)
	err := fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode, strings.TrimSpace(pe.Error.Message))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusPaymentRequired,
		pe.Error.Code == "quota_exceeded",
		pe.Error.Code == "insufficient_balance":
		return &TransportError{Class: ClassQuota, Err: err}
	case pe.Error.Code == "invalid_recipient":
		return &TransportError{Class: ClassMalformedRecipient, Err: err}
	case resp.StatusCode == http.StatusGatewayTimeout, resp.StatusCode == http.StatusRequestTimeout:
		return &TransportError{Class: ClassTimeout, Err: err}
	}
	return err
}

func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}
