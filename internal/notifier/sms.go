package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// nationalNumberLength - длина номера без кода страны.
const nationalNumberLength = 9

type SMSConfig struct {
	BaseURL     string
	APIKey      string
	Sender      string
	CountryCode string
	Timeout     time.Duration
}

// SMSNotifier отправляет SMS через Infobip.
type SMSNotifier struct {
	cfg        SMSConfig
	httpClient *http.Client
}

// NewSMSNotifier возвращает nil, если Infobip не настроен.
func NewSMSNotifier(cfg SMSConfig) *SMSNotifier {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.Sender == "" {
		return nil
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "212"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMSNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// NormalizePhone приводит номер к виду +<код страны><цифры> и проверяет длину.
// Номер с ведущим 0 считается национальным, без + и кода страны дополняется кодом.
func NormalizePhone(raw, countryCode string) (string, error) {
	var digits strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if cleaned == "" || cleaned == "+" {
		return "", permanentf(ErrInvalidRecipient, "empty phone")
	}

	if !strings.HasPrefix(cleaned, "+") {
		switch {
		case strings.HasPrefix(cleaned, countryCode):
			cleaned = "+" + cleaned
		case strings.HasPrefix(cleaned, "0"):
			cleaned = "+" + countryCode + cleaned[1:]
		default:
			cleaned = "+" + countryCode + cleaned
		}
	}

	if !strings.HasPrefix(cleaned, "+"+countryCode) || len(cleaned) != 1+len(countryCode)+nationalNumberLength {
		return "", permanentf(ErrInvalidRecipient, "phone %q", raw)
	}
	return cleaned, nil
}

type infobipRequest struct {
	Messages []infobipMessage `json:"messages"`
}

type infobipMessage struct {
	Destinations []infobipDestination `json:"destinations"`
	From         string               `json:"from"`
	Text         string               `json:"text"`
}

type infobipDestination struct {
	To string `json:"to"`
}

type infobipResponse struct {
	Messages []struct {
		MessageID string `json:"messageId"`
	} `json:"messages"`
}

func (n *SMSNotifier) Send(ctx context.Context, msg Message) (*Result, error) {
	phone, err := NormalizePhone(msg.To, n.cfg.CountryCode)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(infobipRequest{Messages: []infobipMessage{{
		Destinations: []infobipDestination{{To: strings.TrimPrefix(phone, "+")}},
		From:         n.cfg.Sender,
		Text:         msg.Body,
	}}})
	if err != nil {
		return nil, permanentf(err, "marshal sms payload")
	}

	url := strings.TrimRight(n.cfg.BaseURL, "/") + "/sms/2/text/advanced"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, permanentf(err, "build sms request")
	}
	req.Header.Set("Authorization", "App "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, transient(err, "SMS-провайдер недоступен")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed infobipResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, transient(err, "не удалось разобрать ответ SMS-провайдера")
		}
		result := &Result{}
		if len(parsed.Messages) > 0 {
			result.ProviderMessageID = parsed.Messages[0].MessageID
		}
		return result, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, transient(statusError(resp), "SMS-провайдер временно недоступен")
	default:
		return nil, permanentf(statusError(resp), "sms rejected")
	}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("infobip status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
