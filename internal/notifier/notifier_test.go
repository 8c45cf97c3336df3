package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"0612345678", "+212612345678", true},
		{"06 12 34 56 78", "+212612345678", true},
		{"212612345678", "+212612345678", true},
		{"+212612345678", "+212612345678", true},
		{"612345678", "+212612345678", true},
		{"+33612345678", "", false},
		{"06123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, "212")
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, IsPermanent(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestSMS(t *testing.T, handler http.HandlerFunc) *SMSNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSMSNotifier(SMSConfig{BaseURL: srv.URL, APIKey: "key", Sender: "Sademy"})
}

func TestSMSNotifier_Send(t *testing.T) {
	var got infobipRequest
	n := newTestSMS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms/2/text/advanced", r.URL.Path)
		assert.Equal(t, "App key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"messageId":"msg-1"}]}`))
	})

	res, err := n.Send(context.Background(), Message{Channel: valueobject.ChannelSMS, To: "0612345678", Body: "Заказ ORD-2026-0001 принят"})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", res.ProviderMessageID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "212612345678", got.Messages[0].Destinations[0].To)
	assert.Equal(t, "Sademy", got.Messages[0].From)
}

func TestSMSNotifier_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			n := newTestSMS(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := n.Send(context.Background(), Message{Channel: valueobject.ChannelSMS, To: "0612345678", Body: "x"})

			require.Error(t, err)
			assert.Equal(t, tt.transient, apperror.IsTransientDelivery(err))
			assert.Equal(t, !tt.transient, IsPermanent(err))
		})
	}
}

func TestSMSNotifier_InvalidPhoneNeverCallsProvider(t *testing.T) {
	called := false
	n := newTestSMS(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := n.Send(context.Background(), Message{Channel: valueobject.ChannelSMS, To: "12", Body: "x"})

	assert.True(t, IsPermanent(err))
	assert.False(t, called)
}

func TestNewSMSNotifier_RequiresConfig(t *testing.T) {
	assert.Nil(t, NewSMSNotifier(SMSConfig{BaseURL: "https://api.infobip.com"}))
}

func TestEmailNotifier_Send(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{Host: "smtp.example.com", From: "noreply@example.com", Username: "u", Password: "p"})
	require.NotNil(t, n)

	var gotAddr string
	var gotTo []string
	var gotBody string
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	res, err := n.Send(context.Background(), Message{Channel: valueobject.ChannelEmail, To: "Client <client@example.com>", Subject: "Заказ завершён", Body: "Спасибо"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.ProviderMessageID)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"client@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Message-ID: "+res.ProviderMessageID)
	assert.True(t, strings.HasSuffix(gotBody, "\r\n\r\nСпасибо"))
}

func TestEmailNotifier_ClassifiesFailures(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{Host: "smtp.example.com", From: "noreply@example.com"})

	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	}
	_, err := n.Send(context.Background(), Message{To: "client@example.com"})
	assert.True(t, IsPermanent(err))

	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return &textproto.Error{Code: 421, Msg: "try later"}
	}
	_, err = n.Send(context.Background(), Message{To: "client@example.com"})
	assert.True(t, apperror.IsTransientDelivery(err))

	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("dial tcp: connection refused")
	}
	_, err = n.Send(context.Background(), Message{To: "client@example.com"})
	assert.True(t, apperror.IsTransientDelivery(err))

	_, err = n.Send(context.Background(), Message{To: "not an address"})
	assert.True(t, IsPermanent(err))
}

func TestRouter_UnconfiguredChannelIsPermanent(t *testing.T) {
	r := NewRouter()

	_, err := r.Send(context.Background(), Message{Channel: valueobject.ChannelSMS, To: "0612345678"})

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
	assert.False(t, r.Enabled(valueobject.ChannelSMS))
}
