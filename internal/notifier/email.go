package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier отправляет письма через SMTP.
type EmailNotifier struct {
	cfg      EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier возвращает nil, если SMTP не настроен: канал тогда считается отключённым.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	if cfg.Host == "" || cfg.From == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *EmailNotifier) Send(ctx context.Context, msg Message) (*Result, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, permanentf(ErrInvalidRecipient, "email %q", msg.To)
	}
	if err := ctx.Err(); err != nil {
		return nil, transient(err, "отправка письма прервана")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), n.cfg.Host)
	body := n.compose(to.Address, messageID, msg)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.sendMail(addr, auth, n.cfg.From, []string{to.Address}, body); err != nil {
		return nil, classifySMTP(err)
	}
	return &Result{ProviderMessageID: messageID}, nil
}

func (n *EmailNotifier) compose(to, messageID string, msg Message) []byte {
	var b bytes.Buffer
	headers := []struct{ key, value string }{
		{"From", n.cfg.From},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", time.Now().UTC().Format(time.RFC1123Z)},
		{"Message-ID", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", "8bit"},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.key, h.value)
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}

// classifySMTP: ответы 5xx постоянные, 4xx и сетевые ошибки временные.
func classifySMTP(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return permanentf(err, "smtp %d", protoErr.Code)
	}
	return transient(err, "почтовый сервер недоступен")
}
