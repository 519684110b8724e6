// Package email delivers assembled invoices over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// Message is the delivery contract the invoice path hands off: one
// recipient, optional cc, a plain-text body and one attachment.
type Message struct {
	To             string
	CC             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Deliverer abstracts actual delivery so preview never touches SMTP and
// tests can capture outbound mail.
type Deliverer interface {
	Send(msg *Message) error
}

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	UseTLS   bool
}

// Service sends mail through one configured SMTP endpoint.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) Send(msg *Message) error {
	payload, err := buildMIME(s.cfg.From, msg)
	if err != nil {
		return err
	}

	recipients := []string{msg.To}
	if msg.CC != "" {
		recipients = append(recipients, msg.CC)
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseTLS {
		return s.sendTLS(addr, auth, recipients, payload)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, recipients, payload); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (s *Service) sendTLS(addr string, auth smtp.Auth, recipients []string, payload []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}
	return client.Quit()
}

func buildMIME(from string, msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	if msg.CC != "" {
		fmt.Fprintf(&buf, "Cc: %s\r\n", msg.CC)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	fmt.Fprintf(text, "%s\r\n", msg.Body)

	if len(msg.Attachment) > 0 {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/octet-stream"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", msg.AttachmentName)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(msg.Attachment)
		// 76-column lines per RFC 2045.
		for len(encoded) > 0 {
			n := 76
			if len(encoded) < n {
				n = len(encoded)
			}
			fmt.Fprintf(part, "%s\r\n", encoded[:n])
			encoded = encoded[n:]
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Recorder is the test double: it records instead of delivering.
type Recorder struct {
	Sent []Message
	Err  error
}

func (r *Recorder) Send(msg *Message) error {
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, *msg)
	return nil
}

var _ Deliverer = (*Service)(nil)
var _ Deliverer = (*Recorder)(nil)

// SubjectForPhase is the default subject line for an invoice email.
func SubjectForPhase(number int) string {
	return fmt.Sprintf("Invoice for phase %d", number)
}

// DefaultBody is the accounting hand-off note that accompanies every
// invoice attachment.
const DefaultBody = "Attached is the itemized invoice for the phase listed in the subject line.\r\n" +
	"Totals exclude accounting fees and taxes."

// TrimAddress normalizes a user-supplied address field.
func TrimAddress(s string) string { return strings.TrimSpace(s) }
