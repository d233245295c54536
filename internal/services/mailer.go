package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/yuin/goldmark"
)

type Mailer interface {
	SendConfirmation(ctx context.Context, to, name, link string) error
}

type ResendMailer struct {
	client *resend.Client
	from   string
	md     goldmark.Markdown
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		md:     goldmark.New(),
	}
}

const confirmationSubject = "[DoClimb] 이메일 인증을 완료해주세요"

func confirmationMarkdown(name, link string) string {
	greeting := "안녕하세요!"
	if name = strings.TrimSpace(name); name != "" {
		greeting = fmt.Sprintf("안녕하세요, %s님!", name)
	}
	return fmt.Sprintf(`%s

DoClimb 가입을 환영합니다. 아래 링크를 눌러 이메일 인증을 완료해주세요.

[이메일 인증하기](%s)

본인이 요청하지 않았다면 이 메일을 무시하셔도 됩니다.
`, greeting, link)
}

func (m *ResendMailer) SendConfirmation(ctx context.Context, to, name, link string) error {
	var body bytes.Buffer
	if err := m.md.Convert([]byte(confirmationMarkdown(name, link)), &body); err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: confirmationSubject,
		Html:    body.String(),
	})
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", to, "subject", confirmationSubject)
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", to)
	return nil
}
