package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/confraria/backend/config"
	"github.com/confraria/backend/internal/emaillogs"
	"github.com/confraria/backend/pkg/queue"
)

// EmailProcessor processes outbound email jobs: compose, send via SMTP,
// record the attempt. With no SMTP host configured it logs the email instead
// of sending, which keeps local development working without a mail server.
type EmailProcessor struct {
	logRepo *emaillogs.Repository
	queue   *queue.Queue
	email   config.EmailConfig
	logger  *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(logRepo *emaillogs.Repository, q *queue.Queue, email config.EmailConfig, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logRepo: logRepo, queue: q, email: email, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	var recipient, subject, body string

	switch job.Type {
	case queue.JobTypeWelcomeEmail:
		var payload queue.WelcomeEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		recipient = payload.Recipient
		subject = "Bem-vindo à Confraria"
		body = fmt.Sprintf(
			"Olá %s,\n\nSua candidatura foi aprovada e você agora é membro da Confraria.\n\nAcesse com seu e-mail e a senha temporária: %s\n\nTroque a senha no primeiro acesso.",
			payload.Name, payload.TempPassword,
		)
	case queue.JobTypeRecoveryEmail:
		var payload queue.RecoveryEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		recipient = payload.Recipient
		subject = "Recuperação de senha"
		body = fmt.Sprintf(
			"Olá %s,\n\nRecebemos um pedido de recuperação de senha. Entre em contato com a administração da Confraria para redefini-la.",
			payload.Name,
		)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	sendErr := p.send(recipient, subject, body)
	status := "sent"
	errMsg := ""
	if sendErr != nil {
		status = "failed"
		errMsg = sendErr.Error()
	}
	if err := p.logRepo.Record(ctx, string(job.Type), recipient, subject, status, errMsg); err != nil {
		p.logger.Error("email log record failed", zap.Error(err), zap.String("job_id", job.ID))
	}
	if sendErr != nil {
		return fmt.Errorf("send email: %w", sendErr)
	}

	p.logger.Info("email sent", zap.String("type", string(job.Type)), zap.String("recipient", recipient))
	return nil
}

func (p *EmailProcessor) send(recipient, subject, body string) error {
	if p.email.SMTPHost == "" {
		p.logger.Info("smtp not configured, logging email only",
			zap.String("recipient", recipient), zap.String("subject", subject))
		return nil
	}

	from := p.email.FromAddress
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", p.email.FromName, from),
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", p.email.SMTPHost, p.email.SMTPPort)
	var auth smtp.Auth
	if p.email.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.email.SMTPUser, p.email.SMTPPass, p.email.SMTPHost)
	}
	return smtp.SendMail(addr, auth, from, []string{recipient}, []byte(msg))
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
