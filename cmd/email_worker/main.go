package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/usuarios-storage-api/config"
	"github.com/oksasatya/usuarios-storage-api/pkg/helpers"
	"github.com/oksasatya/usuarios-storage-api/pkg/mailer"
	mailtpl "github.com/oksasatya/usuarios-storage-api/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// sender is satisfied by *mailer.Mailgun
type sender interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

var errBadJob = errors.New("bad email job")

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunEU)
	branding := mailtpl.WithBranding(cfg.AppName, cfg.CompanyName, cfg.SupportURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			entry := logger.WithField("message_id", msg.MessageId)
			id, err := process(context.Background(), mg, msg.Body, branding)
			switch {
			case errors.Is(err, errBadJob):
				entry.WithError(err).Error("dropping email job")
				_ = msg.Nack(false, false)
			case err != nil:
				entry.WithError(err).Warn("send failed; requeueing")
				_ = msg.Nack(false, true)
			default:
				entry.WithField("mailgun_id", id).Info("email sent")
				_ = msg.Ack(false)
			}
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// process decodes, renders and sends one job. Errors wrapping errBadJob are permanent.
func process(ctx context.Context, s sender, body []byte, opts ...mailtpl.Option) (string, error) {
	job, err := prepare(body, time.Now(), opts...)
	if err != nil {
		return "", err
	}
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return s.Send(c, job.To, job.Subject, job.Text, job.HTML)
}

// prepare decodes a job and renders its template, if any
func prepare(body []byte, now time.Time, opts ...mailtpl.Option) (mailer.EmailJob, error) {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %v", errBadJob, err)
	}
	if job.To == "" {
		return job, fmt.Errorf("%w: missing recipient", errBadJob)
	}
	mailer.EnsureRecipient(&job)

	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return job, fmt.Errorf("%w: no template and no content", errBadJob)
		}
		return job, nil
	}
	if !mailtpl.Known(job.Template) {
		return job, fmt.Errorf("%w: unknown template %q", errBadJob, job.Template)
	}
	job.Data = mailtpl.Apply(job.Data, append([]mailtpl.Option{mailtpl.WithTime(now)}, opts...)...)
	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return job, fmt.Errorf("%w: render %s: %v", errBadJob, job.Template, err)
	}
	job.Subject, job.Text, job.HTML = subject, text, html
	return job, nil
}

var _ sender = (*mailer.Mailgun)(nil)
