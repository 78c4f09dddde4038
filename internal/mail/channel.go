package mail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	"rentmail/internal/config"
	"rentmail/internal/models"
)

// Dialer opens one SMTP connection. Satisfied by *gomail.Dialer.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Channel is the pooled, rate-limited connection to the mail transport.
// The semaphore bounds concurrent connections and the limiter bounds sends
// per window; both apply to every caller, immediate or dispatched.
type Channel struct {
	dialer   Dialer
	from     string
	fromName string
	limiter  *rate.Limiter
	sem      chan struct{}
	log      *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Channel {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return NewWithDialer(d, cfg, logger)
}

func NewWithDialer(d Dialer, cfg *config.Config, logger *zap.Logger) *Channel {
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Second
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	// Burst stays at 1 so that refill plus burst never exceeds the cap
	// inside any window of the configured length.
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(cfg.RateLimit)), 1)
	}

	return &Channel{
		dialer:   d,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		limiter:  limiter,
		sem:      make(chan struct{}, poolSize),
		log:      logger,
	}
}

// Verify checks that the transport is reachable and authenticated, retrying
// transient failures with exponential backoff.
func (c *Channel) Verify(ctx context.Context) error {
	operation := func() error {
		conn, err := c.dialer.Dial()
		if err != nil {
			return fmt.Errorf("smtp dial error: %w", err)
		}
		return conn.Close()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// Send delivers one fully-rendered message and returns its Message-ID.
func (c *Channel) Send(ctx context.Context, msg models.Message) (string, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.sem }()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	id := c.newMessageID()
	m := c.build(msg, id)

	conn, err := c.dialer.Dial()
	if err != nil {
		return "", fmt.Errorf("smtp dial error: %w", err)
	}
	defer conn.Close()

	if err := gomail.Send(conn, m); err != nil {
		return "", fmt.Errorf("smtp send error: %w", err)
	}

	c.log.Debug("message delivered",
		zap.String("message_id", id),
		zap.Strings("to", msg.To),
	)

	return id, nil
}

func (c *Channel) build(msg models.Message, id string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", c.from, c.fromName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/html", msg.HTML)
	if msg.Text != "" {
		m.AddAlternative("text/plain", msg.Text)
	}

	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}

	return m
}

// newMessageID builds an RFC 5322 Message-ID; SMTP itself assigns none.
func (c *Channel) newMessageID() string {
	domain := "localhost"
	if i := strings.LastIndex(c.from, "@"); i >= 0 && i < len(c.from)-1 {
		domain = c.from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
