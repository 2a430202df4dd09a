// Package telegram delivers announcements to a Telegram chat or channel.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/metrics"
)

// Delivery modes.
const (
	ModeSingle = "single"
	ModeDigest = "digest"
)

// DefaultMessageDelay spaces consecutive sends to stay under Telegram's
// per-chat flood limit.
const DefaultMessageDelay = 3 * time.Second

// Sender is the part of *tgbotapi.BotAPI the publisher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Chat addresses either a numeric chat id or a public @channel.
type Chat struct {
	ID       int64
	Username string
}

// ParseChat accepts "-1001234", "@channel" or a bare channel name.
func ParseChat(s string) (Chat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chat{}, errors.New("empty chat id")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Chat{ID: id}, nil
	}
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return Chat{Username: s}, nil
}

func (c Chat) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

// Failure is an announcement that could not be delivered.
type Failure struct {
	ID  games.CanonicalKey
	Err error
}

// Report is the outcome of one Publish call.
type Report struct {
	Sent     []games.CanonicalKey
	Failures []Failure
}

// Err summarises the failures, or returns nil when everything was sent.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.ID, f.Err))
	}
	return fmt.Errorf("%d of %d announcements not delivered: %w",
		len(r.Failures), len(r.Failures)+len(r.Sent), errors.Join(errs...))
}

// NewBot connects to the Bot API with token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// Publisher sends announcements through a Sender.
type Publisher struct {
	sender     Sender
	chat       Chat
	mode       string
	delay      time.Duration
	retryDelay time.Duration
	format     Formatter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Publisher)

// WithMode selects ModeSingle or ModeDigest. Unknown modes fall back to single.
func WithMode(mode string) Option {
	return func(p *Publisher) {
		if mode == ModeDigest {
			p.mode = ModeDigest
		}
	}
}

// WithDelay sets the pause between consecutive messages.
func WithDelay(d time.Duration) Option {
	return func(p *Publisher) {
		if d >= 0 {
			p.delay = d
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(p *Publisher) { p.retryDelay = d }
}

func WithFormatter(f Formatter) Option {
	return func(p *Publisher) { p.format = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func NewPublisher(sender Sender, chat Chat, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		sender:     sender,
		chat:       chat,
		mode:       ModeSingle,
		delay:      DefaultMessageDelay,
		retryDelay: 2 * time.Second,
		format:     Formatter{Labels: LabelsFor("en")},
		logger:     logger.With("chat", chat.String()),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish delivers anns in order. Failures are reported per announcement and
// never stop the remaining sends, except when ctx is cancelled.
func (p *Publisher) Publish(ctx context.Context, anns []games.Announcement) Report {
	var report Report
	if len(anns) == 0 {
		return report
	}

	if p.mode == ModeDigest {
		report = p.publishDigest(ctx, anns)
	} else {
		report = p.publishSingle(ctx, anns)
	}

	if p.metrics != nil {
		p.metrics.AddAnnouncementsPublished(len(report.Sent))
		p.metrics.AddDeliveryFailures(len(report.Failures))
	}
	p.logger.Info("Publish finished", "mode", p.mode, "sent", len(report.Sent), "failed", len(report.Failures))
	return report
}

func (p *Publisher) publishSingle(ctx context.Context, anns []games.Announcement) Report {
	var report Report
	for i, a := range anns {
		if i > 0 {
			if err := p.wait(ctx); err != nil {
				for _, rest := range anns[i:] {
					report.Failures = append(report.Failures, Failure{ID: rest.ID, Err: err})
				}
				return report
			}
		}
		if err := p.sendAnnouncement(ctx, a); err != nil {
			p.logger.Error("Failed to deliver announcement", "id", a.ID, "title", a.Title, "error", err)
			report.Failures = append(report.Failures, Failure{ID: a.ID, Err: err})
			continue
		}
		p.logger.Info("Announcement delivered", "id", a.ID, "title", a.Title)
		report.Sent = append(report.Sent, a.ID)
	}
	return report
}

func (p *Publisher) publishDigest(ctx context.Context, anns []games.Announcement) Report {
	var report Report
	msgs, ids := p.format.Digest(anns, p.now())
	for i, text := range msgs {
		var err error
		if i > 0 {
			err = p.wait(ctx)
		}
		if err == nil {
			err = p.send(ctx, p.textMessage(text))
		}
		if err != nil {
			p.logger.Error("Failed to deliver digest part", "part", i+1, "parts", len(msgs), "error", err)
			for _, id := range ids[i] {
				report.Failures = append(report.Failures, Failure{ID: id, Err: err})
			}
			continue
		}
		report.Sent = append(report.Sent, ids[i]...)
	}
	return report
}

// sendAnnouncement posts a photo with caption when the announcement has an
// image, falling back to a text message.
func (p *Publisher) sendAnnouncement(ctx context.Context, a games.Announcement) error {
	if a.ImageURL != "" {
		if caption := p.format.Caption(a); caption != "" {
			err := p.send(ctx, p.photoMessage(a.ImageURL, caption))
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return err
			}
			p.logger.Warn("Photo send failed, falling back to text", "id", a.ID, "image", a.ImageURL, "error", err)
		}
	}
	return p.send(ctx, p.textMessage(p.format.Message(a)))
}

func (p *Publisher) textMessage(text string) tgbotapi.Chattable {
	var msg tgbotapi.MessageConfig
	if p.chat.Username != "" {
		msg = tgbotapi.NewMessageToChannel(p.chat.Username, text)
	} else {
		msg = tgbotapi.NewMessage(p.chat.ID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

func (p *Publisher) photoMessage(imageURL, caption string) tgbotapi.Chattable {
	var photo tgbotapi.PhotoConfig
	if p.chat.Username != "" {
		photo = tgbotapi.NewPhotoToChannel(p.chat.Username, tgbotapi.FileURL(imageURL))
	} else {
		photo = tgbotapi.NewPhoto(p.chat.ID, tgbotapi.FileURL(imageURL))
	}
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	return photo
}

func (p *Publisher) send(ctx context.Context, c tgbotapi.Chattable) error {
	err := retry.Do(
		func() error {
			_, err := p.sender.Send(c)
			return err
		},
		retry.Attempts(3),
		retry.Delay(p.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Info("Retrying telegram send after error", "attempt", n, "error", err)
		}),
		retry.RetryIf(retryable),
	)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// retryable reports whether a send error is worth another attempt. Bot API
// rejections other than flood control and server errors are final.
func retryable(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return true
}

func (p *Publisher) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
