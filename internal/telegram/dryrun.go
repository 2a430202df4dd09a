package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/freegames/internal/games"
)

// LogPublisher renders announcements and logs them instead of sending.
type LogPublisher struct {
	format Formatter
	digest bool
	logger *slog.Logger
}

func NewLogPublisher(f Formatter, mode string, logger *slog.Logger) *LogPublisher {
	return &LogPublisher{format: f, digest: mode == ModeDigest, logger: logger}
}

// Publish reports every announcement as sent.
func (p *LogPublisher) Publish(_ context.Context, anns []games.Announcement) Report {
	var report Report
	if p.digest && len(anns) > 0 {
		msgs, ids := p.format.Digest(anns, time.Now())
		for i, m := range msgs {
			p.logger.Info("DRY RUN: would send digest", "part", i+1, "ids", len(ids[i]), "text", m)
		}
	} else {
		for _, a := range anns {
			p.logger.Info("DRY RUN: would send announcement", "id", a.ID, "image", a.ImageURL, "text", p.format.Message(a))
		}
	}
	for _, a := range anns {
		report.Sent = append(report.Sent, a.ID)
	}
	return report
}
