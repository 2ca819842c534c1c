// Package notifier sends Telegram alerts when a scheduled run fails.
// Scheduled runs have no interactive observer, so the alert (plus the
// log file) is their only visible outcome. Delivery failures are
// logged and swallowed: notification is best-effort, never run-fatal.
package notifier

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	"toolshed/internal/runner"
	logx "toolshed/pkg/logx"
)

// Notifier is nil-safe: a nil *Notifier ignores every call, so the
// wrapper path never branches on "is notification configured".
type Notifier struct {
	bot     *tele.Bot
	chatID  int64
	limiter *rate.Limiter
	log     logx.Logger
}

// New connects to the Telegram Bot API. Returns (nil, nil) when token
// is empty (notification disabled).
func New(token string, chatID int64, log logx.Logger) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: false,
	})
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		// An interval trigger gone wrong can fail every few minutes;
		// cap alerts so the chat stays readable.
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 3),
		log:     log,
	}, nil
}

// RunFailed reports a failed run. Rate-limited; dropped alerts are
// logged so the log file trail stays complete.
func (n *Notifier) RunFailed(ctx context.Context, res runner.Result, logPath string) {
	if n == nil {
		return
	}
	if !n.limiter.Allow() {
		n.log.Debug("failure alert suppressed by rate limit",
			logx.String("script", res.Script))
		return
	}

	text := fmt.Sprintf("⚠️ scheduled run failed\nscript: %s\noutcome: %s\nexit code: %d\nlog: %s",
		res.Script, res.Outcome, res.ExitCode, logPath)

	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(&tele.Chat{ID: n.chatID}, text)
		done <- err
	}()

	select {
	case <-ctx.Done():
		n.log.Warn("failure alert abandoned", logx.Err(ctx.Err()))
	case err := <-done:
		if err != nil {
			n.log.Warn("failure alert send failed",
				logx.String("script", res.Script), logx.Err(err))
		}
	}
}
