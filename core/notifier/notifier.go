// Package notifier delivers run reports to operators.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/go-resty/resty/v2"

	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// Notifier receives free form messages and per-wallet reports.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendSummary(ctx context.Context, report Report) error
}

// Noop drops everything.
type Noop struct{}

func (Noop) SendMessage(context.Context, string) error  { return nil }
func (Noop) SendSummary(context.Context, Report) error { return nil }

// TelegramConfig holds the bot credentials and recipients.
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatIDs  []int64
	// BaseURL overrides the Bot API endpoint, mostly for tests.
	BaseURL string
	Timeout time.Duration
}

// New returns a Telegram notifier, or Noop when Telegram is disabled or not
// fully configured.
func New(cfg TelegramConfig, log sdklogging.Logger) Notifier {
	if !cfg.Enabled || cfg.BotToken == "" || len(cfg.ChatIDs) == 0 {
		return Noop{}
	}
	return NewTelegram(cfg, log)
}

// Telegram posts to the Bot API sendMessage method, once per chat.
type Telegram struct {
	client  *resty.Client
	token   string
	chatIDs []int64
	logger  sdklogging.Logger
}

func NewTelegram(cfg TelegramConfig, log sdklogging.Logger) *Telegram {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Telegram{
		client:  resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		token:   cfg.BotToken,
		chatIDs: append([]int64{}, cfg.ChatIDs...),
		logger:  logger.EnsureLogger(log),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	return t.send(ctx, text, "")
}

func (t *Telegram) SendSummary(ctx context.Context, report Report) error {
	return t.send(ctx, FormatHTML(report), "HTML")
}

// send tries every chat and joins the failures.
func (t *Telegram) send(ctx context.Context, text, parseMode string) error {
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := t.sendTo(ctx, chatID, text, parseMode); err != nil {
			t.logger.Warn("Telegram delivery failed", "chat", chatID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Telegram) sendTo(ctx context.Context, chatID int64, text, parseMode string) error {
	var result apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:    strconv.FormatInt(chatID, 10),
			Text:      text,
			ParseMode: parseMode,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram rejected message: status %d: %s", resp.StatusCode(), result.Description)
	}
	return nil
}
