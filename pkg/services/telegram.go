package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"blog-server/pkg/config"
	"blog-server/pkg/models"
)

const (
	unknownValue   = "未知"
	directReferrer = "直接访问"
)

// TelegramResult is the decoded sendMessage response.
type TelegramResult struct {
	OK  bool            `json:"ok"`
	Raw json.RawMessage `json:"-"`
}

// Notifier relays private page access notifications to a Telegram chat.
type Notifier struct {
	Client *http.Client
	Now    func() time.Time
}

func NewNotifier() *Notifier {
	return &Notifier{
		Client: &http.Client{Timeout: config.UpstreamTimeout},
		Now:    time.Now,
	}
}

// ValidateNotifyRequest reports whether all required fields are present.
func ValidateNotifyRequest(req models.NotifyRequest) bool {
	return req.PageTitle != "" && req.PageURL != "" && req.DeviceInfo != nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// NotifyMessage renders the Markdown text of an access notification.
func NotifyMessage(req models.NotifyRequest, at time.Time) string {
	d := models.DeviceInfo{}
	if req.DeviceInfo != nil {
		d = *req.DeviceInfo
	}
	var b strings.Builder
	b.WriteString("🔐 *私密页面访问通知*\n\n")
	fmt.Fprintf(&b, "📄 *页面*: %s\n", req.PageTitle)
	fmt.Fprintf(&b, "🔗 *链接*: %s\n", req.PageURL)
	fmt.Fprintf(&b, "⏰ *时间*: %s\n\n", at.Format("2006/01/02 15:04:05"))
	b.WriteString("📱 *设备信息*:\n")
	fmt.Fprintf(&b, "- 平台: %s\n", orDefault(d.Platform, unknownValue))
	fmt.Fprintf(&b, "- 屏幕: %s\n", orDefault(d.ScreenSize, unknownValue))
	fmt.Fprintf(&b, "- 语言: %s\n", orDefault(d.Language, unknownValue))
	fmt.Fprintf(&b, "- 时区: %s\n", orDefault(d.TimeZone, unknownValue))
	fmt.Fprintf(&b, "- 来源: %s\n\n", orDefault(d.Referrer, directReferrer))
	fmt.Fprintf(&b, "🌐 *浏览器*: %s", orDefault(d.UserAgent, unknownValue))
	return b.String()
}

func (n *Notifier) localNow() time.Time {
	now := n.Now()
	loc, err := time.LoadLocation(config.NotifyTimezone)
	if err != nil {
		log.Printf("notify timezone invalid tz=%s err=%v", config.NotifyTimezone, err)
		return now
	}
	return now.In(loc)
}

// Notify formats and sends the notification. A transport failure is an error;
// a Telegram refusal comes back as a result with OK false.
func (n *Notifier) Notify(ctx context.Context, req models.NotifyRequest) (TelegramResult, error) {
	if config.TelegramBotToken == "" || config.TelegramChatID == "" {
		return TelegramResult{}, fmt.Errorf("telegram bot: %w", ErrNotConfigured)
	}
	payload, err := json.Marshal(map[string]string{
		"chat_id":    config.TelegramChatID,
		"text":       NotifyMessage(req, n.localNow()),
		"parse_mode": "Markdown",
	})
	if err != nil {
		return TelegramResult{}, err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(config.TelegramAPIURL, "/"), config.TelegramBotToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return TelegramResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(httpReq)
	if err != nil {
		return TelegramResult{}, redactToken(err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return TelegramResult{}, fmt.Errorf("%w: %v", ErrInvalidUpstream, err)
	}
	result := TelegramResult{Raw: raw}
	if err := json.Unmarshal(raw, &result); err != nil {
		return TelegramResult{}, fmt.Errorf("%w: %v", ErrInvalidUpstream, err)
	}
	return result, nil
}

// redactToken keeps the bot token out of errors that embed the request URL.
func redactToken(err error) error {
	msg := strings.ReplaceAll(err.Error(), config.TelegramBotToken, "***")
	return fmt.Errorf("%s", msg)
}
