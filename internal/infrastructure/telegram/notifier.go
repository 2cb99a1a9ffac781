package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier delivers papers as Telegram messages through the Bot API.
// The returned handle is the platform message id, later used to correlate
// reaction-based vote events back to the posted paper.
type Notifier struct {
	apiBase string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.Deliverer = (*Notifier)(nil)

func NewNotifier(token string, httpClient *http.Client, logger *slog.Logger) *Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Notifier{
		apiBase: defaultAPIBase,
		token:   token,
		http:    httpClient,
		logger:  logger.With("component", "telegram"),
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Deliver posts one paper to the destination's chat. The destination's
// Channel holds the Telegram chat id; Tenant is unused on this platform.
func (n *Notifier) Deliver(ctx context.Context, dest domain.Destination, paper domain.Paper, matched []string) (string, error) {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                dest.Channel,
		Text:                  formatMessage(paper, matched),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !out.OK {
		return "", fmt.Errorf("telegram api error: %s", out.Description)
	}

	handle := strconv.FormatInt(out.Result.MessageID, 10)
	n.logger.Debug("paper delivered", "chat_id", dest.Channel, "message_id", handle)
	return handle, nil
}

func formatMessage(paper domain.Paper, matched []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(paper.Title))
	if len(paper.Authors) > 0 {
		authors := paper.Authors
		if len(authors) > 3 {
			authors = append(append([]string{}, authors[:3]...), "et al.")
		}
		fmt.Fprintf(&b, "%s\n", html.EscapeString(strings.Join(authors, ", ")))
	}
	if paper.PrimaryCategory != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(paper.PrimaryCategory))
	}
	if paper.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(paper.Summary))
	}
	if len(matched) > 0 {
		fmt.Fprintf(&b, "\nMatched: %s\n", html.EscapeString(strings.Join(matched, ", ")))
	}
	if paper.URL != "" {
		fmt.Fprintf(&b, "\n%s", paper.URL)
	}
	return b.String()
}
