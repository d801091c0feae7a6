package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	requestTimeout = 20 * time.Second

	// floodMargin is added on top of the provider-mandated retry_after
	// so the next call lands safely past the window edge.
	floodMargin = 50 * time.Millisecond
)

// LogSink receives operational log lines for durable storage. The
// database repository implements it; a nil sink is ignored.
type LogSink interface {
	AppendLog(ctx context.Context, level, message string) error
}

type Config struct {
	Token   string
	BaseURL string
}

// Client wraps outbound Bot API calls behind the rate limiter and the
// provider's flood-control protocol. Every failure comes back as a
// *APIResponse with OK=false rather than as an error; the error return
// is reserved for transport-level problems (DNS, timeouts).
type Client struct {
	http    *resty.Client
	limiter *RateLimiter
	token   string
	logger  *logrus.Logger
	sink    LogSink
}

func NewClient(cfg Config, limiter *RateLimiter, sink LogSink, logger *logrus.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetTimeout(requestTimeout)

	return &Client{
		http:    http,
		limiter: limiter,
		token:   cfg.Token,
		logger:  logger,
		sink:    sink,
	}
}

// Post executes one Bot API method. Passing a chat id applies the
// per-recipient spacing in addition to the global ceiling.
//
// A flood-control reply (HTTP 429 or an embedded error_code 429) makes
// Post sleep retry_after plus a small margin before returning the failed
// response; the caller decides whether to retry. Non-JSON bodies are
// normalized into a synthetic failure response carrying the HTTP status.
func (c *Client) Post(ctx context.Context, method string, payload any, chatID ...int64) (*APIResponse, error) {
	if err := c.limiter.Acquire(ctx, chatID...); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf("/bot%s/%s", c.token, method))
	if err != nil {
		c.logger.WithError(err).WithField("method", method).Warn("API request failed")
		return nil, fmt.Errorf("api call %s: %w", method, err)
	}

	var api APIResponse
	if jsonErr := json.Unmarshal(resp.Body(), &api); jsonErr != nil {
		api = APIResponse{
			OK:          false,
			ErrorCode:   resp.StatusCode(),
			Description: "non-JSON",
		}
	}

	if resp.StatusCode() == 429 || api.Flooded() {
		retry := api.RetryAfterSeconds()
		c.warn(ctx, fmt.Sprintf("Flood wait %ds on %s", retry, method))
		if err := sleepCtx(ctx, time.Duration(retry)*time.Second+floodMargin); err != nil {
			return &api, nil
		}
	}

	return &api, nil
}

// FetchAvailableGiftsRaw returns the unparsed getAvailableGifts reply,
// used by the admin debug dump.
func (c *Client) FetchAvailableGiftsRaw(ctx context.Context) (*APIResponse, error) {
	return c.Post(ctx, "getAvailableGifts", map[string]any{})
}

// SendGift sends one gift to a user, optionally with an attached note.
// The boolean outcome is all the dispatcher needs; failures are logged.
func (c *Client) SendGift(ctx context.Context, userID int64, giftID, text string) bool {
	payload := map[string]any{
		"user_id": userID,
		"gift_id": giftID,
	}
	if text != "" {
		payload["text"] = text
	}

	resp, err := c.Post(ctx, "sendGift", payload, userID)
	if err != nil {
		c.warn(ctx, fmt.Sprintf("sendGift error: %v", err))
		return false
	}
	if !resp.OK {
		c.warn(ctx, fmt.Sprintf("sendGift failed: %d %s", resp.ErrorCode, resp.Description))
		return false
	}
	return true
}

// SendMessage delivers a plain text message to a chat. Best-effort.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) bool {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	resp, err := c.Post(ctx, "sendMessage", payload, chatID)
	if err != nil {
		return false
	}
	return resp.OK
}

func (c *Client) warn(ctx context.Context, message string) {
	c.logger.Warn(message)
	if c.sink != nil {
		if err := c.sink.AppendLog(ctx, "WARN", message); err != nil {
			c.logger.WithError(err).Debug("Failed to persist log entry")
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
