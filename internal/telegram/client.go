package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// maxResponseSize caps Bot API JSON bodies; file downloads are streamed instead.
	maxResponseSize = 8 << 20

	defaultSendTimeout = 30 * time.Second
)

type ClientConfig struct {
	Token      string
	BaseURL    string // Optional: defaults to DefaultBaseURL
	HTTPClient *http.Client
	SendRPS    float64 // Outbound send rate; <= 0 disables limiting
	SendBurst  int
}

// Client speaks the Bot API over HTTPS. Send methods are rate limited and safe for
// concurrent use; GetUpdates is not limited.
type Client struct {
	apiURL     string
	fileURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: long polls set their own deadline per request
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	burst := cfg.SendBurst
	if cfg.SendRPS > 0 {
		limit = rate.Limit(cfg.SendRPS)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		apiURL:     base + "/bot" + cfg.Token,
		fileURL:    base + "/file/bot" + cfg.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// Call performs a rate-limited Bot API method and decodes its result into result (if non-nil).
// Failures are returned to the caller and never retried here.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: rate limiter: %w", ErrTransport, method, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	return c.do(ctx, method, params, result)
}

func (c *Client) do(ctx context.Context, method string, params, result any) error {
	var body io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("telegram: failed to encode %s params: %w", method, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %s: failed to read body: %w", ErrTransport, method, err)
	}

	var envelope response
	err = json.Unmarshal(raw, &envelope)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %s: unexpected status %d", ErrTransport, method, resp.StatusCode)
		}
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, method, err)
	}

	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	err = json.Unmarshal(envelope.Result, result)
	if err != nil {
		return fmt.Errorf("%w: %s result: %w", ErrMalformedResponse, method, err)
	}

	return nil
}

// redact strips the request URL (which embeds the bot token) from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// GetMe validates the token and returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	err := c.Call(ctx, "getMe", nil, &me)
	if err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for updates with id >= offset, holding up to timeout server-side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration, allowed []string) ([]Update, error) {
	var updates []Update
	params := getUpdatesParams{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: allowed,
	}
	err := c.do(ctx, "getUpdates", params, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []InlineQueryResult, cacheTime time.Duration) error {
	if results == nil {
		results = []InlineQueryResult{}
	}
	return c.Call(ctx, "answerInlineQuery", answerInlineQueryParams{
		InlineQueryID: queryID,
		Results:       results,
		CacheTime:     int(cacheTime / time.Second),
		IsPersonal:    true,
	}, nil)
}

// SendPhotoWithPrompt sends a stored photo with a forced-reply prompt and returns the
// id of the sent message, which replies will reference.
func (c *Client) SendPhotoWithPrompt(ctx context.Context, chatID int64, fileID, prompt string) (int64, error) {
	var msg Message
	err := c.Call(ctx, "sendPhoto", sendPhotoParams{
		ChatID:      chatID,
		Photo:       fileID,
		Caption:     prompt,
		ReplyMarkup: &ForceReply{ForceReply: true},
	}, &msg)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.Call(ctx, "answerCallbackQuery", answerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}, nil)
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	err := c.Call(ctx, "getFile", getFileParams{FileID: fileID}, &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile streams a file previously resolved with GetFile. The caller closes the body.
func (c *Client) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL+"/"+strings.TrimPrefix(filePath, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download: %w", ErrTransport, redact(err))
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: download: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	return resp.Body, nil
}
