// Package vkapi implements the outbound VK API call path: request signing
// (token + version), the response envelope, rate-limit aware retries, and
// the handful of method wrappers the runtime needs.
package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vkgram/pkg/keyboard"
	"vkgram/pkg/logger"
	"vkgram/pkg/ratelimit"
	"vkgram/pkg/types"
)

const (
	DefaultBaseURL = "https://api.vk.com/method"
	DefaultVersion = "5.199"

	// Error code 6 is "too many requests per second".
	errCodeRateLimited = 6

	// Per-attempt increment for the rate-limit backoff.
	rateLimitBackoffStep = 340 * time.Millisecond
)

// Error is the error object of the VK API response envelope.
type Error struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// Cursor carries a long-poll ts value. The servers return it as a JSON
// string from a_check and as a number from groups.getLongPollServer, so both
// are accepted.
type Cursor string

func (c *Cursor) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		*c = Cursor(unquoted)
		return nil
	}
	*c = Cursor(s)
	return nil
}

// LongPollServer is the result of groups.getLongPollServer.
type LongPollServer struct {
	Server string `json:"server"`
	Key    string `json:"key"`
	TS     Cursor `json:"ts"`
}

type Client struct {
	token      string
	version    string
	baseURL    string
	maxRetries int
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logger.Logger
}

func NewClient(token, version, baseURL string, timeout time.Duration, maxRateLimitRetries int, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	if version == "" {
		version = DefaultVersion
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		token:      token,
		version:    version,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: maxRateLimitRetries,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log,
	}
}

// Call issues one API method call. Rate-limit errors (code 6) are retried
// with an incremental backoff up to the configured budget; any other API
// error is logged and returned with an empty result, without retry.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	for attempt := 1; ; attempt++ {
		result, err := c.callOnce(ctx, method, params)
		if err == nil {
			return result, nil
		}

		apiErr, ok := err.(*Error)
		if ok && apiErr.Code == errCodeRateLimited && attempt <= c.maxRetries {
			backoff := time.Duration(attempt) * rateLimitBackoffStep
			c.log.WarnF("vkapi", "Rate limited, backing off", map[string]interface{}{
				logger.FieldMethod: method,
				"attempt":          attempt,
				"backoff":          backoff.String(),
			})
			if serr := sleepContext(ctx, backoff); serr != nil {
				return nil, serr
			}
			continue
		}

		c.log.ErrorF("vkapi", "API call failed", map[string]interface{}{
			logger.FieldMethod: method,
			logger.FieldError:  err.Error(),
		})
		return nil, err
	}
}

func (c *Client) callOnce(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	for key, values := range params {
		form[key] = values
	}
	form.Set("access_token", c.token)
	form.Set("v", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *Error          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Response, nil
}

// GetLongPollServer negotiates a long-poll session for the group.
func (c *Client) GetLongPollServer(ctx context.Context, groupID int64) (LongPollServer, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(groupID, 10))

	raw, err := c.Call(ctx, "groups.getLongPollServer", params)
	if err != nil {
		return LongPollServer{}, err
	}

	var server LongPollServer
	if err := json.Unmarshal(raw, &server); err != nil {
		return LongPollServer{}, fmt.Errorf("failed to unmarshal long poll server: %w", err)
	}
	if server.Server == "" || server.Key == "" {
		return LongPollServer{}, fmt.Errorf("incomplete long poll server response")
	}
	return server, nil
}

// MessageOptions carries the optional parts of an outbound message.
type MessageOptions struct {
	Keyboard    *keyboard.Keyboard
	Attachments []AttachmentRef
	Payload     string
}

// SendMessage posts a text message to the peer and returns the new message
// id. random_id deduplicates retried sends on the server side.
func (c *Client) SendMessage(ctx context.Context, peerID int64, text string, opts *MessageOptions) (int64, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.FormatUint(uint64(uuid.New().ID()), 10))

	if opts != nil {
		if opts.Keyboard != nil {
			kb, err := opts.Keyboard.JSON()
			if err != nil {
				return 0, fmt.Errorf("failed to encode keyboard: %w", err)
			}
			params.Set("keyboard", kb)
		}
		if len(opts.Attachments) > 0 {
			params.Set("attachment", PrepareAttachments(opts.Attachments))
		}
		if opts.Payload != "" {
			params.Set("payload", opts.Payload)
		}
	}

	raw, err := c.Call(ctx, "messages.send", params)
	if err != nil {
		return 0, err
	}

	var messageID int64
	if err := json.Unmarshal(raw, &messageID); err != nil {
		// Newer API versions wrap the id when extra params are passed.
		var wrapped []struct {
			MessageID int64 `json:"message_id"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil || len(wrapped) == 0 {
			return 0, fmt.Errorf("failed to unmarshal message id: %w", err)
		}
		messageID = wrapped[0].MessageID
	}
	return messageID, nil
}

// GetUsers resolves user records via users.get.
func (c *Client) GetUsers(ctx context.Context, userIDs ...int64) ([]types.User, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	params := url.Values{}
	params.Set("user_ids", strings.Join(ids, ","))

	raw, err := c.Call(ctx, "users.get", params)
	if err != nil {
		return nil, err
	}

	var users []types.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	return users, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
