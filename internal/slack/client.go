// Package slack posts and updates the run report through the Slack Web API.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
	"github.com/fakeyudi/luaqa/internal/report"
	"github.com/fakeyudi/luaqa/internal/status"
)

const defaultBaseURL = "https://slack.com/api"

// ErrChannelNotFound is returned when no conversation has the configured name.
var ErrChannelNotFound = errors.New("slack channel not found")

// APIError is an "ok": false answer from the Web API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
}

// Client implements report.Poster for one channel.
type Client struct {
	baseURL    string
	token      string
	channel    string
	channelID  string
	httpClient *retryablehttp.Client
	log        logrus.FieldLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry sets the retry budget and minimum wait between attempts.
func WithRetry(retries int, wait time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retries
		c.httpClient.RetryWaitMin = wait
		if c.httpClient.RetryWaitMax < wait {
			c.httpClient.RetryWaitMax = wait
		}
	}
}

// NewClient returns a client posting to the channel named channel, with or
// without a leading '#'.
func NewClient(token, channel string, log logrus.FieldLogger, opts ...Option) *Client {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	hc := retryablehttp.NewClient()
	hc.HTTPClient = cleanhttp.DefaultPooledClient()
	hc.HTTPClient.Timeout = 10 * time.Second
	hc.Logger = leveledLogger{log}

	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		channel:    strings.TrimPrefix(channel, "#"),
		httpClient: hc,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type field struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type block struct {
	Type   string  `json:"type"`
	Fields []field `json:"fields"`
}

type attachment struct {
	Color  string  `json:"color"`
	Blocks []block `json:"blocks"`
}

type messageRequest struct {
	Channel     string       `json:"channel"`
	Text        string       `json:"text"`
	TS          string       `json:"ts,omitempty"`
	Attachments []attachment `json:"attachments"`
}

type apiResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	TS       string `json:"ts"`
	Channels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"channels"`
	Metadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// mrkdwnFields renders report fields as mrkdwn section fields.
func mrkdwnFields(fields []status.Field) []field {
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		out = append(out, field{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", f.Title, f.Value)})
	}
	return out
}

func (c *Client) payload(m report.Message, ts string) messageRequest {
	return messageRequest{
		Channel: c.channelID,
		Text:    m.Text,
		TS:      ts,
		Attachments: []attachment{{
			Color:  m.Color,
			Blocks: []block{{Type: "section", Fields: mrkdwnFields(m.Fields)}},
		}},
	}
}

// Post implements report.Poster. The channel is resolved on first use.
func (c *Client) Post(ctx context.Context, m report.Message) (string, error) {
	if c.channelID == "" {
		if err := c.FindChannel(ctx); err != nil {
			return "", err
		}
	}
	resp, err := c.call(ctx, "chat.postMessage", c.payload(m, ""))
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

// Update implements report.Poster.
func (c *Client) Update(ctx context.Context, ts string, m report.Message) (string, error) {
	if c.channelID == "" {
		return "", lqerrors.WithStackTrace(report.ErrNotRunning)
	}
	resp, err := c.call(ctx, "chat.update", c.payload(m, ts))
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

// FindChannel resolves the channel name to its ID through every page of
// conversations.list.
func (c *Client) FindChannel(ctx context.Context) error {
	c.log.Debugf("Finding #%s channel...", c.channel)
	cursor := ""
	for {
		q := url.Values{"limit": {"200"}, "exclude_archived": {"true"}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations.list?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := c.do(req, "conversations.list")
		if err != nil {
			return err
		}
		for _, ch := range resp.Channels {
			if ch.Name == c.channel {
				c.channelID = ch.ID
				c.log.Debugf("Found channel ID: %s", ch.ID)
				c.log.Infof("Found #%s channel", ch.Name)
				return nil
			}
		}
		cursor = resp.Metadata.NextCursor
		if cursor == "" {
			return lqerrors.WithStackTrace(fmt.Errorf("%w: #%s", ErrChannelNotFound, c.channel))
		}
	}
}

func (c *Client) call(ctx context.Context, method string, body any) (apiResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return apiResponse{}, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, data)
	if err != nil {
		return apiResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do(req, method)
}

func (c *Client) do(req *retryablehttp.Request, method string) (apiResponse, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, lqerrors.WithStackTrace(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResponse{}, err
	}
	if resp.StatusCode >= 300 {
		return apiResponse{}, lqerrors.Errorf("slack %s failed: %s: %s", method, resp.Status, strings.TrimSpace(string(payload)))
	}

	var out apiResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return apiResponse{}, lqerrors.WithStackTraceAndPrefix(err, "slack %s returned invalid JSON", method)
	}
	if !out.OK {
		return apiResponse{}, lqerrors.WithStackTrace(&APIError{Method: method, Code: out.Error})
	}
	if out.TS != "" {
		c.log.Debugf("Timestamp: %s", out.TS)
	}
	return out, nil
}

// leveledLogger routes retryablehttp logging to logrus, keeping request
// chatter at debug level.
type leveledLogger struct {
	log logrus.FieldLogger
}

func fields(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

func (l leveledLogger) Error(msg string, kv ...any) { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.log.WithFields(fields(kv)).Warn(msg) }
