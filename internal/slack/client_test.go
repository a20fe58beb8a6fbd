package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/report"
	"github.com/fakeyudi/luaqa/internal/status"
)

type fakeSlack struct {
	mu       sync.Mutex
	requests map[string][]messageRequest
	auth     []string
	failures map[string]int
	pages    []string
}

func newFakeSlack() *fakeSlack {
	return &fakeSlack{
		requests: map[string][]messageRequest{},
		failures: map[string]int{},
		pages: []string{
			`{"ok":true,"channels":[{"id":"C0","name":"general"}],"response_metadata":{"next_cursor":"page2"}}`,
			`{"ok":true,"channels":[{"id":"C1","name":"ci"}],"response_metadata":{"next_cursor":""}}`,
		},
	}
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	method := r.URL.Path[1:]

	if f.failures[method] > 0 {
		f.failures[method]--
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch method {
	case "conversations.list":
		if r.URL.Query().Get("cursor") == "page2" {
			io.WriteString(w, f.pages[1])
			return
		}
		io.WriteString(w, f.pages[0])
	case "chat.postMessage", "chat.update":
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.requests[method] = append(f.requests[method], req)
		if req.Channel != "C1" {
			io.WriteString(w, `{"ok":false,"error":"channel_not_found"}`)
			return
		}
		ts := req.TS
		if ts == "" {
			ts = "1700000000.000100"
		}
		io.WriteString(w, `{"ok":true,"ts":"`+ts+`"}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, h http.Handler, channel string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", channel, nil, WithBaseURL(srv.URL), WithRetry(2, time.Millisecond))
}

func TestPostResolvesChannelAcrossPages(t *testing.T) {
	fake := newFakeSlack()
	c := newTestClient(t, fake, "#ci")

	ts, err := c.Post(context.Background(), report.Message{
		Text:   "GitHub Actions job",
		Fields: []status.Field{{Title: "Status", Value: "In Progress"}, {Title: "StyLua issues", Value: "Checking..."}},
		Color:  "#1f242b",
	})
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000100", ts)

	require.Len(t, fake.requests["chat.postMessage"], 1)
	got := fake.requests["chat.postMessage"][0]
	assert.Equal(t, "C1", got.Channel)
	assert.Equal(t, "GitHub Actions job", got.Text)
	assert.Empty(t, got.TS)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "#1f242b", got.Attachments[0].Color)
	assert.Equal(t, []block{{Type: "section", Fields: []field{
		{Type: "mrkdwn", Text: "*Status*\nIn Progress"},
		{Type: "mrkdwn", Text: "*StyLua issues*\nChecking..."},
	}}}, got.Attachments[0].Blocks)

	for _, a := range fake.auth {
		assert.Equal(t, "Bearer xoxb-test", a)
	}
}

func TestUpdateSendsTimestamp(t *testing.T) {
	fake := newFakeSlack()
	c := newTestClient(t, fake, "ci")
	ctx := context.Background()

	ts, err := c.Post(ctx, report.Message{Text: "t"})
	require.NoError(t, err)

	got, err := c.Update(ctx, ts, report.Message{Text: "t", Color: "#24a943"})
	require.NoError(t, err)
	assert.Equal(t, ts, got)

	require.Len(t, fake.requests["chat.update"], 1)
	upd := fake.requests["chat.update"][0]
	assert.Equal(t, ts, upd.TS)
	assert.Equal(t, "C1", upd.Channel)
	assert.Equal(t, "#24a943", upd.Attachments[0].Color)
}

func TestUpdateBeforePostFails(t *testing.T) {
	c := newTestClient(t, newFakeSlack(), "ci")

	_, err := c.Update(context.Background(), "1", report.Message{})
	assert.ErrorIs(t, err, report.ErrNotRunning)
}

func TestChannelNotFound(t *testing.T) {
	c := newTestClient(t, newFakeSlack(), "releases")

	_, err := c.Post(context.Background(), report.Message{})
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestAPIErrorSurfaces(t *testing.T) {
	fake := newFakeSlack()
	fake.pages[1] = `{"ok":false,"error":"invalid_auth"}`
	c := newTestClient(t, fake, "ci")

	_, err := c.Post(context.Background(), report.Message{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, "conversations.list", apiErr.Method)
	assert.Equal(t, "invalid_auth", apiErr.Code)
}

func TestServerErrorsAreRetried(t *testing.T) {
	fake := newFakeSlack()
	fake.failures["chat.postMessage"] = 2
	c := newTestClient(t, fake, "ci")

	_, err := c.Post(context.Background(), report.Message{Text: "t"})
	require.NoError(t, err)
	assert.Len(t, fake.requests["chat.postMessage"], 1)
}

func TestSessionOverClient(t *testing.T) {
	fake := newFakeSlack()
	c := newTestClient(t, fake, "ci")
	e := status.NewEngine(config.Defaults(), "text", status.Field{Title: "Commit", Value: "abc"})
	s := report.NewSession(c, e, nil)
	ctx := context.Background()

	require.NoError(t, s.Start())
	_, err := s.Post(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Finalize(ctx))

	require.Len(t, fake.requests["chat.update"], 1)
	final := fake.requests["chat.update"][0]
	assert.Equal(t, config.Defaults().Colors.Success, final.Attachments[0].Color)
	assert.Equal(t, "*Status*\nSuccess", final.Attachments[0].Blocks[0].Fields[0].Text)
}
