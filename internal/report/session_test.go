package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/status"
)

type call struct {
	op  string
	id  string
	msg Message
}

type fakePoster struct {
	calls     []call
	postErr   error
	updateErr error
	nextID    string
}

func (f *fakePoster) Post(_ context.Context, m Message) (string, error) {
	f.calls = append(f.calls, call{op: "post", msg: m})
	if f.postErr != nil {
		return "", f.postErr
	}
	return "1700000000.000100", nil
}

func (f *fakePoster) Update(_ context.Context, id string, m Message) (string, error) {
	f.calls = append(f.calls, call{op: "update", id: id, msg: m})
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return f.nextID, nil
}

func newSession(t *testing.T, cfg config.Config) (*Session, *fakePoster, *status.Engine) {
	t.Helper()
	p := &fakePoster{}
	e := status.NewEngine(cfg, "GitHub Actions job", status.Field{Title: "Commit", Value: "abc1234"})
	return NewSession(p, e, nil), p, e
}

func TestUpdateBeforePostFailsNotRunning(t *testing.T) {
	s, p, _ := newSession(t, config.Defaults())

	_, err := s.Update(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.Start())
	_, err = s.Update(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Empty(t, p.calls)
}

func TestPostRequiresRunning(t *testing.T) {
	s, _, _ := newSession(t, config.Defaults())

	_, err := s.Post(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStartTwice(t *testing.T) {
	s, _, _ := newSession(t, config.Defaults())

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
}

func TestPostOnce(t *testing.T) {
	s, p, _ := newSession(t, config.Defaults())
	require.NoError(t, s.Start())

	id, err := s.Post(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000100", id)

	_, err = s.Post(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyPosted)
	assert.Len(t, p.calls, 1)

	msg := p.calls[0].msg
	assert.Equal(t, "GitHub Actions job", msg.Text)
	assert.Equal(t, config.Defaults().Colors.Default, msg.Color)
	assert.Equal(t, status.Field{Title: "Status", Value: "In Progress"}, msg.Fields[0])
}

func TestLifecycleUpdatesSameMessage(t *testing.T) {
	s, p, e := newSession(t, config.Defaults())
	ctx := context.Background()
	require.NoError(t, s.Start())
	_, err := s.Post(ctx)
	require.NoError(t, err)

	e.Set(lint.StyLua, &lint.Lint{Failed: 1, Issues: 2, Files: []lint.File{{Path: "a.lua", ExitCode: 1}}})
	_, err = s.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.InProgress, s.Document().Status)

	require.NoError(t, s.Finalize(ctx))

	require.Len(t, p.calls, 3)
	for _, c := range p.calls[1:] {
		assert.Equal(t, "update", c.op)
		assert.Equal(t, "1700000000.000100", c.id)
	}
	doc := s.Document()
	assert.Equal(t, status.Failure, doc.Status)
	assert.Equal(t, config.Defaults().Colors.Failure, doc.Color)
	assert.Equal(t, "1700000000.000100", doc.Timestamp)
	assert.Contains(t, doc.Fields, status.Field{Title: "StyLua issues", Value: "2"})
	assert.False(t, s.Running())

	_, err = s.Update(ctx)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, s.Finalize(ctx), ErrStopped)
	assert.ErrorIs(t, s.Start(), ErrStopped)
}

func TestUpdateKeepsNewIdentity(t *testing.T) {
	s, p, _ := newSession(t, config.Defaults())
	ctx := context.Background()
	require.NoError(t, s.Start())
	_, err := s.Post(ctx)
	require.NoError(t, err)

	p.nextID = "1700000000.000200"
	id, err := s.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000200", id)

	_, err = s.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000200", p.calls[2].id)
}

func TestAbortSwallowsSecondaryError(t *testing.T) {
	cfg := config.Defaults()
	cfg.IgnoreFailure = true
	s, p, _ := newSession(t, cfg)
	ctx := context.Background()
	require.NoError(t, s.Start())
	_, err := s.Post(ctx)
	require.NoError(t, err)

	cause := errors.New("channel_not_found")
	p.updateErr = errors.New("connection reset")

	err = s.Abort(ctx, cause)
	assert.Same(t, cause, err)
	require.Len(t, p.calls, 2)
	last := p.calls[1].msg
	assert.Equal(t, cfg.Colors.Failure, last.Color)
	assert.Equal(t, status.Field{Title: "Status", Value: "Failure"}, last.Fields[0])
	assert.False(t, s.Running())
}

func TestFinalizeRejectedShowsFailure(t *testing.T) {
	cfg := config.Defaults()
	s, p, e := newSession(t, cfg)
	ctx := context.Background()
	require.NoError(t, s.Start())
	_, err := s.Post(ctx)
	require.NoError(t, err)

	p.updateErr = errors.New("rate limited")
	err = s.Finalize(ctx)
	assert.EqualError(t, err, "rate limited")

	require.Len(t, p.calls, 3)
	assert.Equal(t, status.Field{Title: "Status", Value: "Success"}, p.calls[1].msg.Fields[0])
	last := p.calls[2]
	assert.Equal(t, "update", last.op)
	assert.Equal(t, status.Field{Title: "Status", Value: "Failure"}, last.msg.Fields[0])
	assert.Equal(t, cfg.Colors.Failure, last.msg.Color)
	assert.Equal(t, status.Failure, e.Status())
	assert.False(t, s.Running())
	assert.ErrorIs(t, s.Finalize(ctx), ErrStopped)
}

func TestAbortBeforePostDoesNotCallEndpoint(t *testing.T) {
	s, p, _ := newSession(t, config.Defaults())
	require.NoError(t, s.Start())

	cause := errors.New("boom")
	assert.Same(t, cause, s.Abort(context.Background(), cause))
	assert.Empty(t, p.calls)
}

func TestPostErrorPropagates(t *testing.T) {
	s, p, _ := newSession(t, config.Defaults())
	p.postErr = errors.New("invalid_auth")
	require.NoError(t, s.Start())

	_, err := s.Post(context.Background())
	assert.EqualError(t, err, "invalid_auth")

	_, err = s.Update(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}
