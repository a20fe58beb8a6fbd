// Package report owns the single outward message of a run: it is posted once,
// updated in place as results arrive and finalized exactly once.
package report

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
	"github.com/fakeyudi/luaqa/internal/status"
)

var (
	ErrAlreadyRunning = errors.New("report session is already running")
	ErrNotRunning     = errors.New("report session is not running")
	ErrAlreadyPosted  = errors.New("report message has already been posted")
	ErrStopped        = errors.New("report session is stopped")
)

// Message is what gets sent to the endpoint on every post or update.
type Message struct {
	Text   string
	Fields []status.Field
	Color  string
}

// Poster is the chat endpoint. Post creates a message and returns its
// identity; Update mutates the message with that identity in place.
type Poster interface {
	Post(ctx context.Context, m Message) (string, error)
	Update(ctx context.Context, id string, m Message) (string, error)
}

// Document is the last rendered state of the message.
type Document struct {
	Text      string         `json:"text"`
	Fields    []status.Field `json:"fields"`
	Status    status.Status  `json:"status"`
	Color     string         `json:"color"`
	Timestamp string         `json:"timestamp"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Session serializes every post and update of one run's message.
type Session struct {
	mu      sync.Mutex
	poster  Poster
	engine  *status.Engine
	log     logrus.FieldLogger
	running bool
	stopped bool
	doc     Document
}

// NewSession returns an idle session rendering engine through poster.
func NewSession(poster Poster, engine *status.Engine, log logrus.FieldLogger) *Session {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Session{poster: poster, engine: engine, log: log}
}

// Start marks the session running.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return lqerrors.WithStackTrace(ErrStopped)
	case s.running:
		return lqerrors.WithStackTrace(ErrAlreadyRunning)
	}
	s.running = true
	return nil
}

// Post creates the message. It may succeed at most once per session.
func (s *Session) Post(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return "", err
	}
	if s.doc.Timestamp != "" {
		return "", lqerrors.WithStackTrace(ErrAlreadyPosted)
	}

	m := s.render()
	s.log.Debug("Posting message...")
	id, err := s.poster.Post(ctx, m)
	if err != nil {
		return "", err
	}
	s.store(m, id)
	s.log.Debugf("Timestamp: %s", id)
	s.log.Info("Posted message")
	return id, nil
}

// Update re-renders the engine state into the posted message.
func (s *Session) Update(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return "", err
	}
	return s.update(ctx)
}

// Finalize ends the in-progress phase, pushes one last update and stops the
// session. A rejected update is followed by one best-effort update showing
// the run as failed, as in Abort.
func (s *Session) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	s.engine.Finalize()
	if _, err := s.update(ctx); err != nil {
		s.abort(ctx)
		return err
	}
	s.stop()
	return nil
}

// Abort stops the session after cause, making one best-effort update that
// shows the run as failed. Errors from that update are logged and dropped;
// cause is returned unchanged.
func (s *Session) Abort(ctx context.Context, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return cause
	}
	s.abort(ctx)
	return cause
}

func (s *Session) abort(ctx context.Context) {
	s.engine.Abort()
	if s.running && s.doc.Timestamp != "" {
		if _, err := s.update(ctx); err != nil {
			s.log.Debugf("Failed to update message after error: %v", err)
		}
	}
	s.stop()
}

// Document returns the last rendered state.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.doc
	doc.Fields = append([]status.Field(nil), s.doc.Fields...)
	return doc
}

// Running reports whether the session accepts operations.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.stopped
}

func (s *Session) check() error {
	if s.stopped {
		return lqerrors.WithStackTrace(ErrStopped)
	}
	if !s.running {
		return lqerrors.WithStackTrace(ErrNotRunning)
	}
	return nil
}

func (s *Session) update(ctx context.Context) (string, error) {
	if s.doc.Timestamp == "" {
		return "", lqerrors.WithStackTrace(ErrNotRunning)
	}
	m := s.render()
	s.log.Debug("Updating message...")
	id, err := s.poster.Update(ctx, s.doc.Timestamp, m)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = s.doc.Timestamp
	}
	s.store(m, id)
	s.log.Info("Updated message")
	return id, nil
}

func (s *Session) render() Message {
	return Message{
		Text:   s.engine.Text(),
		Fields: s.engine.Fields(),
		Color:  s.engine.Color(),
	}
}

func (s *Session) store(m Message, id string) {
	s.doc = Document{
		Text:      m.Text,
		Fields:    m.Fields,
		Status:    s.engine.Status(),
		Color:     m.Color,
		Timestamp: id,
		UpdatedAt: time.Now().UTC(),
	}
}

func (s *Session) stop() {
	s.running = false
	s.stopped = true
}
