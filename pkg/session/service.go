package session

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/storage"
)

// Namespace is the storage namespace sessions are kept in.
const Namespace = "sessions"

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session not found")

// Service provides session persistence on top of a storage backend.
type Service struct {
	store storage.Backend
}

// NewService creates a session service backed by the given store.
func NewService(store storage.Backend) *Service {
	return &Service{store: store}
}

// Start creates and persists a new empty session for the named agent.
func (s *Service) Start(ctx context.Context, agentName string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        GenerateID(),
		AgentName: agentName,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	logger.G(ctx).WithField("session", sess.ID).Debug("started session")
	return sess, nil
}

// Append adds messages to an existing session and persists the result.
func (s *Service) Append(ctx context.Context, id string, messages ...Message) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Messages = append(sess.Messages, messages...)
	sess.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.store.Retrieve(ctx, id, Namespace)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "session %s", id)
		}
		return nil, errors.Wrapf(err, "failed to load session %s", id)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errors.Wrapf(err, "failed to decode session %s", id)
	}
	return &sess, nil
}

// List returns all sessions, most recently updated first.
func (s *Service) List(ctx context.Context) ([]*Session, error) {
	ids, err := s.store.ListKeys(ctx, Namespace)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			// Skip records that no longer load instead of failing the
			// whole listing.
			logger.G(ctx).WithError(err).WithField("session", id).Warn("skipping unreadable session")
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete removes a session. Deleting an unknown ID returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, Namespace); err != nil {
		return errors.Wrapf(err, "failed to delete session %s", id)
	}

	logger.G(ctx).WithField("session", id).Debug("deleted session")
	return nil
}

// Export renders a session as indented JSON suitable for archiving.
func (s *Service) Export(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode session %s", id)
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	if err := s.store.Store(ctx, sess.ID, sess, Namespace); err != nil {
		return errors.Wrapf(err, "failed to save session %s", sess.ID)
	}
	return nil
}
