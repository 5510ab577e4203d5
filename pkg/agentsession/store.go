package agentsession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/localstore"
)

const (
	StorageKey = "membrane-agent-sessions"

	// storeVersion is the current persisted layout:
	// {"version":2,"sessions":[...]}.
	storeVersion = 2
)

type envelope struct {
	Version  int             `json:"version"`
	Sessions []StoredSession `json:"sessions"`
}

// legacySession is the version 0 layout: a single build session stored as
// a bare object.
type legacySession struct {
	SessionID string `json:"sessionId"`
	AppName   string `json:"appName"`
}

// SessionStore is the persisted list of running sessions. Read-modify-write
// cycles are serialized within the process.
type SessionStore struct {
	mu      sync.Mutex
	storage localstore.Storage
	log     logger.ILogger
}

func NewSessionStore(storage localstore.Storage, log logger.ILogger) *SessionStore {
	return &SessionStore{storage: storage, log: log}
}

func (s *SessionStore) List(ctx context.Context) ([]StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add appends a session. A session with the same id is replaced.
func (s *SessionStore) Add(ctx context.Context, session StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load(ctx)
	if err != nil {
		return err
	}
	sessions = without(sessions, session.SessionID)
	sessions = append(sessions, session)
	return s.save(ctx, sessions)
}

func (s *SessionStore) Remove(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, without(sessions, sessionID))
}

func without(sessions []StoredSession, sessionID string) []StoredSession {
	out := sessions[:0]
	for _, session := range sessions {
		if session.SessionID != sessionID {
			out = append(out, session)
		}
	}
	return out
}

func (s *SessionStore) save(ctx context.Context, sessions []StoredSession) error {
	if sessions == nil {
		sessions = []StoredSession{}
	}
	data, err := json.Marshal(envelope{Version: storeVersion, Sessions: sessions})
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, StorageKey, string(data))
}

// load reads the persisted list, upgrading older layouts and writing the
// upgrade back. Unreadable content yields an empty list.
func (s *SessionStore) load(ctx context.Context) ([]StoredSession, error) {
	raw, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return []StoredSession{}, nil
	}
	if err != nil {
		return nil, err
	}

	sessions, version, ok := decode([]byte(raw))
	if !ok {
		s.log.Warn("AGENT_SESSION_STORE", "Discarding unreadable session list", map[string]interface{}{
			"key": StorageKey,
		})
		return []StoredSession{}, nil
	}

	if version < storeVersion {
		s.log.Info("AGENT_SESSION_STORE", "Migrated session list", map[string]interface{}{
			"from_version": version,
			"to_version":   storeVersion,
			"sessions":     len(sessions),
		})
		if err := s.save(ctx, sessions); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func decode(data []byte) ([]StoredSession, int, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []StoredSession{}, storeVersion, true
	}

	if data[0] == '[' {
		var sessions []StoredSession
		if err := json.Unmarshal(data, &sessions); err != nil {
			return nil, 0, false
		}
		return validSessions(sessions), 1, true
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, 0, false
	}

	if _, ok := top["version"]; ok {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, 0, false
		}
		return validSessions(env.Sessions), env.Version, true
	}

	var legacy legacySession
	if err := json.Unmarshal(data, &legacy); err != nil || legacy.SessionID == "" {
		return nil, 0, false
	}
	return []StoredSession{{
		Type:      TypeBuildIntegration,
		SessionID: legacy.SessionID,
		AppName:   legacy.AppName,
	}}, 0, true
}

// validSessions drops records without an id or with an unknown type and
// keeps the first record of any repeated id.
func validSessions(sessions []StoredSession) []StoredSession {
	seen := make(map[string]bool, len(sessions))
	out := make([]StoredSession, 0, len(sessions))
	for _, session := range sessions {
		if session.SessionID == "" || seen[session.SessionID] {
			continue
		}
		if session.Type != TypeBuildIntegration && session.Type != TypeAddAction {
			continue
		}
		seen[session.SessionID] = true
		out = append(out, session)
	}
	return out
}
