package auth

import (
	"encoding/json"
	"fmt"
)

// Session is the persisted credential state of a signed-in user.
type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IDToken string `json:"id_token"`
}

// SessionStore persists the active session across process restarts.
// Load returns (nil, nil) when no session is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(s Session) error
	Clear() error
}

const sessionKey = "session"

// KeyringSessionStore stores the session as JSON in the system keyring.
type KeyringSessionStore struct{}

// Load reads the stored session, if any. A missing keyring entry is
// reported as no session rather than an error.
func (KeyringSessionStore) Load() (*Session, error) {
	raw, err := keyringGet(sessionKey)
	if err != nil {
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decoding stored session: %w", err)
	}
	return &s, nil
}

// Save writes the session to the keyring.
func (KeyringSessionStore) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return keyringSet(sessionKey, string(data))
}

// Clear removes the stored session.
func (KeyringSessionStore) Clear() error {
	return keyringDelete(sessionKey)
}
