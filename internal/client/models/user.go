// Package models defines the client-side view of the remote user records.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// User is the client's cached copy of a server-side user. The server owns
// the record: attributes without a field here are kept in Extra, and ids
// sent as JSON numbers are held in their decimal text form.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Extra holds the remaining attributes keyed by their JSON name. It is
	// nil when the server sent none.
	Extra map[string]json.RawMessage
}

var knownFields = []string{"id", "name", "email", "created_at", "updated_at"}

type userFields struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var f userFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	id, err := decodeID(f.ID)
	if err != nil {
		return err
	}

	var extra map[string]json.RawMessage
	if err := json.Unmarshal(b, &extra); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(extra, k)
	}
	if len(extra) == 0 {
		extra = nil
	}

	*u = User{
		ID:        id,
		Name:      f.Name,
		Email:     f.Email,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		Extra:     extra,
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(knownFields))
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["name"] = u.Name
	out["email"] = u.Email
	if !u.CreatedAt.IsZero() {
		out["created_at"] = u.CreatedAt
	}
	if !u.UpdatedAt.IsZero() {
		out["updated_at"] = u.UpdatedAt
	}
	return json.Marshal(out)
}

// decodeID accepts a JSON string or number; absent and null ids are "".
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode id: unsupported value %s", raw)
	}
	return n.String(), nil
}

// UserInput is the body of create and update requests. Empty fields are
// omitted, which the server treats as "leave unchanged" on update.
type UserInput struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
