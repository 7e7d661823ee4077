package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_DecodeKnownFields(t *testing.T) {
	raw := `{"id":"7d0c","name":"Ana","email":"ana@example.com","created_at":"2024-05-01T10:00:00Z"}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	require.Equal(t, "7d0c", u.ID)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, "ana@example.com", u.Email)
	require.Equal(t, 2024, u.CreatedAt.Year())
	require.Nil(t, u.Extra)
}

func TestUser_DecodeNumericIDAndExtra(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"Ana","role":"admin","tags":["a"]}`), &u))

	assert.Equal(t, "7", u.ID)
	assert.Equal(t, "Ana", u.Name)
	require.Len(t, u.Extra, 2)
	assert.JSONEq(t, `"admin"`, string(u.Extra["role"]))
	assert.JSONEq(t, `["a"]`, string(u.Extra["tags"]))
}

func TestUser_DecodeID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "string", raw: `{"id":"abc"}`, want: "abc"},
		{name: "integer", raw: `{"id":42}`, want: "42"},
		{name: "large integer", raw: `{"id":9007199254740993}`, want: "9007199254740993"},
		{name: "absent", raw: `{"name":"x"}`, want: ""},
		{name: "null", raw: `{"id":null}`, want: ""},
		{name: "object", raw: `{"id":{"v":1}}`, wantErr: true},
		{name: "bool", raw: `{"id":true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			err := json.Unmarshal([]byte(tt.raw), &u)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.ID)
		})
	}
}

func TestUser_EncodeKeepsExtra(t *testing.T) {
	u := User{ID: "7", Name: "Ana", Email: "a@x.io", Extra: map[string]json.RawMessage{"role": json.RawMessage(`"admin"`)}}

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","name":"Ana","email":"a@x.io","role":"admin"}`, string(b))

	var back User
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, u, back)
}

func TestUserInput_OmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(UserInput{Name: "Bo"})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Bo"}`, string(b))
}
