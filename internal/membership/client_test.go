package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, writeEnabled bool) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		MembershipBaseURL:      server.URL,
		MembershipAPIToken:     "test-token",
		MembershipWriteEnabled: writeEnabled,
	}
	return NewClient(cfg, nil), server
}

func TestLookupMember(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/members/M123", r.URL.Path)
		json.NewEncoder(w).Encode(Member{
			ID:          "M123",
			Name:        "Aoife Byrne",
			Email:       "aoife@example.ie",
			Status:      "active",
			Credentials: []string{"first-aid", "garda-vetted"},
		})
	}, false)

	member, err := client.LookupMember(context.Background(), "M123")
	require.NoError(t, err)
	assert.Equal(t, "Aoife Byrne", member.Name)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestLookupMemberNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, false)

	_, err := client.LookupMember(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestLookupMemberServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "register on fire", http.StatusInternalServerError)
	}, false)

	_, err := client.LookupMember(context.Background(), "M123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestValidateCredential(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Member{
			ID:          "M123",
			Credentials: []string{"first-aid"},
		})
	}, false)

	ok, err := client.ValidateCredential(context.Background(), "M123", "first-aid")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ValidateCredential(context.Background(), "M123", "garda-vetted")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritesDisabledNeverReachRegister(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, false)

	_, err := client.CreateProfile(context.Background(), &Profile{Name: "Aoife"})
	assert.ErrorIs(t, err, ErrWriteDisabled)

	_, err = client.SyncProfile(context.Background(), "M123", &Profile{Name: "Aoife"})
	assert.ErrorIs(t, err, ErrWriteDisabled)

	assert.False(t, called, "write call must not reach the register")
}

func TestSyncProfileWhenEnabled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/members/M123", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var profile Profile
		require.NoError(t, json.NewDecoder(r.Body).Decode(&profile))
		assert.Equal(t, "Aoife Byrne", profile.Name)

		json.NewEncoder(w).Encode(Member{ID: "M123", Name: profile.Name})
	}, true)

	member, err := client.SyncProfile(context.Background(), "M123", &Profile{
		Name:  "Aoife Byrne",
		Email: "aoife@example.ie",
	})
	require.NoError(t, err)
	assert.Equal(t, "M123", member.ID)
}

func TestCreateProfileWhenEnabled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/members", r.URL.Path)
		json.NewEncoder(w).Encode(Member{ID: "M999", Status: "pending"})
	}, true)

	member, err := client.CreateProfile(context.Background(), &Profile{Name: "New Volunteer"})
	require.NoError(t, err)
	assert.Equal(t, "M999", member.ID)
	assert.Equal(t, "pending", member.Status)
}
