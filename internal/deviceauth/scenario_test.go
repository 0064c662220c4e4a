// ABOUTME: End-to-end device-flow scenario over a real HTTP edge
// ABOUTME: Wires Client, Flow, and session.Manager against an httptest authorization server

package deviceauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxvoid/launcher/internal/session"
	"github.com/foxvoid/launcher/internal/store"
)

// scriptedAuthServer serves the device-flow contract, approving the
// issued code after a fixed number of polls.
type scriptedAuthServer struct {
	mu          sync.Mutex
	pollsBefore int // polls answered "pending" before approval
	polls       int
	issuedCode  string
}

func (s *scriptedAuthServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/device/init/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.issuedCode = "scenario-code"
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"device_code":      "scenario-code",
			"verification_url": "https://auth.example/verify?code=scenario-code",
		})
	})

	mux.HandleFunc("/auth/device/poll/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		s.mu.Lock()
		defer s.mu.Unlock()
		assert.Equal(t, s.issuedCode, body["device_code"])
		s.polls++

		w.Header().Set("Content-Type", "application/json")
		if s.polls <= s.pollsBefore {
			json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "approved",
			"token":      "scenario-token",
			"username":   "renard",
			"avatar_url": "",
		})
	})

	return mux
}

func TestScenario_LoginRoundTrip(t *testing.T) {
	auth := &scriptedAuthServer{pollsBefore: 2}
	server := httptest.NewServer(auth.handler(t))
	defer server.Close()

	mock := store.NewMockStore()
	sessions := session.NewManager(mock)

	flow := NewFlow(NewClient(server.URL), sessions, nil, 5*time.Millisecond)

	res, err := flow.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example/verify?code=scenario-code", res.VerificationURL)

	select {
	case <-flow.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("flow did not finish")
	}

	require.Equal(t, StateApproved, flow.State())
	assert.True(t, sessions.IsAuthenticated())

	current := sessions.Current()
	assert.Equal(t, "scenario-token", current.Token)
	require.NotNil(t, current.Profile)
	assert.Equal(t, "renard", current.Profile.Username)
	assert.NotEmpty(t, current.Profile.Avatar, "placeholder avatar should be generated")

	// The session survives a simulated restart
	restarted := session.NewManager(mock)
	restored, err := restarted.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scenario-token", restored.Token)
}
