// ABOUTME: Development authorization server implementing the device-flow wire contract
// ABOUTME: Mints device codes, serves a browser approval page, and issues signed tokens

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type codeStatus string

const (
	statusPending  codeStatus = "pending"
	statusApproved codeStatus = "approved"
	statusExpired  codeStatus = "expired"
)

// deviceCode is one pending login attempt.
type deviceCode struct {
	Code      string
	Status    codeStatus
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// server holds the in-memory device-code table. Codes live for the
// configured TTL and are swept periodically.
type server struct {
	mu       sync.Mutex
	codes    map[string]*deviceCode
	baseURL  string
	username string
	avatar   string
	ttl      time.Duration
	secret   []byte
	logger   *slog.Logger
}

func main() {
	addr := flag.String("addr", "localhost:8000", "listen address")
	username := flag.String("username", "dev", "username reported on approval")
	avatar := flag.String("avatar", "", "avatar URL reported on approval (empty for none)")
	ttl := flag.Duration("ttl", 5*time.Minute, "device code lifetime")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "fake-authserver")
	slog.SetDefault(logger)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Error("generating signing secret", "error", err)
		os.Exit(1)
	}

	s := &server{
		codes:    make(map[string]*deviceCode),
		baseURL:  "http://" + *addr,
		username: *username,
		avatar:   *avatar,
		ttl:      *ttl,
		secret:   secret,
		logger:   logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go s.sweepExpired(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/device/init/", s.handleInit)
	mux.HandleFunc("POST /auth/device/poll/", s.handlePoll)
	mux.HandleFunc("GET /approve", s.handleApprovePage)
	mux.HandleFunc("POST /approve", s.handleApprove)

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("fake authorization server listening", "addr", *addr, "username", *username)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func (s *server) handleInit(w http.ResponseWriter, r *http.Request) {
	code := uuid.New().String()
	now := time.Now()

	s.mu.Lock()
	s.codes[code] = &deviceCode{
		Code:      code,
		Status:    statusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.Info("issued device code", "code", code)

	writeJSON(w, map[string]string{
		"device_code":      code,
		"verification_url": fmt.Sprintf("%s/approve?code=%s", s.baseURL, code),
	})
}

func (s *server) handlePoll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceCode string `json:"device_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dc, ok := s.codes[body.DeviceCode]
	if !ok {
		// Unknown or swept codes read as expired: the client must restart
		writeJSON(w, map[string]string{"status": string(statusExpired)})
		return
	}

	if dc.Status == statusPending && time.Now().After(dc.ExpiresAt) {
		dc.Status = statusExpired
		s.logger.Info("device code expired", "code", dc.Code)
	}

	switch dc.Status {
	case statusApproved:
		writeJSON(w, map[string]string{
			"status":     string(statusApproved),
			"token":      dc.Token,
			"username":   s.username,
			"avatar_url": s.avatar,
		})
	default:
		writeJSON(w, map[string]string{"status": string(dc.Status)})
	}
}

func (s *server) handleApprovePage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	s.mu.Lock()
	_, ok := s.codes[code]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "<h1>Unknown device code</h1>")
		return
	}

	fmt.Fprintf(w, `<h1>Authorize this device?</h1>
<p>A launcher is asking to log in as <b>%s</b>.</p>
<form method="post" action="/approve">
  <input type="hidden" name="code" value="%s">
  <button type="submit">Approve</button>
</form>`, html.EscapeString(s.username), html.EscapeString(code))
}

func (s *server) handleApprove(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")

	s.mu.Lock()
	defer s.mu.Unlock()

	dc, ok := s.codes[code]
	if !ok || dc.Status != statusPending || time.Now().After(dc.ExpiresAt) {
		http.Error(w, "code is no longer pending", http.StatusGone)
		return
	}

	token, err := s.issueToken()
	if err != nil {
		s.logger.Error("issuing token", "error", err)
		http.Error(w, "token issuance failed", http.StatusInternalServerError)
		return
	}

	dc.Status = statusApproved
	dc.Token = token
	s.logger.Info("approved device code", "code", code, "username", s.username)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<h1>Approved!</h1><p>You can return to the launcher.</p>")
}

// issueToken signs a short bearer token for the configured user. The
// launcher treats it as opaque; signing it keeps the fake server
// honest about the real contract.
func (s *server) issueToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": s.username,
		"iat": now.Unix(),
		"exp": now.Add(30 * 24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// sweepExpired drops long-expired codes so the table doesn't grow
// without bound during a dev session.
func (s *server) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for code, dc := range s.codes {
				if dc.ExpiresAt.Before(cutoff) {
					delete(s.codes, code)
				}
			}
			s.mu.Unlock()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
