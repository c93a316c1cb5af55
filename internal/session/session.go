// Package session handles connect/disconnect bookkeeping around the
// dispatcher's active lifetime: token validation, the connected flag, the
// device snapshot, and forced disconnects when the token is revoked
// remotely.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamidrprogrammer/print-agent/internal/event"
	"github.com/hamidrprogrammer/print-agent/internal/store"
)

// ErrInvalidToken is returned when the configured token does not match the
// device's user record.
var ErrInvalidToken = errors.New("connection token rejected by store")

// disconnectTimeout bounds the connected=false write on shutdown.
const disconnectTimeout = 5 * time.Second

// Dispatcher is the part of the job pipeline the session starts and stops.
type Dispatcher interface {
	Run(ctx context.Context) error
}

// Config holds session configuration
type Config struct {
	Logger     *slog.Logger
	Store      store.Store
	Events     *event.Queue
	Dispatcher Dispatcher
	UserID     string
	Token      string
	Printers   []string
	AppVersion string
}

// Session owns the connection state. It is created disconnected; Connect
// validates the token, publishes the device snapshot and starts the
// dispatcher plus a watch on the device's own record.
type Session struct {
	logger     *slog.Logger
	store      store.Store
	events     *event.Queue
	dispatcher Dispatcher
	userID     string
	token      string
	printers   []string
	appVersion string
	instanceID string

	mu        sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a disconnected Session.
func New(cfg *Config) *Session {
	return &Session{
		logger:     cfg.Logger,
		store:      cfg.Store,
		events:     cfg.Events,
		dispatcher: cfg.Dispatcher,
		userID:     cfg.UserID,
		token:      cfg.Token,
		printers:   cfg.Printers,
		appVersion: cfg.AppVersion,
		instanceID: uuid.NewString(),
	}
}

// Connect validates the token against the store, marks the device
// connected, publishes the device snapshot and starts the listeners.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	userPath := store.UserPath(s.userID)
	fields, err := s.store.ReadFields(ctx, userPath)
	if err != nil {
		return fmt.Errorf("failed to validate session: %w", err)
	}
	if fields["token"] != s.token {
		return fmt.Errorf("%w: user %s", ErrInvalidToken, s.userID)
	}

	snapshot := map[string]string{
		"connected":   "true",
		"printers":    strings.Join(s.printers, ","),
		"system_info": s.systemInfo(),
	}
	if err := s.store.WriteFields(ctx, userPath, snapshot); err != nil {
		return fmt.Errorf("failed to publish device snapshot: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.connected = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.dispatcher.Run(runCtx); err != nil {
			s.logger.Error("Dispatcher stopped with error",
				slog.String("error", err.Error()),
			)
			s.events.Publish(event.Log("job feed lost: " + err.Error()))
		}
	}()

	s.wg.Add(1)
	go s.watchUser(runCtx, userPath)

	s.logger.Info("Session connected",
		slog.String("user_id", s.userID),
		slog.String("instance_id", s.instanceID),
		slog.Int("printers", len(s.printers)),
	)
	s.events.Publish(event.Log("connected"))

	return nil
}

// watchUser subscribes to the device's own record and forces a disconnect
// when the token stored there no longer matches, so a remote revocation
// takes effect without a restart.
func (s *Session) watchUser(ctx context.Context, userPath string) {
	defer s.wg.Done()

	changes, err := s.store.Subscribe(ctx, userPath)
	if err != nil {
		s.logger.Error("Failed to watch user record",
			slog.String("error", err.Error()),
		)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			fields, err := s.store.ReadFields(ctx, userPath)
			if err != nil {
				s.logger.Warn("Failed to re-read user record",
					slog.String("error", err.Error()),
				)
				continue
			}
			if fields["token"] != s.token {
				s.logger.Warn("Session token revoked, disconnecting",
					slog.String("user_id", s.userID),
				)
				s.events.Publish(event.Log("session revoked by server, disconnected"))
				go s.Disconnect()
				return
			}
		}
	}
}

// Disconnect stops the listeners, waits for in-flight work to drain and
// clears the connected flag. It is safe to call more than once and on an
// already-disconnected session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	ctx, cancelWrite := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancelWrite()

	if err := s.store.WriteFields(ctx, store.UserPath(s.userID), map[string]string{
		"connected": "false",
	}); err != nil {
		s.logger.Warn("Failed to clear connected flag",
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Session disconnected",
		slog.String("user_id", s.userID),
	)
}

// Connected reports whether the session is currently connected.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) systemInfo() string {
	hostname, _ := os.Hostname()
	info := map[string]string{
		"hostname":    hostname,
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
		"version":     s.appVersion,
		"instance_id": s.instanceID,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return "{}"
	}
	return string(data)
}
