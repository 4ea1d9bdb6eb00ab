package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"scheduleall/internal/messaging/inproc"
	"scheduleall/internal/session"
	"scheduleall/internal/slots"
	"scheduleall/internal/snapshot"
)

type app struct {
	session  *session.Service
	bus      *inproc.Bus
	logger   *zap.Logger
	upgrader websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
}

func newApp(svc *session.Service, bus *inproc.Bus, logger *zap.Logger) *app {
	return &app{
		session: svc,
		bus:     bus,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		closing: make(chan struct{}),
	}
}

// closeStreams ends every open event stream. http.Server.Shutdown does not
// touch hijacked connections, so serve registers this as a shutdown hook.
func (a *app) closeStreams() {
	a.closeOnce.Do(func() {
		close(a.closing)
	})
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/slots", a.handleSlots)
	mux.HandleFunc("/slots/", a.handleSlotByIndex)
	mux.HandleFunc("/agents", a.handleAgents)
	mux.HandleFunc("/ledger", a.handleLedger)
	mux.HandleFunc("/snapshots/capture", a.handleCapture)
	mux.HandleFunc("/snapshots/restore", a.handleRestore)
	mux.HandleFunc("/uninstall", a.handleUninstall)
	mux.HandleFunc("/save", a.handleSave)
	mux.HandleFunc("/decisions", a.handleDecisions)
	mux.HandleFunc("/events", a.handleEvents)
	return mux
}

func (a *app) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": a.session.Status(),
		"time":    time.Now().UTC(),
	})
}

func (a *app) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, a.session.Slots())
}

type slotUpdate struct {
	TargetWork *string `json:"target_work"`
	Label      *string `json:"label"`
	Color      *string `json:"color"`
}

func (a *app) handleSlotByIndex(w http.ResponseWriter, r *http.Request) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/slots/"), "/")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("slot index must be an integer"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		for _, s := range a.session.Slots() {
			if s.Index == idx {
				writeJSON(w, http.StatusOK, s)
				return
			}
		}
		writeError(w, http.StatusNotFound, slots.ErrSlotOutOfRange)
	case http.MethodPut:
		var in slotUpdate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := a.session.UpdateSlot(idx, session.SlotUpdate{
			TargetWork: in.TargetWork,
			Label:      in.Label,
			Color:      in.Color,
		})
		if err != nil {
			writeSlotError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func writeSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slots.ErrSlotOutOfRange):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, slots.ErrNoSettings):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func (a *app) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, a.session.Agents())
}

func (a *app) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, a.session.Ledger())
}

func (a *app) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	n, err := a.session.CaptureAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": n})
}

func (a *app) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	n, err := a.session.RestoreAll(r.Context())
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": n})
}

func (a *app) handleUninstall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, a.session.Uninstall())
}

func (a *app) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if err := a.session.Save(""); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

func (a *app) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	items, err := a.session.Decisions(r.Context(), queryInt(r, "limit", 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleEvents streams engine events to a websocket client until it goes
// away. Slow clients miss events rather than stall the engine.
func (a *app) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	name := "ws-" + uuid.NewString()
	events := a.bus.Register(name)
	defer a.bus.Unregister(name)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-a.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			b, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				a.logger.Debug("event stream closed", zap.String("subscriber", name), zap.Error(err))
				return
			}
		}
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
