// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-process fake of the automation REST API.
//
// The fake keeps robot status, models and chat history in memory, records
// every call per route, and can be told to fail or stall individual routes.
// It is used by the api, poll, control and dashboard tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/jeranaias/valetdash/internal/api"
)

// Route names accepted by Fail, Delay and Calls.
const (
	RouteHealth        = "health"
	RouteStatus        = "status"
	RouteInfo          = "info"
	RouteCapabilities  = "capabilities"
	RouteCommand       = "command"
	RouteChat          = "chat"
	RouteModels        = "models"
	RouteSwitchModel   = "switch-model"
	RouteClearHistory  = "clear-history"
	RouteHistory       = "history"
	BasePath           = "/api/v1"
	defaultChatMessage = "OK"
)

var commandMessages = map[string]string{
	"start":  "Cleaning started",
	"stop":   "Cleaning stopped",
	"pause":  "Cleaning paused",
	"home":   "Returning to dock",
	"locate": "Playing locate sound",
}

// Failure describes an injected error response.
type Failure struct {
	StatusCode int
	Detail     any
}

// Server is a fake automation API backed by httptest.
type Server struct {
	srv *httptest.Server

	mu           sync.Mutex
	health       api.HealthResponse
	status       api.RobotStatus
	models       api.ModelInfo
	history      []api.ChatMessage
	info         json.RawMessage
	capabilities json.RawMessage
	chatReply    func(message string) string
	failures     map[string]Failure
	delays       map[string]time.Duration
	calls        map[string]int
	bodies       map[string][]byte
	commands     []string
	requestIDs   []string
}

// NewServer starts a fake with a docked robot at 100% and the "local" model.
// The server is closed when the test ends.
func NewServer(t interface {
	Helper()
	Cleanup(func())
}) *Server {
	t.Helper()
	s := &Server{
		health: api.HealthResponse{
			Status:          "healthy",
			Valetudo:        "connected",
			AI:              "available",
			AvailableModels: []string{"local", "openai"},
		},
		status: api.RobotStatus{State: api.StateDocked, Battery: 100},
		models: api.ModelInfo{Current: "local", Available: []string{"local", "openai"}},
		info:   json.RawMessage(`{"manufacturer":"Dreame","model":"X40"}`),
		capabilities: json.RawMessage(
			`["BasicControlCapability","LocateCapability","ConsumableMonitoringCapability"]`),
		chatReply: func(string) string { return defaultChatMessage },
		failures:  make(map[string]Failure),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		bodies:    make(map[string][]byte),
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root including the version prefix.
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

// Client returns an api.Client pointed at the fake.
func (s *Server) Client() *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{BaseURL: s.URL()})
}

// Close stops the server early, making every later call a connection error.
func (s *Server) Close() {
	s.srv.Close()
}

// =============================================================================
// STATE CONTROL
// =============================================================================

// SetStatus replaces the robot status served by /robot/status.
func (s *Server) SetStatus(status api.RobotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetHealth replaces the /health response.
func (s *Server) SetHealth(health api.HealthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = health
}

// SetModels replaces the current and available models.
func (s *Server) SetModels(current string, available ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = api.ModelInfo{Current: current, Available: append([]string{}, available...)}
}

// SetChatReply makes /chat answer every message with reply.
func (s *Server) SetChatReply(reply string) {
	s.SetChatFunc(func(string) string { return reply })
}

// SetChatFunc makes /chat answer with fn(message).
func (s *Server) SetChatFunc(fn func(message string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatReply = fn
}

// Fail makes route answer with code and a {"detail": detail} body until
// Recover is called.
func (s *Server) Fail(route string, code int, detail any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = Failure{StatusCode: code, Detail: detail}
}

// Recover removes an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Delay stalls route by d before answering.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// =============================================================================
// INSPECTION
// =============================================================================

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastBody returns the raw body of the last request on route.
func (s *Server) LastBody(route string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.bodies[route]...)
}

// Commands returns the robot commands received, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// RequestIDs returns every X-Request-ID header seen, in order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// CurrentModel returns the model the fake is routing chat to.
func (s *Server) CurrentModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models.Current
}

// History returns the fake's conversation.
func (s *Server) History() []api.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ChatMessage(nil), s.history...)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix(BasePath).Subrouter()

	v1.HandleFunc("/health", s.wrap(RouteHealth, s.handleHealth)).Methods(http.MethodGet)
	v1.HandleFunc("/robot/status", s.wrap(RouteStatus, s.handleStatus)).Methods(http.MethodGet)
	v1.HandleFunc("/robot/info", s.wrap(RouteInfo, s.handleInfo)).Methods(http.MethodGet)
	v1.HandleFunc("/robot/capabilities", s.wrap(RouteCapabilities, s.handleCapabilities)).Methods(http.MethodGet)
	v1.HandleFunc("/robot/{command:start|stop|pause|home|locate}", s.wrap(RouteCommand, s.handleCommand)).Methods(http.MethodPost)
	v1.HandleFunc("/chat", s.wrap(RouteChat, s.handleChat)).Methods(http.MethodPost)
	v1.HandleFunc("/ai/models", s.wrap(RouteModels, s.handleModels)).Methods(http.MethodGet)
	v1.HandleFunc("/ai/switch-model", s.wrap(RouteSwitchModel, s.handleSwitchModel)).Methods(http.MethodPost)
	v1.HandleFunc("/ai/clear-history", s.wrap(RouteClearHistory, s.handleClearHistory)).Methods(http.MethodPost)
	v1.HandleFunc("/ai/history", s.wrap(RouteHistory, s.handleHistory)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
	})
	return r
}

// wrap records the call, applies delays and injected failures, then runs h.
func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.calls[route]++
		s.bodies[route] = body
		if id := r.Header.Get("X-Request-ID"); id != "" {
			s.requestIDs = append(s.requestIDs, id)
		}
		delay := s.delays[route]
		failure, failing := s.failures[route]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, failure.StatusCode, map[string]any{"detail": failure.Detail})
			return
		}

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	health := s.health
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := s.info
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	caps := s.capabilities
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, caps)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := mux.Vars(r)["command"]

	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.Ack{Status: "success", Message: commandMessages[command]})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "message"}, "msg": "field required"}},
		})
		return
	}

	s.mu.Lock()
	reply := s.chatReply(req.Message)
	model := s.models.Current
	s.history = append(s.history, api.NewUserMessage(req.Message), api.NewAssistantMessage(reply))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.ChatResponse{Response: reply, ModelUsed: model})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	models := api.ModelInfo{Current: s.models.Current, Available: append([]string{}, s.models.Available...)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) handleSwitchModel(w http.ResponseWriter, r *http.Request) {
	var req api.SwitchModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	known := false
	for _, m := range s.models.Available {
		if m == req.Model {
			known = true
			break
		}
	}
	if !known {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": fmt.Sprintf("Invalid model type: %s", req.Model)})
		return
	}
	s.models.Current = req.Model
	writeJSON(w, http.StatusOK, api.Ack{Status: "success", CurrentModel: req.Model})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Ack{Status: "success", Message: "History cleared"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	history := append([]api.ChatMessage{}, s.history...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, history)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
