package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"coldchain_logger/internal/models"
	"coldchain_logger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) EnsureOperator(ctx context.Context, username, password string) (bool, error) {
	return false, nil
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockController struct {
	mu        sync.Mutex
	callRet   int
	callErr   error
	ackResult bool
	telemetry service.Telemetry

	lastName    string
	lastArg     string
	lastPayload string
	acks        int
}

func (m *mockController) Call(name, arg string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastName, m.lastArg = name, arg
	return m.callRet, m.callErr
}
func (m *mockController) Acknowledge(payload string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPayload = payload
	m.acks++
	return m.ackResult
}
func (m *mockController) Telemetry() service.Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.telemetry
}

type mockEventLog struct {
	resp     []models.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastName string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastName = f.Name
	return m.resp, m.err
}

type mockLink struct{ up bool }

func (m *mockLink) Connected() bool      { return m.up }
func (m *mockLink) SetConnected(up bool) { m.up = up }

// mockStream answers every subscriber with a single envelope and closes.
type mockStream struct{ greeting string }

func (m *mockStream) Serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	_ = conn.WriteJSON(wsEnvelope{Type: "event", Data: m.greeting})
}

// ---- Shared Test Helpers ----

const testDeviceID = "coldchain-test"

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, testDeviceID, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
