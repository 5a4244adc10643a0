package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Toite-app/api-sub001/api/middleware"
	pkgauth "github.com/Toite-app/api-sub001/pkg/auth"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/enums"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/socket"
)

func gatewayTestServer(t *testing.T) (*httptest.Server, *socket.Hub, config.JWTConfig) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hub := socket.NewHub(logg)
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "toite", ExpirationMinutes: 60}

	handler := middleware.Auth(jwtCfg, logg)(Socket(hub, config.SocketConfig{}, logg))
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, hub, jwtCfg
}

func dialGateway(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial gateway: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSocketRejectsAnonymousUpgrade(t *testing.T) {
	server, _, _ := gatewayTestServer(t)

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
}

func TestSocketSubscribeConfirmsOverWire(t *testing.T) {
	server, hub, jwtCfg := gatewayTestServer(t)

	workerID := uuid.New()
	token, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		WorkerID: workerID,
		Role:     enums.WorkerRoleWaiter,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	conn := dialGateway(t, server, token)

	orderID := uuid.NewString()
	subscribe := `{"event":"subscribe","data":{"type":"ORDER","targetId":"` + orderID + `"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(subscribe)); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read confirmation: %v", err)
	}
	var frame socket.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Event != "subscription:update" {
		t.Fatalf("unexpected frame event %q", frame.Event)
	}

	// Registration is asynchronous from the dialer's point of view; the
	// confirmation above means the hub already holds the subscription.
	recipients := hub.ResolveRecipients(enums.SubscriptionTypeOrder, orderID)
	if len(recipients) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(recipients))
	}
	if recipients[0].WorkerID != workerID {
		t.Fatalf("unexpected recipient worker %s", recipients[0].WorkerID)
	}
}
