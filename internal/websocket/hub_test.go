package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func signedToken(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": role}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func newServer(hub *Hub) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	return httptest.NewServer(r)
}

func TestServeWs_RejectsMissingAndCustomerTokens(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?token=" + signedToken(t, "customer"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPublish_DeliversEventToClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + signedToken(t, "admin")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration is asynchronous; publish until the client receives something
	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-received:
			var ev Event
			require.NoError(t, json.Unmarshal([]byte(strings.SplitN(string(msg), "\n", 2)[0]), &ev))
			assert.Equal(t, "catalog_pricing.progress", ev.Event)
			return
		case <-ticker.C:
			hub.Publish("catalog_pricing.progress", map[string]int{"written": 1, "total": 2})
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}
