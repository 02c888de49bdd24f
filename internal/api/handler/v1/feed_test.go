package v1

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerneif/lotto-api/internal/domain"
)

func TestFeedHub_Publish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewFeedHub(nil)
	go hub.Run(ctx)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/feed", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/feed", nil)
	require.NoError(t, err)
	defer conn.Close()

	event := domain.GameEvent{
		Type: domain.EventGameActivated,
		Game: domain.Game{ID: uuid.New(), WeekNumber: 7, Year: 2026},
		At:   time.Now().UTC(),
	}

	// The client registers asynchronously after the upgrade; keep publishing
	// until the first event arrives.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				hub.Publish(event)
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.GameEvent
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, domain.EventGameActivated, got.Type)
	assert.Equal(t, event.Game.ID, got.Game.ID)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://lotto.example.dk"})

	req := httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Origin", "https://lotto.example.dk")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
