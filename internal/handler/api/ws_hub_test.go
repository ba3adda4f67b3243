package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	xlogger "github.com/xllucky21/xllucky/pkg/logger"
)

func TestScoreHubStreamsFilteredEvents(t *testing.T) {
	hub := NewScoreHub(xlogger.Nop())
	e := echo.New()
	e.GET("/ws/scores", hub.Serve)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scores?job=bond"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(models.ScoreEvent{Job: "lof", Subject: "161725", Score: 3})
	hub.Broadcast(models.ScoreEvent{Job: "bond", Subject: "CN10Y", Score: 62})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.ScoreEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "bond", got.Job)
	assert.Equal(t, "CN10Y", got.Subject)
	assert.Equal(t, 62.0, got.Score)
}

func TestScoreHubForgetsClosedClients(t *testing.T) {
	hub := NewScoreHub(nil)
	e := echo.New()
	e.GET("/ws/scores", hub.Serve)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scores"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	// no subscribers left: must not block or panic
	hub.Broadcast(models.ScoreEvent{Job: "bond", Subject: "CN10Y"})
	hub.Close()
	hub.Close()
}
