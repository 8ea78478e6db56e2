package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenStub map[string]string

func (t tokenStub) ValidateJWT(token string) (string, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type recordingSource struct {
	mu      sync.Mutex
	viewers []*geo.Coordinates
}

func (s *recordingSource) LoadPosts(ctx context.Context) ([]*models.Post, error) {
	return []*models.Post{}, nil
}

func (s *recordingSource) Render(posts []*models.Post, viewer *geo.Coordinates) []services.FeedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers = append(s.viewers, viewer)
	return []services.FeedItem{}
}

func (s *recordingSource) last() *geo.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewers[len(s.viewers)-1]
}

func dialFeed(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) services.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg services.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketHandler_LiveFeed(t *testing.T) {
	source := &recordingSource{}
	hub := services.NewFeedHub(source)
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, tokenStub{"good": "u1"}).HandleWebSocket))
	defer srv.Close()

	conn, _, err := dialFeed(t, srv, "token=good&lat=34&lng=-118")
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, services.MsgTypeFeed, msg.Type)
	require.NotNil(t, source.last())
	assert.InDelta(t, 34.0, source.last().Lat, 1e-9)

	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: services.MsgTypeUnknown}))
	msg = readMessage(t, conn)
	assert.Equal(t, services.MsgTypeFeed, msg.Type)
	assert.Nil(t, source.last())

	lat, lng := 40.7, -74.0
	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: services.MsgTypeLocation, Lat: &lat, Lng: &lng}))
	msg = readMessage(t, conn)
	assert.Equal(t, services.MsgTypeFeed, msg.Type)
	require.NotNil(t, source.last())
	assert.InDelta(t, 40.7, source.last().Lat, 1e-9)

	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: "dance"}))
	msg = readMessage(t, conn)
	assert.Equal(t, services.MsgTypeError, msg.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readMessage(t, conn)
	assert.Equal(t, services.MsgTypeError, msg.Type)
	assert.Equal(t, 1, hub.Count())
}

func TestWebSocketHandler_RejectsOutOfRangeLocation(t *testing.T) {
	source := &recordingSource{}
	hub := services.NewFeedHub(source)
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, tokenStub{"good": "u1"}).HandleWebSocket))
	defer srv.Close()

	conn, _, err := dialFeed(t, srv, "token=good")
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, services.MsgTypeFeed, msg.Type)

	lat, lng := 91.0, 10.0
	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: services.MsgTypeLocation, Lat: &lat, Lng: &lng}))
	msg = readMessage(t, conn)
	assert.Equal(t, services.MsgTypeError, msg.Type)
	assert.Equal(t, "invalid lat or lng", msg.Message)
	assert.Nil(t, source.last())
}

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	hub := services.NewFeedHub(&recordingSource{})
	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, tokenStub{}).HandleWebSocket))
	defer srv.Close()

	_, resp, err := dialFeed(t, srv, "token=nope")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.Count())
}

func TestWebSocketHandler_RejectsHalfLocation(t *testing.T) {
	hub := services.NewFeedHub(&recordingSource{})
	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, tokenStub{"good": "u1"}).HandleWebSocket))
	defer srv.Close()

	_, resp, err := dialFeed(t, srv, "token=good&lat=34")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
