package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/invalidate"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventsStreamsInvalidations(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	publisher := invalidate.NewPublisher(client, zap.NewNop())

	userID := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	})
	NewEventsHandler(publisher, zap.NewNop()).Register(r.Group("/v1"))

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// The handler has subscribed once headers are out.
	require.Eventually(t, func() bool {
		return s.PubSubNumSub(invalidate.Channel(userID))[invalidate.Channel(userID)] == 1
	}, 2*time.Second, 10*time.Millisecond)

	dealID := uuid.New()
	publisher.Publish(ctx, userID, []crm.EntityRef{{Kind: crm.KindDeal, ID: &dealID}})

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event:invalidate" {
			sawEvent = true
			continue
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			assert.Contains(t, line, dealID.String())
			assert.Contains(t, line, `"kind":"deal"`)
			return
		}
	}
	t.Fatalf("stream ended without an invalidate event: %v", scanner.Err())
}
