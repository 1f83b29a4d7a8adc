package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/models"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStack wires the gateway in front of a real server tier backed by in-memory sqlite,
// with the redis response cache failing over to memory.
func newStack(t *testing.T) (gatewayURL string, redis *miniredis.Miniredis) {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := api.Services{
		Users:    service.NewUserService(db, &logger),
		Items:    service.NewItemService(db, nil, &logger),
		Bookings: service.NewBookingService(db, nil, &logger),
		Requests: service.NewRequestService(db, &logger),
	}
	server := httptest.NewServer(api.NewHTTPServer(config.HTTPConfig{}, svc, db, &logger).Handler())
	t.Cleanup(server.Close)

	redis = miniredis.RunT(t)
	client := repository.NewRedisClient(config.RedisConfig{Address: redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := repository.NewFailoverResponseCache(
		repository.NewRedisResponseCache(client),
		repository.NewMemoryResponseCache(),
		&logger,
	)

	cfg := testConfig(server.URL)
	cfg.CacheTTL = time.Minute
	ts := newTestGateway(t, cfg, cache)
	return ts.URL, redis
}

func mustID(t *testing.T, body string) int64 {
	t.Helper()
	var out struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	require.NotZero(t, out.ID, body)
	return out.ID
}

func TestEndToEndBookingThroughGateway(t *testing.T) {
	gw, redis := newStack(t)

	resp, body := send(t, http.MethodPost, gw+"/users", "", `{"name":"Owner","email":"owner@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	owner := strconv.FormatInt(mustID(t, body), 10)

	resp, body = send(t, http.MethodPost, gw+"/users", "", `{"name":"Booker","email":"booker@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	booker := strconv.FormatInt(mustID(t, body), 10)

	resp, body = send(t, http.MethodPost, gw+"/users", "", `{"name":"Dup","email":"owner@example.com"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ConflictError", errorClass(t, body))

	resp, body = send(t, http.MethodPost, gw+"/items", owner, `{"name":"Drill","description":"cordless drill","available":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	itemID := mustID(t, body)

	booking := fmt.Sprintf(`{"itemId":%d,"start":%q,"end":%q}`, itemID, wireTime(time.Hour), wireTime(2*time.Hour))
	resp, body = send(t, http.MethodPost, gw+"/bookings", booker, booking)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	bookingID := mustID(t, body)

	var dto struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, string(models.StatusWaiting), dto.Status)

	// warm the cache for the booker's WAITING list
	waitingURL := gw + "/bookings?state=WAITING"
	_, waiting := send(t, http.MethodGet, waitingURL, booker, "")
	assert.Contains(t, waiting, fmt.Sprintf(`"id":%d`, bookingID))
	genBefore, err := redis.Get("shareit:gateway:generation")
	if err != nil {
		genBefore = "0"
	}

	resp, body = send(t, http.MethodPatch, fmt.Sprintf("%s/bookings/%d?approved=true", gw, bookingID), owner, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	genAfter, err := redis.Get("shareit:gateway:generation")
	require.NoError(t, err)
	assert.NotEqual(t, genBefore, genAfter)

	// the approval invalidated the cached WAITING list
	_, waiting = send(t, http.MethodGet, waitingURL, booker, "")
	assert.JSONEq(t, `[]`, waiting)

	resp, body = send(t, http.MethodPatch, fmt.Sprintf("%s/bookings/%d?approved=false", gw, bookingID), owner, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidOperationError", errorClass(t, body))

	resp, _ = send(t, http.MethodGet, fmt.Sprintf("%s/bookings/%d", gw, bookingID), "999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	t.Run("RedisOutageFallsBackToMemory", func(t *testing.T) {
		redis.Close()

		resp, body := send(t, http.MethodGet, gw+"/users", "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		resp, body = send(t, http.MethodPatch, gw+"/users/"+owner, "", `{"name":"Renamed"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		_, body = send(t, http.MethodGet, gw+"/users", "", "")
		assert.Contains(t, body, `"Renamed"`)
	})
}
