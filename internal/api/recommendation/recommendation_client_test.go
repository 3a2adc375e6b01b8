package recommendation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/trexense-api/internal/types"
)

func TestRecommendHotels(t *testing.T) {
	userID := uuid.New()
	h1, h2 := uuid.New(), uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recommend-hotel/" + userID.String():
			_, _ = io.WriteString(w, `{"recommendation":[{"hotelid":"`+h1.String()+`"},{"hotelid":"bogus"}]}`)
		case "/recommend-hotel/" + userID.String() + "/3":
			_, _ = io.WriteString(w, `{"recommendation":[{"hotelid":"`+h2.String()+`"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewMLClient(srv.URL+"/", time.Second, slog.Default())

	t.Run("Default", func(t *testing.T) {
		ids, err := client.RecommendHotels(context.Background(), userID, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{h1}, ids)
	})

	t.Run("Top", func(t *testing.T) {
		ids, err := client.RecommendHotels(context.Background(), userID, 3)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{h2}, ids)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		_, err := client.RecommendHotels(context.Background(), uuid.New(), 0)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	})
}

func TestItinerary(t *testing.T) {
	var got types.ItineraryRequest
	payload := `{"day1":[{"place_name":"Tanah Lot","description":"Sea temple","time":"08:00","cost":"Rp. 60.000","category":"Culture","address":"Tabanan"}],` +
		`"day2":[{"place_name":"Ubud Market","description":"","time":"10:00","cost":25000,"category":"Shopping","address":"Ubud"}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/itinerary", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	client := NewMLClient(srv.URL, time.Second, slog.Default())
	req := types.ItineraryRequest{City: "Bali", TravelCompanion: "Family", Budget: "Rp. 1.500.000", Duration: 2, TravelTheme: "Culture"}

	result, err := client.Itinerary(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	require.Len(t, result.Days["day1"], 1)
	assert.Equal(t, types.NumberOrString("Rp. 60.000"), result.Days["day1"][0].Cost)
	assert.Equal(t, types.NumberOrString("25000"), result.Days["day2"][0].Cost)
	assert.JSONEq(t, payload, string(result.Raw))
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Where to eat in Bandung?", body["prompt"])
		_, _ = io.WriteString(w, `{"response":"Try Jalan Braga."}`)
	}))
	defer srv.Close()

	client := NewMLClient(srv.URL, time.Second, slog.Default())
	raw, err := client.SendMessage(context.Background(), "Where to eat in Bandung?")
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":"Try Jalan Braga."}`, string(raw))
}

func TestCircuitBreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewMLClient(srv.URL, time.Second, slog.Default())
	for i := 0; i < 5; i++ {
		_, err := client.SendMessage(context.Background(), "hi")
		require.Error(t, err)
	}
	_, err := client.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, 5, calls, "open breaker must short-circuit")
}
