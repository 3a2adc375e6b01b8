package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/trexense-api/app/observability/metrics"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

const maxResponseBytes = 4 << 20

// Client talks to the machine-learning service.
type Client interface {
	// RecommendHotels returns ranked hotel ids for a user. top <= 0 means the service default.
	RecommendHotels(ctx context.Context, userID uuid.UUID, top int) ([]uuid.UUID, error)
	// Itinerary requests a day-by-day plan.
	Itinerary(ctx context.Context, req types.ItineraryRequest) (*types.ItineraryResult, error)
	Bot
}

// Bot answers free-form travel prompts.
type Bot interface {
	SendMessage(ctx context.Context, prompt string) (json.RawMessage, error)
}

// UpstreamError reports a non-2xx answer from the ML service.
type UpstreamError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ml service %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

var _ Client = (*MLClient)(nil)

type MLClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewMLClient wraps every call in a circuit breaker that opens after
// 5 consecutive failures and probes again after 30 seconds.
func NewMLClient(baseURL string, timeout time.Duration, logger *slog.Logger) *MLClient {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ml-service",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client errors say nothing about service health.
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				return upstream.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &MLClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
		logger:     logger,
	}
}

type recommendResponse struct {
	Recommendation []struct {
		HotelID string `json:"hotelid"`
	} `json:"recommendation"`
}

func (c *MLClient) RecommendHotels(ctx context.Context, userID uuid.UUID, top int) ([]uuid.UUID, error) {
	path := "/recommend-hotel/" + userID.String()
	if top > 0 {
		path = fmt.Sprintf("%s/%d", path, top)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp recommendResponse
	if err := gojson.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Recommendation))
	for _, rec := range resp.Recommendation {
		id, err := uuid.Parse(rec.HotelID)
		if err != nil {
			c.logger.DebugContext(ctx, "Skipping malformed hotel id", slog.String("hotel_id", rec.HotelID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *MLClient) Itinerary(ctx context.Context, req types.ItineraryRequest) (*types.ItineraryResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/itinerary", req)
	if err != nil {
		return nil, err
	}

	days := make(map[string][]types.ItineraryPlace)
	if err := gojson.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("failed to decode itinerary response: %w", err)
	}
	return &types.ItineraryResult{Days: days, Raw: json.RawMessage(body)}, nil
}

func (c *MLClient) SendMessage(ctx context.Context, prompt string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, "/generate", map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}
	if !gojson.Valid(body) {
		return nil, fmt.Errorf("ml service /generate returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

func (c *MLClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ctx, span := otel.Tracer("RecommendationClient").Start(ctx, "ml "+method+" "+routeName(path), trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("ml.path", path),
	))
	defer span.End()

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	metrics.Get().UpstreamDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("upstream", "ml"), attribute.String("route", routeName(path))))

	if err != nil {
		metrics.Get().UpstreamErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("upstream", "ml")))
		c.logger.ErrorContext(ctx, "ML service call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "ml service call failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (c *MLClient) roundTrip(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := gojson.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml service %s unreachable: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read ml service response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Path: path, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

// routeName drops ids so span names and metric labels stay low-cardinality.
func routeName(path string) string {
	if strings.HasPrefix(path, "/recommend-hotel/") {
		return "/recommend-hotel"
	}
	return path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
