package hotel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/trexense-api/app/observability/metrics"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

// ErrAddressNotFound is returned when the geocoder has no match for an address.
var ErrAddressNotFound = errors.New("address not found")

// Places geocodes addresses and discovers places around a position.
type Places interface {
	Geocode(ctx context.Context, address string) (types.Position, error)
	Discover(ctx context.Context, at types.Position, radius int, query string) ([]types.NearbyPlace, error)
}

var _ Places = (*HereClient)(nil)

type HereClient struct {
	apiKey      string
	geocodeURL  string
	discoverURL string
	httpClient  *http.Client
	cache       *cache.Cache
	logger      *slog.Logger
}

func NewHereClient(apiKey, geocodeURL, discoverURL string, timeout, cacheTTL time.Duration, logger *slog.Logger) *HereClient {
	return &HereClient{
		apiKey:      apiKey,
		geocodeURL:  geocodeURL,
		discoverURL: discoverURL,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cache.New(cacheTTL, time.Hour),
		logger:      logger,
	}
}

type geocodeResponse struct {
	Items []struct {
		Position types.Position `json:"position"`
	} `json:"items"`
}

type discoverResponse struct {
	Items []types.NearbyPlace `json:"items"`
}

func (c *HereClient) Geocode(ctx context.Context, address string) (types.Position, error) {
	ctx, span := otel.Tracer("HereClient").Start(ctx, "Geocode")
	defer span.End()

	cacheKey := "geocode:" + strings.ToLower(strings.TrimSpace(address))
	span.SetAttributes(attribute.String("cache.key", cacheKey))
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.(types.Position), nil
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("apiKey", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", c.geocodeURL, q, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode failed")
		return types.Position{}, err
	}
	if len(resp.Items) == 0 {
		return types.Position{}, ErrAddressNotFound
	}

	pos := resp.Items[0].Position
	c.cache.Set(cacheKey, pos, cache.DefaultExpiration)
	return pos, nil
}

func (c *HereClient) Discover(ctx context.Context, at types.Position, radius int, query string) ([]types.NearbyPlace, error) {
	ctx, span := otel.Tracer("HereClient").Start(ctx, "Discover", trace.WithAttributes(
		attribute.Float64("latitude", at.Lat),
		attribute.Float64("longitude", at.Lng),
	))
	defer span.End()

	q := url.Values{}
	q.Set("at", fmt.Sprintf("%g,%g", at.Lat, at.Lng))
	q.Set("radius", fmt.Sprint(radius))
	q.Set("q", query)
	q.Set("apiKey", c.apiKey)

	var resp discoverResponse
	if err := c.get(ctx, "discover", c.discoverURL, q, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discover failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("places.count", len(resp.Items)))
	return resp.Items, nil
}

func (c *HereClient) get(ctx context.Context, route, endpoint string, q url.Values, dst any) error {
	start := time.Now()
	err := c.doGet(ctx, endpoint, q, dst)
	attrs := metric.WithAttributes(attribute.String("upstream", "here"), attribute.String("route", route))
	metrics.Get().UpstreamDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		metrics.Get().UpstreamErrorsTotal.Add(ctx, 1, attrs)
		c.logger.ErrorContext(ctx, "HERE request failed", slog.String("route", route), slog.Any("error", err))
	}
	return err
}

func (c *HereClient) doGet(ctx context.Context, endpoint string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", stripURL(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("here api unreachable: %w", stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("failed to read here api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("here api returned %d", resp.StatusCode)
	}
	if err := gojson.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode here api response: %w", err)
	}
	return nil
}

// stripURL drops the request URL from transport errors since its query
// carries the api key.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
