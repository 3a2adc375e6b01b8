package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	PlansCreatedTotal          metric.Int64Counter
	ItineraryRequestsTotal     metric.Int64Counter
	ItineraryDurationSeconds   metric.Float64Histogram
	ItineraryPlacesDropped     metric.Int64Counter
	UpstreamDurationSeconds    metric.Float64Histogram
	UpstreamErrorsTotal        metric.Int64Counter
	BannerModerationRejections metric.Int64Counter
	DbQueryErrorsTotal         metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, using the
// globally configured MeterProvider. Call it after the tracer package has
// installed the prometheus exporter.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("trexense-api")
		m := &AppMetrics{}
		var err error

		m.PlansCreatedTotal, err = meter.Int64Counter(
			"plans_created_total",
			metric.WithDescription("Total number of plans created"),
			metric.WithUnit("{plan}"),
		)
		must(err, "plans_created_total")

		m.ItineraryRequestsTotal, err = meter.Int64Counter(
			"itinerary_requests_total",
			metric.WithDescription("Itinerary generations by outcome"),
			metric.WithUnit("{request}"),
		)
		must(err, "itinerary_requests_total")

		m.ItineraryDurationSeconds, err = meter.Float64Histogram(
			"itinerary_duration_seconds",
			metric.WithDescription("End to end duration of itinerary generation"),
			metric.WithUnit("s"),
		)
		must(err, "itinerary_duration_seconds")

		m.ItineraryPlacesDropped, err = meter.Int64Counter(
			"itinerary_places_dropped_total",
			metric.WithDescription("Generated places dropped because their category or day did not resolve"),
			metric.WithUnit("{place}"),
		)
		must(err, "itinerary_places_dropped_total")

		m.UpstreamDurationSeconds, err = meter.Float64Histogram(
			"upstream_request_duration_seconds",
			metric.WithDescription("Duration of calls to external services"),
			metric.WithUnit("s"),
		)
		must(err, "upstream_request_duration_seconds")

		m.UpstreamErrorsTotal, err = meter.Int64Counter(
			"upstream_errors_total",
			metric.WithDescription("Failed calls to external services"),
			metric.WithUnit("{error}"),
		)
		must(err, "upstream_errors_total")

		m.BannerModerationRejections, err = meter.Int64Counter(
			"banner_moderation_rejections_total",
			metric.WithDescription("Banner images rejected by safe search"),
			metric.WithUnit("{image}"),
		)
		must(err, "banner_moderation_rejections_total")

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		must(err, "db_query_errors_total")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics. Instruments are created on first use, so
// packages exercised in tests without a configured provider record into the
// no-op meter.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func must(err error, name string) {
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
}
