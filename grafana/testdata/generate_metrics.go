// Package testdata provides utilities for generating sample metrics data
// to test Grafana dashboards without using real production data.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for testing dashboards. Names and labels mirror the
// instruments the daemon exports so dashboard queries built against
// this generator keep working against a real aurad.
var (
	// Codec metrics
	compressOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_compress_operations_total",
			Help: "Total number of compression operations",
		},
		[]string{"method"},
	)
	compressDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aura_compress_duration_seconds",
			Help:    "Time spent on compression operations",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		},
		[]string{"method"},
	)
	compressRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aura_compress_ratio",
			Help:    "Compression ratios achieved",
			Buckets: []float64{0.5, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0, 20.0},
		},
	)
	decompressOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_decompress_operations_total",
			Help: "Total number of decompression operations",
		},
		[]string{"method"},
	)
	codecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_errors_total",
			Help: "Total number of codec errors",
		},
		[]string{"operation", "error_type"},
	)

	// Accelerator metrics
	accelLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accel_lookups_total",
			Help: "Total signature cache lookups",
		},
		[]string{"result"},
	)
	accelProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accel_process_duration_seconds",
			Help:    "Message processing duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	accelSpeedup = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accel_speedup",
			Help:    "Speedup factor for cached patterns",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
	accelConversationsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "accel_conversations_active",
			Help: "Number of live conversations",
		},
	)

	// Discovery metrics
	discoveryCandidates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_candidates_total",
			Help: "Total pattern candidates mined",
		},
	)
	discoveryPromoted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_promoted_total",
			Help: "Total templates promoted",
		},
	)
	discoveryRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_rejected_total",
			Help: "Total candidates rejected by screening",
		},
		[]string{"reason"},
	)
	discoveryRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_run_duration_seconds",
			Help:    "Discovery run duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP server metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurad_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aurad_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aurad_http_response_size_bytes",
			Help:    "HTTP response size",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"method", "path"},
	)
	httpActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aurad_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		// Codec
		compressOperations,
		compressDuration,
		compressRatio,
		decompressOperations,
		codecErrors,
		// Accelerator
		accelLookups,
		accelProcessDuration,
		accelSpeedup,
		accelConversationsActive,
		// Discovery
		discoveryCandidates,
		discoveryPromoted,
		discoveryRejected,
		discoveryRunDuration,
		// HTTP
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		httpActiveRequests,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'aurad-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

var (
	methods          = []string{"binary_semantic", "auralite", "uncompressed"}
	errorTypes       = []string{"unknown_method", "template_not_found", "invalid_payload", "text_too_large"}
	rejectionReasons = []string{"secret_keyword", "secret_assignment", "hex_run", "base64_run", "digit_run", "insufficient_literal"}
	apiPaths         = []string{"/v1/compress", "/v1/decompress", "/v1/metadata", "/v1/templates", "/v1/stats"}
)

func generateSampleData() {
	// Codec traffic: binary-semantic dominates a healthy deployment
	for i := 0; i < 300; i++ {
		method := weightedMethod()
		compressOperations.WithLabelValues(method).Inc()
		compressDuration.WithLabelValues(method).Observe(rand.Float64() * 0.0005)
		compressRatio.Observe(sampleRatio(method))
	}
	for i := 0; i < 150; i++ {
		decompressOperations.WithLabelValues(weightedMethod()).Inc()
	}
	for i := 0; i < 8; i++ {
		codecErrors.WithLabelValues(randomChoice([]string{"compress", "decompress"}), randomChoice(errorTypes)).Inc()
	}

	// Accelerator: hit rate climbs as conversations warm up
	for i := 0; i < 200; i++ {
		result := "miss"
		if rand.Float64() > 0.6 {
			result = "hit"
		}
		accelLookups.WithLabelValues(result).Inc()
		accelProcessDuration.WithLabelValues(result).Observe(sampleProcessTime(result))
		if result == "hit" {
			accelSpeedup.Observe(5 + rand.Float64()*100)
		}
	}
	accelConversationsActive.Set(float64(rand.Intn(40) + 5))

	// Discovery runs
	for i := 0; i < 5; i++ {
		discoveryCandidates.Add(float64(rand.Intn(200) + 20))
		discoveryRunDuration.Observe(rand.Float64() * 2.0)
		if rand.Float64() > 0.4 {
			discoveryPromoted.Inc()
		}
	}
	for i := 0; i < 12; i++ {
		discoveryRejected.WithLabelValues(randomChoice(rejectionReasons)).Inc()
	}

	// HTTP traffic
	statuses := []string{"200", "200", "200", "200", "400", "429", "500"}
	for i := 0; i < 500; i++ {
		path := randomChoice(apiPaths)
		httpRequestsTotal.WithLabelValues("POST", path, randomChoice(statuses)).Inc()
		httpRequestDuration.WithLabelValues("POST", path).Observe(rand.Float64() * 0.05)
		httpResponseSize.WithLabelValues("POST", path).Observe(float64(rand.Intn(2048) + 64))
	}
	httpActiveRequests.Set(float64(rand.Intn(8)))
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Steady compression traffic
			for i := 0; i < rand.Intn(10)+1; i++ {
				method := weightedMethod()
				compressOperations.WithLabelValues(method).Inc()
				compressDuration.WithLabelValues(method).Observe(rand.Float64() * 0.0005)
				compressRatio.Observe(sampleRatio(method))

				result := "miss"
				if rand.Float64() > 0.5 {
					result = "hit"
				}
				accelLookups.WithLabelValues(result).Inc()
				accelProcessDuration.WithLabelValues(result).Observe(sampleProcessTime(result))

				path := randomChoice(apiPaths)
				httpRequestsTotal.WithLabelValues("POST", path, "200").Inc()
				httpRequestDuration.WithLabelValues("POST", path).Observe(rand.Float64() * 0.05)
				httpResponseSize.WithLabelValues("POST", path).Observe(float64(rand.Intn(2048) + 64))
			}
			if rand.Float64() > 0.7 {
				decompressOperations.WithLabelValues(weightedMethod()).Inc()
			}
			if rand.Float64() > 0.95 {
				codecErrors.WithLabelValues("compress", randomChoice(errorTypes)).Inc()
			}

			// An occasional discovery run
			if rand.Float64() > 0.9 {
				discoveryCandidates.Add(float64(rand.Intn(50) + 5))
				discoveryRunDuration.Observe(rand.Float64() * 2.0)
				if rand.Float64() > 0.5 {
					discoveryPromoted.Inc()
				} else {
					discoveryRejected.WithLabelValues(randomChoice(rejectionReasons)).Inc()
				}
			}

			// Drift the gauges
			accelConversationsActive.Add(float64(rand.Intn(5) - 2))
			httpActiveRequests.Set(float64(rand.Intn(8)))
		}
	}
}

// weightedMethod returns a compression method with binary_semantic most
// likely, matching realistic template-heavy traffic.
func weightedMethod() string {
	r := rand.Float64()
	switch {
	case r < 0.55:
		return methods[0]
	case r < 0.95:
		return methods[1]
	default:
		return methods[2]
	}
}

// sampleRatio draws a plausible ratio for the method: template hits
// compress well, literal fallback hovers near 1x.
func sampleRatio(method string) float64 {
	switch method {
	case "binary_semantic":
		return 1.5 + rand.Float64()*8
	case "auralite":
		return 0.9 + rand.Float64()*0.2
	default:
		return 1.0
	}
}

func sampleProcessTime(result string) float64 {
	if result == "hit" {
		return rand.Float64() * 0.002
	}
	return 0.005 + rand.Float64()*0.02
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
