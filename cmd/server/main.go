// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SyedDaiam9101/gender-service/internal/cache"
	"github.com/SyedDaiam9101/gender-service/internal/config"
	"github.com/SyedDaiam9101/gender-service/internal/detector"
	"github.com/SyedDaiam9101/gender-service/internal/handler"
	"github.com/SyedDaiam9101/gender-service/internal/inference"
	"github.com/SyedDaiam9101/gender-service/internal/metrics"
	"github.com/SyedDaiam9101/gender-service/internal/model"
	"github.com/SyedDaiam9101/gender-service/internal/pipeline"
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port (default: 8000)")
	modelPath := flag.String("model", "", "Path to the gender classifier model (.tflite or .onnx)")
	cascadePath := flag.String("cascade", "", "Path to the Haar cascade file")
	redisAddr := flag.String("redis", "", "Redis address for the result cache (optional)")
	metricsPort := flag.Int("metrics", 0, "Prometheus metrics and health port (default: 9100)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use stub classifier and detector (for testing)")
	flag.Usage = usage
	flag.Parse()

	// Override with flags if provided
	overrides := map[string]any{}
	if *port > 0 {
		overrides["server.port"] = *port
	}
	if *modelPath != "" {
		overrides["classifier.model_path"] = *modelPath
	}
	if *cascadePath != "" {
		overrides["detector.cascade_path"] = *cascadePath
	}
	if *redisAddr != "" {
		overrides["cache.redis"] = *redisAddr
	}
	if *metricsPort > 0 {
		overrides["metrics_port"] = *metricsPort
	}
	if *useMock {
		overrides["use_mock"] = true
	}

	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
	logger.Info("Server shutdown complete")
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags]\n\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintln(out, `
Build note: the Haar face detector needs -tags gocv and .tflite models need
-tags tflite (see "make build"). A binary built without them starts, but
reports NOT_SERVING and answers 503 until both models are available.`)
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	serviceName := cfg.Service.Name

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"model":   cfg.Classifier.ModelPath,
		"cascade": cfg.Detector.CascadePath,
		"redis":   cfg.Cache.Redis,
		"metrics": cfg.MetricsPort,
		"otel":    cfg.OTELEnabled,
		"mock":    cfg.UseMock,
	}).Infof("Starting %s", serviceName)

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		var err error
		tracerShutdown, err = initTracer(serviceName, cfg.OTELEndpoint, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize tracer")
		} else {
			logger.WithField("endpoint", cfg.OTELEndpoint).Info("OpenTelemetry tracing enabled")
		}
	}

	// Load models
	var host *model.Host
	if cfg.UseMock {
		logger.Info("Using stub classifier and detector")
		host = model.NewHost(inference.NewMock(), detector.NewCenterMock())
		metrics.SetModelLoaded(model.ComponentClassifier, true)
		metrics.SetModelLoaded(model.ComponentDetector, true)
	} else {
		host = model.Start(ctx, modelConfig(cfg), logger)
	}
	defer host.Close()

	// Initialize Redis cache (optional)
	var cacheClient *cache.Cache
	if cfg.Cache.Redis != "" {
		logger.WithField("addr", cfg.Cache.Redis).Info("Connecting to Redis")
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c, err := cache.New(pingCtx, cfg.Cache.Redis, cfg.Cache.TTL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis (continuing without cache)")
		} else {
			cacheClient = c
			defer cacheClient.Close()
			logger.Info("Redis connected successfully")
		}
	}

	// Create gRPC health server
	healthServer := health.NewServer()
	setHealth(healthServer, serviceName, host)

	// Start HTTP server for metrics and health checks
	opsServer := startOpsServer(cfg.MetricsPort, healthServer, logger)

	// Optional gRPC listener exposing grpc.health.v1
	var grpcServer *grpc.Server
	if cfg.GRPCHealthPort > 0 {
		var err error
		grpcServer, err = startGRPCHealth(cfg.GRPCHealthPort, healthServer, cfg.OTELEnabled, logger)
		if err != nil {
			return err
		}
	}

	p := pipeline.New(host, pipeline.Options{
		ChannelOrder: cfg.Pipeline.ChannelOrder,
		MaxPixels:    cfg.Pipeline.MaxPixels,
	})
	h := handler.New(serviceName, p, cacheClient, logger)
	app := handler.NewApp(h, cfg.Server.MaxUploadBytes, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Infof("%s is ready to accept requests", serviceName)
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Received signal, shutting down gracefully")

	// Set health to not serving
	healthServer.Shutdown()
	metrics.SetUnhealthy()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Ops server shutdown")
	}
	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Tracer shutdown")
		}
	}
	return nil
}

func modelConfig(cfg *config.Config) model.Config {
	return model.Config{
		ModelPath:        cfg.Classifier.ModelPath,
		ModelURL:         cfg.Classifier.ModelURL,
		Acquire:          cfg.Classifier.Acquire,
		DownloadAttempts: cfg.Classifier.DownloadAttempts,
		DownloadTimeout:  cfg.Classifier.DownloadTimeout,
		Classifier: inference.Options{
			Backend:         cfg.Classifier.Backend,
			NumThreads:      cfg.Classifier.NumThreads,
			ONNXLibraryPath: cfg.Classifier.ONNXRuntimeLib,
		},
		CascadePath: cfg.Detector.CascadePath,
		Detector: detector.Params{
			ScaleFactor:  cfg.Detector.ScaleFactor,
			MinNeighbors: cfg.Detector.MinNeighbors,
		},
	}
}

// setHealth publishes per-component and overall serving status.
// The service keeps running with an empty handle; it just reports NOT_SERVING.
func setHealth(hs *health.Server, serviceName string, host *model.Host) {
	status := func(ok bool) healthpb.HealthCheckResponse_ServingStatus {
		if ok {
			return healthpb.HealthCheckResponse_SERVING
		}
		return healthpb.HealthCheckResponse_NOT_SERVING
	}

	hs.SetServingStatus(model.ComponentClassifier, status(host.Classifier() != nil))
	hs.SetServingStatus(model.ComponentDetector, status(host.Detector() != nil))

	ready := host.Ready() == nil
	hs.SetServingStatus(serviceName, status(ready))
	hs.SetServingStatus("", status(ready)) // Overall health
	if ready {
		metrics.SetHealthy()
	} else {
		metrics.SetUnhealthy()
	}
}

func startGRPCHealth(port int, hs *health.Server, otelEnabled bool, logger logrus.FieldLogger) (*grpc.Server, error) {
	var opts []grpc.ServerOption
	if otelEnabled {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	server := grpc.NewServer(opts...)

	healthpb.RegisterHealthServer(server, hs)

	// Enable server reflection for debugging
	reflection.Register(server)

	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		logger.WithField("addr", addr).Info("gRPC health server listening")
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.WithError(err).Error("gRPC health server error")
		}
	}()

	return server, nil
}
