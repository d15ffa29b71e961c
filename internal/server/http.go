// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AccelByte/extend-ranking-progression/pkg/ranking"
)

// HTTPServer manages the engine's JSON API server lifecycle.
type HTTPServer struct {
	server  *http.Server
	port    int
	service *ranking.Service
}

// NewHTTPServer creates a new API server instance.
func NewHTTPServer(port int, service *ranking.Service) *HTTPServer {
	return &HTTPServer{
		port:    port,
		service: service,
	}
}

// Setup configures routes and middleware. Every route is wrapped with
// OpenTelemetry instrumentation and request-scoped logging.
func (s *HTTPServer) Setup() error {
	h := &apiHandler{service: s.service}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/completions", h.recordCompletion)
	mux.HandleFunc("GET /v1/leaderboards/global", h.globalLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/{category}", h.categoryLeaderboard)
	mux.HandleFunc("GET /v1/players/{player}/badges", h.playerBadges)
	mux.HandleFunc("POST /v1/admin/reset", h.resetCategory)
	mux.HandleFunc("GET /healthz", h.health)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           otelhttp.NewHandler(requestLogger(mux), "ranking-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logrus.Infof("registered API routes")
	return nil
}

// Handler exposes the configured handler chain. Tests drive it through
// httptest without opening a port.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening and serving API requests.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("API server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the API server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("API server stopped")
	return nil
}
