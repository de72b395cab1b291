// Package api exposes the engine over a small JSON HTTP surface. Rendering
// lives entirely in the consumers; this layer only shapes engine output.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmulloy/kitewind/internal/forecast"
	"github.com/pmulloy/kitewind/internal/tide"
)

type Server struct {
	forecasts *forecast.Service
	tides     *tide.Service
	port      string
}

func NewServer(forecasts *forecast.Service, tides *tide.Service, port string) *Server {
	return &Server{
		forecasts: forecasts,
		tides:     tides,
		port:      port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/forecast/daily", s.handleDailyForecast)
	mux.HandleFunc("/api/forecast/hourly", s.handleHourlyForecast)
	mux.HandleFunc("/api/tide", s.handleTide)
	mux.HandleFunc("/api/tide/curve", s.handleTideCurve)
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
