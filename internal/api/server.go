package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/triage"
)

// Server is the HTTP surface of the triage pipeline.
type Server struct {
	echo        *echo.Echo
	svc         *triage.Service
	port        int
	environment string
}

// NewServer creates the API server and registers its routes.
func NewServer(svc *triage.Service, port int, environment string) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:        e,
		svc:         svc,
		port:        port,
		environment: environment,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.health)
	s.echo.POST("/analyze", s.analyze, AnalysisRateLimit())
	s.echo.POST("/confirm", s.confirm)
	s.echo.POST("/:id/additional-info", s.additionalInfo)
	s.echo.GET("/:id", s.getReport)
}

// Start runs the server until an interrupt arrives, then shuts down
// gracefully.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	log.Info().Int("port", s.port).Msg("Bug report autopilot listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router. Used by tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
