package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	"github.com/wavehq/hrbridge/services"
)

type Server struct {
	Config          *config.Config
	AuthService     services.AuthService
	ChatService     services.ChatService
	FeedbackService services.FeedbackService
	StorageService  services.StorageService
	LiveService     services.LiveService
	DB              db.GormDB
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and the chat service's denormalization queue.
func (s *Server) Start() {
	r := s.setupRouter()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.Port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	s.ChatService.Close()
}
