package server

import (
	"fmt"
	"net/http"
	"time"

	"workhub/internal/config"
	"workhub/internal/database"
	"workhub/internal/server/routes"
)

type Server struct {
	port           int
	db             database.Service
	services       *routes.Services
	sessionSecret  string
	allowedOrigins []string
}

func (s *Server) GetDB() database.Service {
	return s.db
}

func (s *Server) GetServices() *routes.Services {
	return s.services
}

func New(cfg *config.Config, db database.Service, services *routes.Services) *Server {
	return &Server{
		port:           cfg.Port,
		db:             db,
		services:       services,
		sessionSecret:  cfg.SessionSecret,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

func NewServer(cfg *config.Config, db database.Service, services *routes.Services) *http.Server {
	NewServer := New(cfg, db, services)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
