package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/auth"
	"github.com/ayush/animanga/backend/internal/catalogue"
	"github.com/ayush/animanga/backend/internal/logging"
	"github.com/ayush/animanga/backend/internal/middleware"
	"github.com/ayush/animanga/backend/internal/remember"
	"github.com/ayush/animanga/backend/internal/session"
)

type routerDeps struct {
	log            logrus.FieldLogger
	auth           *auth.Handler
	sessions       *session.Manager
	tokens         *remember.Service
	catalogue      *catalogue.Handler // nil disables the catalogue routes
	allowedOrigins []string
	secureCookies  bool
	staticDir      string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(d.log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Sessions(d.sessions, d.tokens, d.log, d.secureCookies))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	r.Post("/login", d.auth.Login)
	r.Get("/login", d.auth.Page(auth.LoginPage))
	r.Post("/signup", d.auth.Signup)
	r.Get("/signup", d.auth.Page(auth.SignupPage))
	r.Post("/logout", d.auth.Logout)
	r.With(middleware.RequireAuth).Get("/api/me", d.auth.Me)

	// Catalogue routes (public)
	if d.catalogue != nil {
		r.Get("/api/shows/{kind}", d.catalogue.List)
		r.Get("/api/shows/{kind}/{title}", d.catalogue.Get)
		r.Get("/covers/{kind}/{name}", d.catalogue.Cover)
	}

	if d.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.staticDir)))
	}
	return r
}
