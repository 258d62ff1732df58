package main

import (
	"context"
	"net/http"
	"time"

	"bookhive/internal/auth"
	"bookhive/internal/book"
	"bookhive/internal/config"
	"bookhive/internal/httpx"
	"bookhive/internal/loan"
	"bookhive/internal/notify"
	"bookhive/internal/review"
	"bookhive/internal/store"
	"bookhive/internal/user"

	"go.uber.org/zap"
)

// app holds the services behind the HTTP surface.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	store   *store.Store
	mailer  *notify.Mailer
	books   *book.Service
	loans   *loan.Service
	users   *user.Service
	auth    *auth.Service
	reviews *review.Service
}

func newApp(cfg config.Config, log *zap.Logger, st *store.Store, mailer *notify.Mailer) *app {
	users := user.NewService(st.Users, cfg.Auth.AdminEmails)
	return &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		mailer: mailer,
		books:  book.NewService(st.Books),
		loans: loan.NewService(st.Loans, mailer,
			loan.WithPeriod(cfg.Loans.Period),
			loan.WithLogger(log.Named("loans")),
		),
		users:   users,
		auth:    auth.NewService(users, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		reviews: review.NewService(st.Reviews),
	}
}

// routes builds the router. The returned func releases the rate limiter.
func (a *app) routes() (http.Handler, func()) {
	books := book.NewHTTPHandler(a.books)
	loans := loan.NewHTTPHandler(a.loans)
	users := user.NewHTTPHandler(a.users)
	login := auth.NewHTTPHandler(a.auth)
	reviews := review.NewHTTPHandler(a.reviews)

	body := httpx.RequestSizeLimitMiddleware(a.cfg.HTTP.MaxBodyBytes)
	upload := httpx.RequestSizeLimitMiddleware(book.MaxUploadBytes)
	authn := httpx.AuthMiddleware(a.cfg.Auth.JWTSecret)
	adminOnly := httpx.RequireRole(httpx.RoleAdmin)

	open := func(h http.HandlerFunc) http.Handler { return body(h) }
	member := func(h http.HandlerFunc) http.Handler { return httpx.Chain(h, body, authn) }
	admin := func(h http.HandlerFunc) http.Handler { return httpx.Chain(h, body, authn, adminOnly) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok"}, nil)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			httpx.Logger(r).Warn("readiness check failed", zap.Error(err))
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
			return
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready", "driver": a.store.Driver}, nil)
	})

	mux.Handle("POST /auth/register", open(users.Register))
	mux.Handle("POST /auth/login", open(login.Login))
	mux.Handle("GET /me", member(users.Me))

	mux.Handle("GET /books", open(books.List))
	mux.Handle("POST /books", httpx.Chain(http.HandlerFunc(books.Create), upload, authn, adminOnly))
	mux.Handle("GET /books/{id}", open(books.Get))
	mux.Handle("PUT /books/{id}", httpx.Chain(http.HandlerFunc(books.Update), upload, authn, adminOnly))
	mux.Handle("DELETE /books/{id}", admin(books.Delete))
	mux.Handle("GET /books/{id}/document", open(books.Document))

	mux.Handle("PATCH /books/{id}/borrow", member(loans.Borrow))
	mux.Handle("PATCH /books/{id}/return", member(loans.Return))
	mux.Handle("GET /books/history", member(loans.History))
	mux.Handle("GET /books/stats/borrowed", member(loans.Stats))
	mux.Handle("GET /books/{id}/loans/active", admin(loans.Active))

	mux.Handle("GET /books/{id}/reviews", open(reviews.List))
	mux.Handle("POST /books/{id}/reviews", member(reviews.Upsert))
	mux.Handle("DELETE /books/{id}/reviews/mine", member(reviews.DeleteMine))
	mux.Handle("GET /books/{id}/rating", open(reviews.Rating))

	limiter := httpx.NewRateLimitMiddleware(a.cfg.HTTP.RateLimitRPS, a.cfg.HTTP.RateLimitBurst)
	handler := httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.log),
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(a.cfg.HTTP.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.HTTP.AllowedOrigins),
		limiter.Middleware,
	)
	return handler, limiter.Close
}
