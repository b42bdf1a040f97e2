package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const limiterIdleTTL = 3 * time.Minute

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			ip     = r.RemoteAddr
			method = r.Method
			proto  = r.Proto
			uri    = r.URL.RequestURI()
		)

		app.logger.Info("request from", slog.String("method", method), slog.String("uri", uri), slog.String("remote_addr", ip), slog.String("proto", proto))

		next.ServeHTTP(w, r)
	})
}

func (app *application) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, trusted := range app.config.TrustedOrigins {
				if origin != trusted {
					continue
				}

				w.Header().Set("Access-Control-Allow-Origin", origin)

				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					w.WriteHeader(http.StatusOK)
					return
				}
				break
			}
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the bearer session secret to a user. Lookups are
// cached briefly so every request does not cost a backend round trip.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		secret := bearerToken(authHeader)
		if secret == "" {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		key := common.CacheKeySessionUser(secret)
		if cached, ok := app.cache.Get(key); ok {
			if user, ok := cached.(*backend.User); ok {
				next.ServeHTTP(w, app.createSessionContext(r, &requestSession{user: user, secret: secret}))
				return
			}
		}

		user, err := app.authService.CurrentUser(r.Context(), secret)
		if err != nil {
			switch common.KindOf(err) {
			case common.KindUnauthorized, common.KindNotFound:
				app.invalidAuthenticationTokenResponse(w, r)
			default:
				app.errorResponse(w, r, err)
			}
			return
		}

		app.cache.Set(key, user, app.config.SessionCacheTTL)
		next.ServeHTTP(w, app.createSessionContext(r, &requestSession{user: user, secret: secret}))
	})
}

// routeGuard decides whether a request must be sent elsewhere before the
// route runs. Routes requiring authentication send anonymous callers to the
// login page and guest-only routes send signed-in callers home.
func routeGuard(authRequired, authenticated bool) (string, bool) {
	switch {
	case authRequired && !authenticated:
		return "/login", true
	case !authRequired && authenticated:
		return "/", true
	default:
		return "", false
	}
}

func (app *application) guard(authRequired bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, redirect := routeGuard(authRequired, app.getUserContext(r) != nil)
		if redirect {
			app.redirectResponse(w, r, path)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return app.guard(true, next)
}

func (app *application) requireGuest(next http.HandlerFunc) http.HandlerFunc {
	return app.guard(false, next)
}

func (app *application) redirectResponse(w http.ResponseWriter, r *http.Request, path string) {
	headers := make(http.Header)
	headers.Set("Location", path)

	err := app.writeJSON(w, http.StatusSeeOther, envelope{"redirect": path}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// rateLimit allows each client IP RateLimitRPS requests per second with
// bursts of RateLimitBurst. Limiters live in the cache and expire after
// limiterIdleTTL without a request.
func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.RateLimitEnabled {
			next.ServeHTTP(w, r)
			return
		}

		if !app.limiterFor(clientIP(r)).Allow() {
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) limiterFor(ip string) *rate.Limiter {
	key := common.CacheKeyRateLimiter("auth", ip)

	if cached, ok := app.cache.Get(key); ok {
		if limiter, ok := cached.(*rate.Limiter); ok {
			// each hit pushes the idle expiry back
			app.cache.Set(key, limiter, limiterIdleTTL)
			return limiter
		}
	}

	limiter := rate.NewLimiter(rate.Limit(app.config.RateLimitRPS), app.config.RateLimitBurst)
	if err := app.cache.Add(key, limiter, limiterIdleTTL); err != nil {
		// another request created it first
		if cached, ok := app.cache.Get(key); ok {
			return cached.(*rate.Limiter)
		}
	}

	return limiter
}
