// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api"
	"github.com/varchas/website/internal/api/account"
	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/api/nav"
	"github.com/varchas/website/internal/api/preregistrations"
	"github.com/varchas/website/internal/api/referees"
	"github.com/varchas/website/internal/api/site"
	"github.com/varchas/website/internal/api/teams"
)

func newServer(d *deps) *http.Server {
	router := http.NewServeMux()

	initHandlers(d)
	registerRoutes(router, d.config.App.StaticDir)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithSession(d.sessions),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(d.config.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: d.config.Backend.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func initHandlers(d *deps) {
	theme := &d.config.Theme

	// Logging out discards every form the session still has open.
	auth.InitHandlers(d.backend, d.sessions, d.limiter, func(sessionID string) {
		if n := d.forms.CloseOwner(sessionID); n > 0 {
			log.Debug().Int("forms", n).Msg("Closed forms on logout")
		}
	})
	teams.InitHandlers(d.forms, theme)
	account.InitHandlers(d.backend, d.catalog, theme)
	referees.InitHandlers(d.backend, d.catalog)
	preregistrations.InitHandlers(d.backend, d.catalog)
	nav.InitHandlers(d.catalog)
	site.InitHandlers(d.catalog, theme)
}

func registerRoutes(mux *http.ServeMux, staticDir string) {
	// Pages
	mux.HandleFunc("GET /{$}", site.HandleHome)
	mux.HandleFunc("GET /profile", account.HandleProfilePage)
	mux.HandleFunc("GET /sports/{sport}/register", teams.HandleRegisterPage)

	// Health check
	mux.HandleFunc("GET /health", site.HandleHealth)

	mux.HandleFunc("GET /api/v1/sports", site.HandleSports)

	// Navigation routes
	mux.HandleFunc("GET /api/v1/nav/menu", nav.HandleMenu)
	mux.HandleFunc("GET /api/v1/nav/menu/close", nav.HandleMenuClose)
	mux.HandleFunc("GET /api/v1/nav/search", nav.HandleSearch)

	// Auth and account routes
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("POST /api/v1/account/register", account.HandleRegister)
	mux.HandleFunc("PUT /api/v1/account/profile", account.HandleUpdateProfile)

	// One-shot registrations
	mux.HandleFunc("POST /api/v1/referees", referees.HandleCreate)
	mux.HandleFunc("POST /api/v1/preregistrations/team", preregistrations.HandleTeam)
	mux.HandleFunc("POST /api/v1/preregistrations/contingent", preregistrations.HandleContingent)

	// Team registration forms
	mux.HandleFunc("POST /api/v1/teamreg", teams.HandleOpen)
	mux.HandleFunc("GET /api/v1/teamreg/{form}", teams.HandleGet)
	mux.HandleFunc("DELETE /api/v1/teamreg/{form}", teams.HandleClose)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/categories/{category}/toggle", teams.HandleToggleCategory)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/categories/{category}/name", teams.HandleSetTeamName)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/categories/{category}/size", teams.HandleSetTeamSize)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/categories/{category}/players/{slot}", teams.HandleSetPlayerID)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/submit", teams.HandleSubmit)
	mux.HandleFunc("POST /api/v1/teamreg/{form}/join", teams.HandleJoin)

	// Static file handling
	fs := http.FileServer(http.Dir(staticDir))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
