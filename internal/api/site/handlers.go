// internal/api/site/handlers.go
package site

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/models"
	"github.com/varchas/website/internal/templates/layouts"
)

var (
	sports *catalog.Catalog
	theme  *models.Theme
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c *catalog.Catalog, t *models.Theme) {
	sports = c
	theme = t
}

type sportsResponse struct {
	Sports                []catalog.Sport `json:"sports"`
	RefereeSports         []string        `json:"refereeSports"`
	PreRegistrationSports []string        `json:"preRegistrationSports"`
	States                []catalog.State `json:"states"`
}

// GET /{$}
func HandleHome(w http.ResponseWriter, r *http.Request) {
	if sports == nil {
		log.Ctx(r.Context()).Error().Msg("Site handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	page := layouts.Page{Theme: theme}
	data := HomeData{Catalog: sports}
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		page.UniqueID = identity.UniqueID
		data.LoggedIn = true
	}
	apiutil.RenderHTML(r.Context(), w, http.StatusOK, layouts.Base(page, homeComponent(data)), nil)
}

// GET /health
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GET /api/v1/sports
func HandleSports(w http.ResponseWriter, r *http.Request) {
	if sports == nil {
		log.Ctx(r.Context()).Error().Msg("Site handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	resp := sportsResponse{
		Sports:                sports.Sports,
		RefereeSports:         sports.RefereeSports,
		PreRegistrationSports: sports.PreRegistrationSports,
		States:                sports.States,
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write sports response")
	}
}
