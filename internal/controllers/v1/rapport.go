package v1

import (
	"net/http"
	"time"

	"github.com/chantierflow/backend/internal/forecast"
	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// advisoryProvider is the optional external advisory source, configured
// at startup. When nil, reports carry the rule-based suggestions only.
var advisoryProvider forecast.AdvisoryProvider

// SetAdvisoryProvider configures the external advisory source used by
// the report endpoints.
func SetAdvisoryProvider(p forecast.AdvisoryProvider) {
	advisoryProvider = p
}

// RapportFinancier is the per-project financial report.
type RapportFinancier struct {
	Projet      models.ProjetInfo     `json:"projet"`
	Final       bool                  `json:"final"`
	GenereLe    time.Time             `json:"genereLe"`
	KPI         *forecast.KPI         `json:"kpi"`
	Suggestions []forecast.Suggestion `json:"suggestions"`
}

// RegisterRapportRoutes registers the report routes under the projets
// group.
func RegisterRapportRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/rapport", httputil.OptionsGet)
	r.GET("/:id/rapport", GetRapport)

	r.OPTIONS("/:id/kpi", httputil.OptionsGet)
	r.GET("/:id/kpi", GetKPI)

	r.OPTIONS("/:id/suggestions", httputil.OptionsGet)
	r.GET("/:id/suggestions", GetSuggestions)
}

// GetKPI returns the indicator snapshot of a project. Projects without
// a budget get an empty body with a 204.
func GetKPI(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	kpi, _, ok, err := forecast.CollectKPI(models.DB, uri.ID, time.Now().In(time.UTC))
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, kpi)
}

// GetSuggestions returns the advisory list for a project.
func GetSuggestions(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	suggestions, err := forecast.Suggestions(c.Request.Context(), models.DB, uri.ID, advisoryProvider)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// GetRapport returns the full financial report of a project. The report
// is flagged final when the project is closed.
func GetRapport(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	info, err := models.LookupProjet(models.DB, uri.ID)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	now := time.Now().In(time.UTC)
	rapport := RapportFinancier{
		Projet:      info,
		Final:       !info.Ouvert,
		GenereLe:    now,
		Suggestions: []forecast.Suggestion{},
	}

	kpi, _, ok, err := forecast.CollectKPI(models.DB, uri.ID, now)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	if ok {
		rapport.KPI = &kpi

		suggestions, err := forecast.Suggestions(c.Request.Context(), models.DB, uri.ID, advisoryProvider)
		if err != nil {
			c.JSON(httputil.Status(err), httperror.New(err))
			return
		}
		rapport.Suggestions = suggestions
	}

	c.JSON(http.StatusOK, rapport)
}
