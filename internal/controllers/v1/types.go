// Package v1 implements the HTTP surface over the financial core. The
// handlers stay thin: binding, workflow calls, status mapping and audit
// journal writes.
package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/alert"
	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type URIID struct {
	ID uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// acteur identifies the acting user for audit lines. Authentication is
// handled upstream, the header is trusted here.
func acteur(c *gin.Context) string {
	if actor := c.GetHeader("X-Acteur"); actor != "" {
		return actor
	}

	return "api"
}

// getResourceByID binds the id parameter and loads the resource,
// writing the error response itself when either step fails.
func getResourceByID[T any](c *gin.Context) (T, bool) {
	var resource T

	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return resource, false
	}

	err = models.DB.First(&resource, "id = ?", uri.ID).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return resource, false
	}

	return resource, true
}

// detectAlerts runs an inline alert detection pass after a mutation
// that moved the engaged or realized aggregates. A failing detection
// never fails the mutation it follows.
func detectAlerts(projetID uuid.UUID) {
	_, err := alert.Detect(models.DB, projetID)
	if err != nil {
		log.Error().Err(err).Str("projet", projetID.String()).Msg("inline alert detection failed")
	}
}

// detectAlertsForBudget resolves the owning project of a budget and
// runs an inline detection pass for it.
func detectAlertsForBudget(budgetID uuid.UUID) {
	var budget models.Budget

	err := models.DB.First(&budget, "id = ?", budgetID).Error
	if err != nil {
		log.Error().Err(err).Str("budget", budgetID.String()).Msg("inline alert detection failed")
		return
	}

	detectAlerts(budget.ProjetID)
}

// bindJSON binds the request body, writing the error response itself on
// failure.
func bindJSON[T any](c *gin.Context) (T, bool) {
	var data T

	err := c.ShouldBindJSON(&data)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return data, false
	}

	return data, true
}
