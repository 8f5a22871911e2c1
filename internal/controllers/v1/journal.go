package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterJournalRoutes registers the read-only audit trail routes.
func RegisterJournalRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGet)
	r.GET("", GetJournal)
}

func GetJournal(c *gin.Context) {
	var entries []models.Journal

	query := models.DB.Order("id DESC").Limit(500)
	if entite := c.Query("entite"); entite != "" {
		query = query.Where("entite_type = ?", entite)
	}
	if id := c.Query("entiteId"); id != "" {
		query = query.Where("entite_id = ?", id)
	}
	if acteur := c.Query("acteur"); acteur != "" {
		query = query.Where("acteur = ?", acteur)
	}

	err := query.Find(&entries).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, entries)
}
