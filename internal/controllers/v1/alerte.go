package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterAlerteRoutes registers the routes for alertes.
func RegisterAlerteRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGet)
	r.GET("", GetAlertes)

	r.OPTIONS("/:id", httputil.OptionsGet)
	r.GET("/:id", GetAlerte)

	r.POST("/:id/acquitter", AcknowledgeAlerte)
}

func GetAlertes(c *gin.Context) {
	var alertes []models.Alerte

	query := models.DB.Order("created_at DESC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}
	if acquittee := c.Query("acquittee"); acquittee != "" {
		query = query.Where("acquittee = ?", acquittee == "true")
	}
	if typeAlerte := c.Query("type"); typeAlerte != "" {
		query = query.Where("type_alerte = ?", typeAlerte)
	}

	err := query.Find(&alertes).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, alertes)
}

func GetAlerte(c *gin.Context) {
	alerte, ok := getResourceByID[models.Alerte](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, alerte)
}

// AcknowledgeAlerte marks an alerte as acknowledged by the calling
// acteur. Acknowledgement is one-way.
func AcknowledgeAlerte(c *gin.Context) {
	alerte, ok := getResourceByID[models.Alerte](c)
	if !ok {
		return
	}

	err := alerte.Acknowledge(models.DB, acteur(c))
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "alerte", alerte.ID, "acquittement", alerte.TypeAlerte, acteur(c))
	c.JSON(http.StatusOK, alerte)
}
