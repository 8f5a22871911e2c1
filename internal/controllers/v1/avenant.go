package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterAvenantRoutes registers the routes for avenants.
func RegisterAvenantRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetAvenants)
	r.POST("", CreateAvenant)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetAvenant)
	r.DELETE("/:id", DeleteAvenant)

	r.OPTIONS("/:id/valider", httputil.OptionsPost)
	r.POST("/:id/valider", ValidateAvenant)
}

func GetAvenants(c *gin.Context) {
	var avenants []models.Avenant

	query := models.DB.Order("created_at ASC")
	if budget := c.Query("budget"); budget != "" {
		query = query.Where("budget_id = ?", budget)
	}

	err := query.Find(&avenants).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, avenants)
}

func CreateAvenant(c *gin.Context) {
	data, ok := bindJSON[models.Avenant](c)
	if !ok {
		return
	}

	avenant, err := models.CreateAvenant(models.DB, data)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "avenant", avenant.ID, "creation", avenant.Numero, acteur(c))
	c.JSON(http.StatusCreated, avenant)
}

func GetAvenant(c *gin.Context) {
	avenant, ok := getResourceByID[models.Avenant](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, avenant)
}

func ValidateAvenant(c *gin.Context) {
	avenant, ok := getResourceByID[models.Avenant](c)
	if !ok {
		return
	}

	err := avenant.Validate(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "avenant", avenant.ID, "validation", avenant.Numero, acteur(c))
	detectAlertsForBudget(avenant.BudgetID)
	c.JSON(http.StatusOK, avenant)
}

func DeleteAvenant(c *gin.Context) {
	avenant, ok := getResourceByID[models.Avenant](c)
	if !ok {
		return
	}

	err := models.DeleteAvenant(models.DB, &avenant)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "avenant", avenant.ID, "suppression", avenant.Numero, acteur(c))
	detectAlertsForBudget(avenant.BudgetID)
	c.Status(http.StatusNoContent)
}
