package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterDevisRoutes registers the routes for devis.
func RegisterDevisRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetDevisList)
	r.POST("", CreateDevis)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetDevis)
	r.PATCH("/:id", UpdateDevis)
	r.DELETE("/:id", DeleteDevis)
}

func GetDevisList(c *gin.Context) {
	var devis []models.Devis

	query := models.DB.Order("created_at ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}

	err := query.Find(&devis).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, devis)
}

func CreateDevis(c *gin.Context) {
	devis, ok := bindJSON[models.Devis](c)
	if !ok {
		return
	}

	err := models.DB.Create(&devis).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "devis", devis.ID, "creation", devis.Libelle, acteur(c))
	c.JSON(http.StatusCreated, devis)
}

func GetDevis(c *gin.Context) {
	devis, ok := getResourceByID[models.Devis](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, devis)
}

func UpdateDevis(c *gin.Context) {
	devis, ok := getResourceByID[models.Devis](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Devis](c)
	if !ok {
		return
	}

	devis.Libelle = update.Libelle

	err := models.DB.Save(&devis).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "devis", devis.ID, "modification", devis.Libelle, acteur(c))
	c.JSON(http.StatusOK, devis)
}

func DeleteDevis(c *gin.Context) {
	devis, ok := getResourceByID[models.Devis](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&devis).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "devis", devis.ID, "suppression", devis.Libelle, acteur(c))
	c.Status(http.StatusNoContent)
}
