package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterRegleAffectationRoutes registers the routes for affectation
// rules.
func RegisterRegleAffectationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetReglesAffectation)
	r.POST("", CreateRegleAffectation)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetRegleAffectation)
	r.PATCH("/:id", UpdateRegleAffectation)
	r.DELETE("/:id", DeleteRegleAffectation)
}

func GetReglesAffectation(c *gin.Context) {
	var regles []models.RegleAffectation

	err := models.DB.Order("priorite ASC").Find(&regles).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, regles)
}

func CreateRegleAffectation(c *gin.Context) {
	regle, ok := bindJSON[models.RegleAffectation](c)
	if !ok {
		return
	}

	err := models.DB.Create(&regle).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "regle_affectation", regle.ID, "creation", regle.Motif, acteur(c))
	c.JSON(http.StatusCreated, regle)
}

func GetRegleAffectation(c *gin.Context) {
	regle, ok := getResourceByID[models.RegleAffectation](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, regle)
}

func UpdateRegleAffectation(c *gin.Context) {
	regle, ok := getResourceByID[models.RegleAffectation](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.RegleAffectation](c)
	if !ok {
		return
	}

	regle.Priorite = update.Priorite
	regle.Motif = update.Motif
	regle.LotID = update.LotID

	err := models.DB.Save(&regle).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "regle_affectation", regle.ID, "modification", regle.Motif, acteur(c))
	c.JSON(http.StatusOK, regle)
}

func DeleteRegleAffectation(c *gin.Context) {
	regle, ok := getResourceByID[models.RegleAffectation](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&regle).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "regle_affectation", regle.ID, "suppression", regle.Motif, acteur(c))
	c.Status(http.StatusNoContent)
}
