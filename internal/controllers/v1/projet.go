package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterProjetRoutes registers the routes for projets.
func RegisterProjetRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetProjets)
	r.POST("", CreateProjet)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetProjet)
	r.PATCH("/:id", UpdateProjet)
}

func GetProjets(c *gin.Context) {
	var projets []models.Projet

	err := models.DB.Order("created_at ASC").Find(&projets).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, projets)
}

func CreateProjet(c *gin.Context) {
	projet, ok := bindJSON[models.Projet](c)
	if !ok {
		return
	}

	err := models.DB.Create(&projet).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "projet", projet.ID, "creation", projet.Nom, acteur(c))
	c.JSON(http.StatusCreated, projet)
}

func GetProjet(c *gin.Context) {
	projet, ok := getResourceByID[models.Projet](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, projet)
}

func UpdateProjet(c *gin.Context) {
	projet, ok := getResourceByID[models.Projet](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Projet](c)
	if !ok {
		return
	}

	projet.Nom = update.Nom
	projet.Statut = update.Statut

	err := models.DB.Save(&projet).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "projet", projet.ID, "modification", projet.Nom, acteur(c))
	c.JSON(http.StatusOK, projet)
}
