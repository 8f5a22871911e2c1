package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterFournisseurRoutes registers the routes for fournisseurs.
func RegisterFournisseurRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetFournisseurs)
	r.POST("", CreateFournisseur)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetFournisseur)
	r.PATCH("/:id", UpdateFournisseur)
	r.DELETE("/:id", DeleteFournisseur)
}

func GetFournisseurs(c *gin.Context) {
	var fournisseurs []models.Fournisseur

	err := models.DB.Order("nom ASC").Find(&fournisseurs).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, fournisseurs)
}

// FournisseurCreate is the create payload. Actif is a pointer so that
// an absent field defaults to active.
type FournisseurCreate struct {
	Nom          string `json:"nom"`
	SIRET        string `json:"siret"`
	SousTraitant bool   `json:"sousTraitant"`
	Actif        *bool  `json:"actif"`
	Contact      string `json:"contact"`
}

func CreateFournisseur(c *gin.Context) {
	data, ok := bindJSON[FournisseurCreate](c)
	if !ok {
		return
	}

	fournisseur := models.Fournisseur{
		Nom:          data.Nom,
		SIRET:        data.SIRET,
		SousTraitant: data.SousTraitant,
		Actif:        data.Actif == nil || *data.Actif,
		Contact:      data.Contact,
	}

	err := models.DB.Create(&fournisseur).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "fournisseur", fournisseur.ID, "creation", fournisseur.Nom, acteur(c))
	c.JSON(http.StatusCreated, fournisseur)
}

func GetFournisseur(c *gin.Context) {
	fournisseur, ok := getResourceByID[models.Fournisseur](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, fournisseur)
}

func UpdateFournisseur(c *gin.Context) {
	fournisseur, ok := getResourceByID[models.Fournisseur](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Fournisseur](c)
	if !ok {
		return
	}

	fournisseur.Nom = update.Nom
	fournisseur.SIRET = update.SIRET
	fournisseur.SousTraitant = update.SousTraitant
	fournisseur.Actif = update.Actif
	fournisseur.Contact = update.Contact

	err := models.DB.Save(&fournisseur).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "fournisseur", fournisseur.ID, "modification", fournisseur.Nom, acteur(c))
	c.JSON(http.StatusOK, fournisseur)
}

func DeleteFournisseur(c *gin.Context) {
	fournisseur, ok := getResourceByID[models.Fournisseur](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&fournisseur).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "fournisseur", fournisseur.ID, "suppression", fournisseur.Nom, acteur(c))
	c.Status(http.StatusNoContent)
}
