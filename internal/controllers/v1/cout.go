package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterCoutMainOeuvreRoutes registers the routes for labor cost
// entries.
func RegisterCoutMainOeuvreRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetCoutsMainOeuvre)
	r.POST("", CreateCoutMainOeuvre)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetCoutMainOeuvre)
	r.DELETE("/:id", DeleteCoutMainOeuvre)
}

// RegisterUtilisationMaterielRoutes registers the routes for equipment
// usage entries.
func RegisterUtilisationMaterielRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetUtilisationsMateriel)
	r.POST("", CreateUtilisationMateriel)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetUtilisationMateriel)
	r.DELETE("/:id", DeleteUtilisationMateriel)
}

// CoutMainOeuvreResponse adds the derived amount to a labor entry.
type CoutMainOeuvreResponse struct {
	models.CoutMainOeuvre
	Montant decimal.Decimal `json:"montant"`
}

func newCoutMainOeuvreResponse(cout models.CoutMainOeuvre) CoutMainOeuvreResponse {
	return CoutMainOeuvreResponse{CoutMainOeuvre: cout, Montant: cout.Montant()}
}

func GetCoutsMainOeuvre(c *gin.Context) {
	var couts []models.CoutMainOeuvre

	query := models.DB.Order("date ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}

	err := query.Find(&couts).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	responses := make([]CoutMainOeuvreResponse, 0, len(couts))
	for _, cout := range couts {
		responses = append(responses, newCoutMainOeuvreResponse(cout))
	}

	c.JSON(http.StatusOK, responses)
}

func CreateCoutMainOeuvre(c *gin.Context) {
	cout, ok := bindJSON[models.CoutMainOeuvre](c)
	if !ok {
		return
	}

	err := models.DB.Create(&cout).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "cout_main_oeuvre", cout.ID, "creation", cout.Libelle, acteur(c))
	detectAlerts(cout.ProjetID)
	c.JSON(http.StatusCreated, newCoutMainOeuvreResponse(cout))
}

func GetCoutMainOeuvre(c *gin.Context) {
	cout, ok := getResourceByID[models.CoutMainOeuvre](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newCoutMainOeuvreResponse(cout))
}

func DeleteCoutMainOeuvre(c *gin.Context) {
	cout, ok := getResourceByID[models.CoutMainOeuvre](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&cout).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "cout_main_oeuvre", cout.ID, "suppression", cout.Libelle, acteur(c))
	detectAlerts(cout.ProjetID)
	c.Status(http.StatusNoContent)
}

func GetUtilisationsMateriel(c *gin.Context) {
	var utilisations []models.UtilisationMateriel

	query := models.DB.Order("date ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}

	err := query.Find(&utilisations).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, utilisations)
}

func CreateUtilisationMateriel(c *gin.Context) {
	utilisation, ok := bindJSON[models.UtilisationMateriel](c)
	if !ok {
		return
	}

	err := models.DB.Create(&utilisation).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "utilisation_materiel", utilisation.ID, "creation", utilisation.Libelle, acteur(c))
	detectAlerts(utilisation.ProjetID)
	c.JSON(http.StatusCreated, utilisation)
}

func GetUtilisationMateriel(c *gin.Context) {
	utilisation, ok := getResourceByID[models.UtilisationMateriel](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, utilisation)
}

func DeleteUtilisationMateriel(c *gin.Context) {
	utilisation, ok := getResourceByID[models.UtilisationMateriel](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&utilisation).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "utilisation_materiel", utilisation.ID, "suppression", utilisation.Libelle, acteur(c))
	detectAlerts(utilisation.ProjetID)
	c.Status(http.StatusNoContent)
}
