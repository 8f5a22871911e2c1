package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterLotRoutes registers the routes for lots.
func RegisterLotRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetLots)
	r.POST("", CreateLot)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetLot)
	r.PATCH("/:id", UpdateLot)
	r.DELETE("/:id", DeleteLot)
}

// LotResponse augments a lot with its derived amounts.
type LotResponse struct {
	models.Lot
	MontantPrevu decimal.Decimal  `json:"montantPrevu"`
	CoutTotal    decimal.Decimal  `json:"coutTotal"`
	PrixVente    *decimal.Decimal `json:"prixVente"`
}

func newLotResponse(lot models.Lot) LotResponse {
	response := LotResponse{
		Lot:          lot,
		MontantPrevu: lot.MontantPrevu(),
		CoutTotal:    lot.CoutTotal(),
	}

	if prix, ok := lot.PrixVente(); ok {
		response.PrixVente = &prix
	}

	return response
}

func GetLots(c *gin.Context) {
	var lots []models.Lot

	query := models.DB.Order("code ASC")
	if budget := c.Query("budget"); budget != "" {
		query = query.Where("budget_id = ?", budget)
	}
	if devis := c.Query("devis"); devis != "" {
		query = query.Where("devis_id = ?", devis)
	}

	err := query.Find(&lots).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	responses := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		responses = append(responses, newLotResponse(lot))
	}

	c.JSON(http.StatusOK, responses)
}

func CreateLot(c *gin.Context) {
	lot, ok := bindJSON[models.Lot](c)
	if !ok {
		return
	}

	err := models.DB.Create(&lot).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "lot", lot.ID, "creation", lot.Code, acteur(c))
	c.JSON(http.StatusCreated, newLotResponse(lot))
}

func GetLot(c *gin.Context) {
	lot, ok := getResourceByID[models.Lot](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newLotResponse(lot))
}

func UpdateLot(c *gin.Context) {
	lot, ok := getResourceByID[models.Lot](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Lot](c)
	if !ok {
		return
	}

	lot.Code = update.Code
	lot.Libelle = update.Libelle
	lot.ParentID = update.ParentID
	lot.Quantite = update.Quantite
	lot.PrixUnitaire = update.PrixUnitaire
	lot.CoutMainOeuvre = update.CoutMainOeuvre
	lot.CoutMateriaux = update.CoutMateriaux
	lot.CoutSousTraitance = update.CoutSousTraitance
	lot.CoutMateriel = update.CoutMateriel
	lot.CoutAutres = update.CoutAutres
	lot.MargePct = update.MargePct

	err := models.DB.Save(&lot).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "lot", lot.ID, "modification", lot.Code, acteur(c))
	c.JSON(http.StatusOK, newLotResponse(lot))
}

func DeleteLot(c *gin.Context) {
	lot, ok := getResourceByID[models.Lot](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&lot).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "lot", lot.ID, "suppression", lot.Code, acteur(c))
	c.Status(http.StatusNoContent)
}
