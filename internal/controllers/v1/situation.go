package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/chantierflow/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterSituationRoutes registers the routes for situations.
func RegisterSituationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetSituations)
	r.POST("", CreateSituation)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetSituation)
	r.PATCH("/:id", UpdateSituation)
	r.DELETE("/:id", DeleteSituation)

	r.POST("/:id/soumettre", SubmitSituation)
	r.POST("/:id/valider", ValidateSituation)
	r.POST("/:id/valider-client", ValidateSituationByClient)
	r.POST("/:id/facturer", InvoiceSituation)
}

// SituationCreate is the create payload: the header fields plus the
// progress percentage per lot.
type SituationCreate struct {
	ProjetID           uuid.UUID                     `json:"projetId"`
	BudgetID           uuid.UUID                     `json:"budgetId"`
	PeriodeDebut       types.Month                   `json:"periodeDebut"`
	PeriodeFin         types.Month                   `json:"periodeFin"`
	RetenueGarantiePct decimal.Decimal               `json:"retenueGarantiePct"`
	TauxTVA            decimal.Decimal               `json:"tauxTVA"`
	Avancements        map[uuid.UUID]decimal.Decimal `json:"avancements"`
}

func GetSituations(c *gin.Context) {
	var situations []models.Situation

	query := models.DB.Preload("Lignes").Order("created_at ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}

	err := query.Find(&situations).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, situations)
}

func CreateSituation(c *gin.Context) {
	data, ok := bindJSON[SituationCreate](c)
	if !ok {
		return
	}

	situation, err := models.CreateSituation(models.DB, models.Situation{
		ProjetID:           data.ProjetID,
		BudgetID:           data.BudgetID,
		PeriodeDebut:       data.PeriodeDebut,
		PeriodeFin:         data.PeriodeFin,
		RetenueGarantiePct: data.RetenueGarantiePct,
		TauxTVA:            data.TauxTVA,
	}, data.Avancements)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "creation", situation.Numero, acteur(c))
	c.JSON(http.StatusCreated, situation)
}

func getSituationWithLignes(c *gin.Context) (models.Situation, bool) {
	var situation models.Situation

	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return situation, false
	}

	err = models.DB.Preload("Lignes").First(&situation, "id = ?", uri.ID).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return situation, false
	}

	return situation, true
}

func GetSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, situation)
}

func UpdateSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	body, ok := bindJSON[struct {
		Avancements map[uuid.UUID]decimal.Decimal `json:"avancements"`
	}](c)
	if !ok {
		return
	}

	err := situation.UpdateProgress(models.DB, body.Avancements)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "modification", situation.Numero, acteur(c))
	c.JSON(http.StatusOK, situation)
}

func DeleteSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	err := models.DeleteSituation(models.DB, &situation)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "suppression", situation.Numero, acteur(c))
	c.Status(http.StatusNoContent)
}

func SubmitSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	err := situation.Submit(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "soumission", situation.Numero, acteur(c))
	c.JSON(http.StatusOK, situation)
}

func ValidateSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	err := situation.Validate(models.DB, acteur(c))
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "validation", situation.Numero, acteur(c))
	c.JSON(http.StatusOK, situation)
}

func ValidateSituationByClient(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	err := situation.ValidateByClient(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "situation", situation.ID, "validation_client", situation.Numero, acteur(c))
	c.JSON(http.StatusOK, situation)
}

// InvoiceSituation converts a client-validated situation into a
// facture.
func InvoiceSituation(c *gin.Context) {
	situation, ok := getSituationWithLignes(c)
	if !ok {
		return
	}

	facture, err := models.CreateFactureFromSituation(models.DB, situation)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "creation", facture.Numero, acteur(c))
	c.JSON(http.StatusCreated, facture)
}
