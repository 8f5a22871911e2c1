package v1

import (
	"net/http"
	"time"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterAchatRoutes registers the routes for achats.
func RegisterAchatRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetAchats)
	r.POST("", CreateAchat)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetAchat)
	r.PATCH("/:id", UpdateAchat)
	r.DELETE("/:id", DeleteAchat)

	r.POST("/:id/valider", ApproveAchat)
	r.POST("/:id/rejeter", RejectAchat)
	r.POST("/:id/commander", OrderAchat)
	r.POST("/:id/receptionner", ReceiveAchat)
	r.POST("/:id/facturer", InvoiceAchat)
	r.POST("/:id/rapprocher", ReconcileAchat)
}

// AchatResponse augments an achat with its derived amounts.
type AchatResponse struct {
	models.Achat
	MontantHT       decimal.Decimal `json:"montantHT"`
	MontantTVA      decimal.Decimal `json:"montantTVA"`
	MontantTTC      decimal.Decimal `json:"montantTTC"`
	MontantEffectif decimal.Decimal `json:"montantEffectif"`
}

func newAchatResponse(achat models.Achat) AchatResponse {
	return AchatResponse{
		Achat:           achat,
		MontantHT:       achat.MontantHT(),
		MontantTVA:      achat.MontantTVA(),
		MontantTTC:      achat.MontantTTC(),
		MontantEffectif: achat.MontantEffectif(),
	}
}

func GetAchats(c *gin.Context) {
	var achats []models.Achat

	query := models.DB.Order("created_at ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}
	if lot := c.Query("lot"); lot != "" {
		query = query.Where("lot_id = ?", lot)
	}
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	err := query.Find(&achats).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	responses := make([]AchatResponse, 0, len(achats))
	for _, achat := range achats {
		responses = append(responses, newAchatResponse(achat))
	}

	c.JSON(http.StatusOK, responses)
}

func CreateAchat(c *gin.Context) {
	data, ok := bindJSON[models.Achat](c)
	if !ok {
		return
	}

	achat, err := models.CreateAchat(models.DB, data)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "creation", achat.Libelle, acteur(c))
	detectAlerts(achat.ProjetID)
	c.JSON(http.StatusCreated, newAchatResponse(achat))
}

func GetAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func UpdateAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Achat](c)
	if !ok {
		return
	}

	achat.FournisseurID = update.FournisseurID
	achat.LotID = update.LotID
	achat.Libelle = update.Libelle
	achat.Quantite = update.Quantite
	achat.PrixUnitaire = update.PrixUnitaire
	achat.TauxTVA = update.TauxTVA

	err := models.DB.Save(&achat).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "modification", achat.Libelle, acteur(c))
	detectAlerts(achat.ProjetID)
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func DeleteAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&achat).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "suppression", achat.Libelle, acteur(c))
	detectAlerts(achat.ProjetID)
	c.Status(http.StatusNoContent)
}

func ApproveAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	err := achat.Approve(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "validation", achat.Libelle, acteur(c))
	detectAlerts(achat.ProjetID)
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func RejectAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	body, ok := bindJSON[struct {
		Motif string `json:"motif"`
	}](c)
	if !ok {
		return
	}

	err := achat.Reject(models.DB, body.Motif)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "rejet", body.Motif, acteur(c))
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func OrderAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	err := achat.Order(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "commande", achat.Libelle, acteur(c))
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func ReceiveAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	err := achat.Receive(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "reception", achat.Libelle, acteur(c))
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func InvoiceAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	body, ok := bindJSON[struct {
		RefFacture string `json:"refFacture"`
	}](c)
	if !ok {
		return
	}

	err := achat.Invoice(models.DB, body.RefFacture)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "facturation", body.RefFacture, acteur(c))
	detectAlerts(achat.ProjetID)
	c.JSON(http.StatusOK, newAchatResponse(achat))
}

func ReconcileAchat(c *gin.Context) {
	achat, ok := getResourceByID[models.Achat](c)
	if !ok {
		return
	}

	body, ok := bindJSON[struct {
		MontantReel decimal.Decimal `json:"montantReel"`
		DateFacture *time.Time      `json:"dateFacture"`
	}](c)
	if !ok {
		return
	}

	err := achat.Reconcile(models.DB, body.MontantReel, body.DateFacture)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "achat", achat.ID, "rapprochement", body.MontantReel.String(), acteur(c))
	detectAlerts(achat.ProjetID)
	c.JSON(http.StatusOK, newAchatResponse(achat))
}
