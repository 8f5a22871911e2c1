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

// RegisterFactureRoutes registers the routes for factures.
func RegisterFactureRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetFactures)
	r.POST("", CreateFacture)

	r.OPTIONS("/:id", httputil.OptionsGet)
	r.GET("/:id", GetFacture)

	r.POST("/:id/emettre", IssueFacture)
	r.POST("/:id/envoyer", SendFacture)
	r.POST("/:id/payer", PayFacture)
	r.POST("/:id/annuler", CancelFacture)
	r.POST("/:id/encaissements", RecordFactureCollection)
}

func GetFactures(c *gin.Context) {
	var factures []models.Facture

	query := models.DB.Order("numero ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	err := query.Find(&factures).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, factures)
}

// CreateFacture creates a standalone facture (deposit). Factures for
// situations are created through the situation's facturer endpoint.
func CreateFacture(c *gin.Context) {
	data, ok := bindJSON[models.Facture](c)
	if !ok {
		return
	}

	// The situation link is reserved for the conversion workflow
	data.SituationID = nil

	facture, err := models.CreateFacture(models.DB, data)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "creation", facture.Numero, acteur(c))
	c.JSON(http.StatusCreated, facture)
}

func GetFacture(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, facture)
}

func IssueFacture(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	err := facture.Issue(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "emission", facture.Numero, acteur(c))
	c.JSON(http.StatusOK, facture)
}

func SendFacture(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	err := facture.Send(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "envoi", facture.Numero, acteur(c))
	c.JSON(http.StatusOK, facture)
}

func PayFacture(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	err := facture.MarkPaid(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "paiement", facture.Numero, acteur(c))
	c.JSON(http.StatusOK, facture)
}

func CancelFacture(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	err := facture.Cancel(models.DB)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "annulation", facture.Numero, acteur(c))
	c.JSON(http.StatusOK, facture)
}

// RecordFactureCollection records a collected amount reported by the
// external ledger synchronization.
func RecordFactureCollection(c *gin.Context) {
	facture, ok := getResourceByID[models.Facture](c)
	if !ok {
		return
	}

	body, ok := bindJSON[struct {
		Montant decimal.Decimal `json:"montant"`
		Date    *time.Time      `json:"date"`
	}](c)
	if !ok {
		return
	}

	err := facture.RecordCollection(models.DB, body.Montant, body.Date)
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "facture", facture.ID, "encaissement", body.Montant.String(), acteur(c))
	c.JSON(http.StatusOK, facture)
}
