package v1

import (
	"net/http"

	"github.com/chantierflow/backend/internal/httperror"
	"github.com/chantierflow/backend/internal/httputil"
	"github.com/chantierflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterBudgetRoutes registers the routes for budgets.
func RegisterBudgetRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGetPost)
	r.GET("", GetBudgets)
	r.POST("", CreateBudget)

	r.OPTIONS("/:id", httputil.OptionsGetPatchDelete)
	r.GET("/:id", GetBudget)
	r.PATCH("/:id", UpdateBudget)
	r.DELETE("/:id", DeleteBudget)
}

func GetBudgets(c *gin.Context) {
	var budgets []models.Budget

	query := models.DB.Order("created_at ASC")
	if projet := c.Query("projet"); projet != "" {
		query = query.Where("projet_id = ?", projet)
	}

	err := query.Find(&budgets).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, budgets)
}

func CreateBudget(c *gin.Context) {
	budget, ok := bindJSON[models.Budget](c)
	if !ok {
		return
	}

	err := models.DB.Create(&budget).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "budget", budget.ID, "creation", budget.MontantInitial.String(), acteur(c))
	c.JSON(http.StatusCreated, budget)
}

func GetBudget(c *gin.Context) {
	budget, ok := getResourceByID[models.Budget](c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, budget)
}

func UpdateBudget(c *gin.Context) {
	budget, ok := getResourceByID[models.Budget](c)
	if !ok {
		return
	}

	update, ok := bindJSON[models.Budget](c)
	if !ok {
		return
	}

	budget.MontantInitial = update.MontantInitial
	budget.RetenueGarantiePct = update.RetenueGarantiePct
	budget.SeuilAlertePct = update.SeuilAlertePct
	budget.SeuilValidationAchat = update.SeuilValidationAchat

	err := models.DB.Save(&budget).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "budget", budget.ID, "modification", budget.MontantRevise().String(), acteur(c))
	c.JSON(http.StatusOK, budget)
}

func DeleteBudget(c *gin.Context) {
	budget, ok := getResourceByID[models.Budget](c)
	if !ok {
		return
	}

	err := models.DB.Delete(&budget).Error
	if err != nil {
		c.JSON(httputil.Status(err), httperror.New(err))
		return
	}

	models.RecordJournal(models.DB, "budget", budget.ID, "suppression", "", acteur(c))
	c.Status(http.StatusNoContent)
}
