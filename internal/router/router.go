// Package router sets up the HTTP API surface: middlewares, metrics and
// the route tree.
package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/chantierflow/backend/internal/controllers/healthz"
	v1 "github.com/chantierflow/backend/internal/controllers/v1"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// This is set at build time, see Makefile.
var version = "0.0.0"

// Router controls the routes for the API.
func Router() (*gin.Engine, error) {
	// Set up the router and middlewares
	r := gin.New()

	// Don’t process X-Forwarded-For header as we do not do anything with
	// client IPs
	r.ForwardedByClientIP = false

	// Send a HTTP 405 (Method not allowed) for all paths where there is
	// a handler, but not for the specific method used
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(MetricsMiddleware())
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return log.Logger.With().
				Str("request-id", requestid.Get(c)).
				Logger()
		})))

	// CORS settings
	allowOrigins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS")
	if ok {
		log.Debug().Str("allowOrigins", allowOrigins).Msg("CORS")

		r.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Fields(allowOrigins),
			AllowMethods:     []string{"OPTIONS", "GET", "POST", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-Acteur"},
			AllowCredentials: true,
		}))
	}

	// Disable the gin debug route printing as it clutters logs (and test logs)
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}

	// Don’t trust any proxy. We do not process any client IPs,
	// therefore we don’t need to trust anyone here.
	_ = r.SetTrustedProxies([]string{})

	if err := registerPrometheusMetrics(); err != nil {
		return nil, err
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pprof.Register(r)

	/*
	 *  Route setup
	 */
	r.GET("", GetRoot)
	r.OPTIONS("", OptionsRoot)
	r.GET("/version", GetVersion)
	r.OPTIONS("/version", OptionsVersion)

	healthz.RegisterRoutes(r.Group("/healthz"))

	// API v1 setup
	group := r.Group("/v1")
	{
		group.GET("", GetV1)
		group.OPTIONS("", OptionsV1)
	}

	projets := group.Group("/projets")
	v1.RegisterProjetRoutes(projets)
	v1.RegisterRapportRoutes(projets)

	v1.RegisterBudgetRoutes(group.Group("/budgets"))
	v1.RegisterAvenantRoutes(group.Group("/avenants"))
	v1.RegisterDevisRoutes(group.Group("/devis"))
	v1.RegisterLotRoutes(group.Group("/lots"))
	v1.RegisterFournisseurRoutes(group.Group("/fournisseurs"))
	v1.RegisterAchatRoutes(group.Group("/achats"))
	v1.RegisterRegleAffectationRoutes(group.Group("/regles-affectation"))
	v1.RegisterSituationRoutes(group.Group("/situations"))
	v1.RegisterFactureRoutes(group.Group("/factures"))
	v1.RegisterAlerteRoutes(group.Group("/alertes"))
	v1.RegisterCoutMainOeuvreRoutes(group.Group("/couts-main-oeuvre"))
	v1.RegisterUtilisationMaterielRoutes(group.Group("/utilisations-materiel"))
	v1.RegisterJournalRoutes(group.Group("/journal"))

	log.Info().Msg("backend startup complete")

	return r, nil
}

type RootResponse struct {
	Links RootLinks `json:"links"`
}

type RootLinks struct {
	Healthz string `json:"healthz" example:"https://example.com/api/healthz"`
	Version string `json:"version" example:"https://example.com/api/version"`
	Metrics string `json:"metrics" example:"https://example.com/api/metrics"`
	V1      string `json:"v1" example:"https://example.com/api/v1"`
}

// GetRoot is the entrypoint for the API, listing all endpoints.
func GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Links: RootLinks{
			Healthz: "/healthz",
			Version: "/version",
			Metrics: "/metrics",
			V1:      "/v1",
		},
	})
}

type VersionResponse struct {
	Data VersionObject `json:"data"`
}

type VersionObject struct {
	Version string `json:"version" example:"1.1.0"`
}

// GetVersion returns the software version of the API.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Data: VersionObject{
			Version: version,
		},
	})
}

func OptionsRoot(c *gin.Context) {
	c.Header("allow", "GET")
	c.Status(http.StatusNoContent)
}

func OptionsVersion(c *gin.Context) {
	c.Header("allow", "GET")
	c.Status(http.StatusNoContent)
}

type V1Response struct {
	Links V1Links `json:"links"`
}

type V1Links struct {
	Projets      string `json:"projets" example:"https://example.com/api/v1/projets"`
	Budgets      string `json:"budgets" example:"https://example.com/api/v1/budgets"`
	Avenants     string `json:"avenants" example:"https://example.com/api/v1/avenants"`
	Devis        string `json:"devis" example:"https://example.com/api/v1/devis"`
	Lots         string `json:"lots" example:"https://example.com/api/v1/lots"`
	Fournisseurs string `json:"fournisseurs" example:"https://example.com/api/v1/fournisseurs"`
	Achats       string `json:"achats" example:"https://example.com/api/v1/achats"`
	Situations   string `json:"situations" example:"https://example.com/api/v1/situations"`
	Factures     string `json:"factures" example:"https://example.com/api/v1/factures"`
	Alertes      string `json:"alertes" example:"https://example.com/api/v1/alertes"`
	Journal      string `json:"journal" example:"https://example.com/api/v1/journal"`
}

// GetV1 returns general information about the v1 API.
func GetV1(c *gin.Context) {
	c.JSON(http.StatusOK, V1Response{
		Links: V1Links{
			Projets:      "/v1/projets",
			Budgets:      "/v1/budgets",
			Avenants:     "/v1/avenants",
			Devis:        "/v1/devis",
			Lots:         "/v1/lots",
			Fournisseurs: "/v1/fournisseurs",
			Achats:       "/v1/achats",
			Situations:   "/v1/situations",
			Factures:     "/v1/factures",
			Alertes:      "/v1/alertes",
			Journal:      "/v1/journal",
		},
	})
}

func OptionsV1(c *gin.Context) {
	c.Header("allow", "GET")
	c.Status(http.StatusNoContent)
}
