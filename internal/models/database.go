package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DB is the database used by the backend.
var DB *gorm.DB

// uniqueConstraintErrors maps SQLite unique-constraint failures to the
// domain conflict error for the index, see createUpdateCallback.
var uniqueConstraintErrors = map[string]error{
	"budgets.projet_id":         ErrBudgetExisteDeja,
	"fournisseurs.siret":        ErrSIRETNotUnique,
	"lots.budget_id, lots.code": ErrLotCodeNotUnique,
	"regle_affectations.motif":  ErrMotifRegleNotUnique,
	"factures.situation_id":     ErrSituationDejaFacturee,
}

// Connect opens the SQLite database and configures the connection pool.
func Connect(dsn string) error {
	config := &gorm.Config{
		Logger: &logger{
			Logger: log.Logger,
		},
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
	}

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// A single connection prevents SQLITE_BUSY errors and serializes
	// writers, which the yearly numbering sequences rely on.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	err = db.Callback().Query().After("*").Register("chantierflow:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("chantierflow:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("chantierflow:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("chantierflow:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("chantierflow:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("chantierflow:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Delete().After("*").Register("chantierflow:after_delete_general", generalCallback)
	if err != nil {
		return err
	}

	DB = db

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one naming the resource.
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for
// create and update calls and replaces them with domain conflict errors.
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	for index, domainErr := range uniqueConstraintErrors {
		if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: "+index) {
			db.Error = domainErr
			return
		}
	}
}

// generalCallback collapses driver errors we cannot translate for the
// user into a general error, after logging them for the server admin.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral
	}
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		Projet{},
		Budget{},
		Avenant{},
		Devis{},
		Lot{},
		Fournisseur{},
		Achat{},
		RegleAffectation{},
		Situation{},
		LigneSituation{},
		Facture{},
		Alerte{},
		CoutMainOeuvre{},
		UtilisationMateriel{},
		Journal{},
		NumberingSequence{},
	)
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
