package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjetStatutOuvert = "ouvert"
	ProjetStatutFerme  = "ferme"
)

// Projet is the minimal project record the financial backend needs:
// a display name and a lifecycle status. Everything else about projects
// lives elsewhere.
type Projet struct {
	DefaultModel
	Nom    string `json:"nom"`
	Statut string `json:"statut"`
}

func (p *Projet) BeforeSave(_ *gorm.DB) error {
	p.Nom = strings.TrimSpace(p.Nom)
	if p.Nom == "" {
		return FieldError{Field: "nom", Message: "must not be empty"}
	}

	if p.Statut == "" {
		p.Statut = ProjetStatutOuvert
	}

	if p.Statut != ProjetStatutOuvert && p.Statut != ProjetStatutFerme {
		return FieldError{Field: "statut", Message: "must be ouvert or ferme"}
	}

	return nil
}

// ProjetInfo is the read-only project lookup used to decide whether a
// derived report is final.
type ProjetInfo struct {
	Nom    string `json:"nom"`
	Ouvert bool   `json:"ouvert"`
}

// LookupProjet returns the display information for a project.
func LookupProjet(db *gorm.DB, id uuid.UUID) (ProjetInfo, error) {
	var projet Projet

	err := db.First(&projet, "id = ?", id).Error
	if err != nil {
		return ProjetInfo{}, err
	}

	return ProjetInfo{
		Nom:    projet.Nom,
		Ouvert: projet.Statut == ProjetStatutOuvert,
	}, nil
}
