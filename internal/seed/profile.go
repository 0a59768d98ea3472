package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Department describes one top-level branch of the organization with its
// first-level sub-departments.
type Department struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	SubDepartments []string `yaml:"sub_departments"`
}

// Profile controls the shape and volume of generated data.
type Profile struct {
	RootName string `yaml:"root_name"`

	CompetenceCenters []Department `yaml:"competence_centers"`
	BusinessLines     []Department `yaml:"business_lines"`

	// DepthLevels is the number of recursive levels generated below the
	// first-level sub-departments; FanOut how many sub-departments each
	// level spawns.
	DepthLevels            int `yaml:"depth_levels"`
	FanOut                 int `yaml:"fan_out"`
	PositionsPerDepartment int `yaml:"positions_per_department"`

	Users int `yaml:"users"`
}

// DefaultProfile mirrors the matricial organization used for load testing:
// a root direction, three competence centers and four business lines.
func DefaultProfile() Profile {
	return Profile{
		RootName: "Direction Générale",
		CompetenceCenters: []Department{
			{
				Name:           "Direction Ingénierie",
				Description:    "Centre de compétences ingénierie",
				SubDepartments: []string{"Mécanique", "Électronique", "Logiciel"},
			},
			{
				Name:           "Direction Industrielle",
				Description:    "Centre de compétences industriel",
				SubDepartments: []string{"Industrialisation", "Production", "SAV"},
			},
			{
				Name:           "Direction Support",
				Description:    "Fonctions support",
				SubDepartments: []string{"Achats", "Ressources Humaines"},
			},
		},
		BusinessLines: []Department{
			{
				Name:           "Business Line Commerce",
				Description:    "Ligne métier commerce",
				SubDepartments: []string{"Ventes France", "Ventes Export"},
			},
			{
				Name:           "Business Line Affaires",
				Description:    "Ligne métier affaires",
				SubDepartments: []string{"Grands Comptes", "PME/ETI"},
			},
			{
				Name:           "Business Line Innovation",
				Description:    "Ligne métier innovation",
				SubDepartments: []string{"R&D Produits", "R&D Procédés"},
			},
			{
				Name:           "Business Line Services",
				Description:    "Ligne métier services",
				SubDepartments: []string{"Conseil", "Maintenance"},
			},
		},
		DepthLevels:            3,
		FanOut:                 3,
		PositionsPerDepartment: 5,
		Users:                  100,
	}
}

// LoadProfile reads a YAML profile; fields left out keep their defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}
