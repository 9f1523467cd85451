package plantstore

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

//go:embed seeddata/plants.yaml
var seedData []byte

// SeedPlants returns the built-in demo dataset used when neither the
// backend nor a stored snapshot can provide data.
func SeedPlants() ([]types.Plant, error) {
	var plants []types.Plant

	err := yaml.Unmarshal(seedData, &plants)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed data: %w", err)
	}

	return plants, nil
}
