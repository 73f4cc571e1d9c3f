package challenge

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSeedFile fills the catalog from a JSON file holding an array of
// challenge documents. Used on startup before any catalog events arrive.
func LoadSeedFile(path string, catalog *Catalog) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var challenges []Challenge
	if err := json.Unmarshal(data, &challenges); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range challenges {
		catalog.Upsert(&challenges[i])
	}
	return len(challenges), nil
}
