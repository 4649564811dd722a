package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/platewise/platewise/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// stageTableSchema constrains operator-supplied stage tables before they
// reach the engine: every stage needs an identifier, a title, and a strictly
// positive duration.
const stageTableSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["id", "title", "duration_seconds"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"duration_seconds": {"type": "number", "exclusiveMinimum": 0},
			"icon": {"type": "string"}
		},
		"additionalProperties": false
	}
}`

// LoadStageTable reads a stage table from a JSON file. An empty path returns
// the built-in table.
func LoadStageTable(path string) (models.StageTable, error) {
	if path == "" {
		return models.DefaultStageTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage table %s: %w", path, err)
	}

	if err := validateStageTableJSON(data); err != nil {
		return nil, fmt.Errorf("invalid stage table %s: %w", path, err)
	}

	var table models.StageTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse stage table %s: %w", path, err)
	}

	return table, nil
}

func validateStageTableJSON(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(stageTableSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, resultError := range result.Errors() {
			errors = append(errors, resultError.String())
		}

		return fmt.Errorf("JSON schema validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
