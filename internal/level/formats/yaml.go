// Package formats provides the level file parsers. Each format decodes into
// Document, the one structure the loader validates and builds levels from.
package formats

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a level.
type Document struct {
	ID                string            `yaml:"id" json:"id" jsonschema:"required,pattern=^[a-z0-9-]+$,description=Stable level identifier"`
	Name              string            `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Objective         string            `yaml:"objective,omitempty" json:"objective,omitempty" jsonschema:"description=Text shown to the player"`
	Goal              string            `yaml:"goal,omitempty" json:"goal,omitempty" jsonschema:"enum=goal,enum=none,description=Win condition kind (default goal)"`
	Size              Size              `yaml:"size" json:"size" jsonschema:"required"`
	Starts            []Start           `yaml:"starts" json:"starts" jsonschema:"required,minItems=1,description=Player start variants"`
	Obstacles         []Cell            `yaml:"obstacles,omitempty" json:"obstacles,omitempty"`
	Goals             []Cell            `yaml:"goals,omitempty" json:"goals,omitempty"`
	EnergyCells       []EnergyCell      `yaml:"energy_cells,omitempty" json:"energy_cells,omitempty"`
	Enemies           []Enemy           `yaml:"enemies,omitempty" json:"enemies,omitempty"`
	Hazards           []Hazard          `yaml:"hazards,omitempty" json:"hazards,omitempty"`
	Terminals         []Terminal        `yaml:"terminals,omitempty" json:"terminals,omitempty"`
	Gates             []Gate            `yaml:"gates,omitempty" json:"gates,omitempty"`
	Buttons           []Button          `yaml:"buttons,omitempty" json:"buttons,omitempty"`
	Crates            []Cell            `yaml:"crates,omitempty" json:"crates,omitempty"`
	DisabledFunctions []string          `yaml:"disabled_functions,omitempty" json:"disabled_functions,omitempty"`
	Metadata          map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Size is the grid dimensions.
type Size struct {
	W int `yaml:"w" json:"w" jsonschema:"required,minimum=1,maximum=64"`
	H int `yaml:"h" json:"h" jsonschema:"required,minimum=1,maximum=64"`
}

// Cell is a bare position.
type Cell struct {
	X int `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y int `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
}

// Start is one player start variant.
type Start struct {
	X      int    `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y      int    `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Facing string `yaml:"facing,omitempty" json:"facing,omitempty" jsonschema:"enum=up,enum=right,enum=down,enum=left"`
	Energy int    `yaml:"energy" json:"energy" jsonschema:"required,minimum=0"`
}

// EnergyCell is a one-time energy pickup.
type EnergyCell struct {
	X      int `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y      int `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Amount int `yaml:"amount" json:"amount" jsonschema:"required,minimum=1"`
}

// Enemy is a chasing enemy.
type Enemy struct {
	X      int    `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y      int    `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Facing string `yaml:"facing,omitempty" json:"facing,omitempty" jsonschema:"enum=up,enum=right,enum=down,enum=left"`
}

// Hazard is a timed hazard cell. Period 0 keeps it always on.
type Hazard struct {
	X      int `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y      int `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Period int `yaml:"period,omitempty" json:"period,omitempty" jsonschema:"minimum=0"`
	Offset int `yaml:"offset,omitempty" json:"offset,omitempty" jsonschema:"minimum=0"`
}

// Terminal is a data terminal.
type Terminal struct {
	X    int    `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y    int    `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Data string `yaml:"data" json:"data" jsonschema:"required"`
}

// Gate is a door, optionally opened by a spoken password.
type Gate struct {
	X        int    `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y        int    `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Open     bool   `yaml:"open,omitempty" json:"open,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Button toggles the gate with index Gate.
type Button struct {
	X    int `yaml:"x" json:"x" jsonschema:"required,minimum=0"`
	Y    int `yaml:"y" json:"y" jsonschema:"required,minimum=0"`
	Gate int `yaml:"gate" json:"gate" jsonschema:"required,minimum=0"`
}

// ParseYAML decodes a YAML level document.
func ParseYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if doc.Goal == "" {
		doc.Goal = "goal"
	}
	return doc, nil
}

// YAMLToJSONValue decodes YAML into the generic value tree a JSON decoder
// would produce (maps, slices, float64, string, bool, nil).
func YAMLToJSONValue(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("yaml to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("yaml to json: %w", err)
	}
	return v, nil
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}
