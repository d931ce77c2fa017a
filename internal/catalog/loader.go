package catalog

import (
	"fmt"
	"os"

	"github.com/lawnchairsociety/roomforge/internal/room"
	"gopkg.in/yaml.v3"
)

// TemplateDefinition represents a room template in the YAML file.
type TemplateDefinition struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Doorways     []string `yaml:"doorways"`
	DoorwayCount *int     `yaml:"doorway_count,omitempty"` // derived from doorways when omitted
}

// CatalogFile represents the structure of a catalog YAML file.
type CatalogFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// LoadFromYAML loads a catalog from a YAML file.
func LoadFromYAML(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse builds a catalog from YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	templates := make([]room.Template, 0, len(file.Templates))
	for i, def := range file.Templates {
		t, err := CreateTemplateFromDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		templates = append(templates, t)
	}

	return New(templates)
}

// CreateTemplateFromDefinition converts a YAML definition to a Template.
func CreateTemplateFromDefinition(def TemplateDefinition) (room.Template, error) {
	t := room.Template{
		ID:   def.ID,
		Name: def.Name,
	}
	if t.Name == "" {
		t.Name = def.ID
	}

	for _, side := range def.Doorways {
		d, err := room.ParseDirection(side)
		if err != nil {
			return room.Template{}, err
		}
		if t.Doorways.Has(d) {
			return room.Template{}, fmt.Errorf("doorway %s listed twice", d)
		}
		t.Doorways.Set(d, true)
	}

	if def.DoorwayCount != nil {
		t.DoorwayCount = *def.DoorwayCount
	} else {
		t.DoorwayCount = t.Doorways.Count()
	}

	return t, nil
}

// DefinitionFromTemplate converts a Template back to its YAML definition.
func DefinitionFromTemplate(t room.Template) TemplateDefinition {
	def := TemplateDefinition{ID: t.ID, Name: t.Name}
	for _, d := range t.Doorways.Sides() {
		def.Doorways = append(def.Doorways, d.String())
	}
	count := t.DoorwayCount
	def.DoorwayCount = &count
	return def
}
