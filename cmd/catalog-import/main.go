// catalog-import copies room templates between a catalog YAML file and the
// template database named in the generator config.
//
// Usage:
//
//	go run ./cmd/catalog-import \
//	    -config data/roomforge.yaml \
//	    -catalog data/catalog.yaml \
//	    -replace
//
//	go run ./cmd/catalog-import -export data/exported.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lawnchairsociety/roomforge/internal/catalog"
	"github.com/lawnchairsociety/roomforge/internal/config"
	"github.com/lawnchairsociety/roomforge/internal/database"
	"github.com/lawnchairsociety/roomforge/internal/room"
	"gopkg.in/yaml.v3"
)

func main() {
	configFile := flag.String("config", "data/roomforge.yaml", "Path to generator config YAML file")
	catalogFile := flag.String("catalog", "data/catalog.yaml", "Path to room catalog YAML file to import")
	replace := flag.Bool("replace", false, "Delete every stored template before importing")
	exportFile := flag.String("export", "", "Write the stored templates to this YAML file instead of importing")
	dryRun := flag.Bool("dry-run", false, "Show what would be imported without making changes")
	flag.Parse()

	log.Println("Room Catalog Import Tool")
	log.Println("========================")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbCfg := database.ConfigFrom(cfg.Database)
	if dbCfg.Driver == string(database.DialectPostgres) {
		log.Printf("Opening PostgreSQL database: %s@%s:%d/%s",
			dbCfg.Postgres.User, dbCfg.Postgres.Host, dbCfg.Postgres.Port, dbCfg.Postgres.Database)
	} else {
		log.Printf("Opening SQLite database: %s", dbCfg.SQLitePath)
	}
	db, err := database.OpenWithConfig(dbCfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *exportFile != "" {
		count, err := export(db, *exportFile)
		if err != nil {
			log.Fatalf("Failed to export templates: %v", err)
		}
		log.Printf("Exported %d templates to %s", count, *exportFile)
		return
	}

	cat, err := catalog.LoadFromYAML(*catalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	templates := cat.Templates()
	log.Printf("Loaded %d templates from %s", len(templates), *catalogFile)

	existing, err := db.CountTemplates()
	if err != nil {
		log.Fatalf("Failed to count stored templates: %v", err)
	}

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
		if *replace {
			log.Printf("  Would delete %d stored templates", existing)
		}
		for _, t := range templates {
			log.Printf("  Would import %s (%s)", t.ID, t.Doorways)
		}
		return
	}

	if *replace {
		if err := db.DeleteAllTemplates(); err != nil {
			log.Fatalf("Failed to clear stored templates: %v", err)
		}
		log.Printf("Deleted %d stored templates", existing)
	}

	if err := db.SaveTemplates(templates); err != nil {
		log.Fatalf("Failed to import templates: %v", err)
	}

	total, err := db.CountTemplates()
	if err != nil {
		log.Fatalf("Failed to count stored templates: %v", err)
	}
	log.Println("========================")
	log.Printf("Import complete! %d templates imported, %d stored", len(templates), total)
}

// export writes every stored template to path in the catalog YAML format.
func export(db *database.Database, path string) (int, error) {
	stored, err := db.LoadTemplates()
	if err != nil {
		return 0, err
	}

	templates := make([]room.Template, len(stored))
	for i, st := range stored {
		templates[i] = st.Template
	}
	if _, err := catalog.New(templates); err != nil {
		return 0, fmt.Errorf("stored templates do not form a valid catalog: %w", err)
	}

	file := catalog.CatalogFile{Templates: make([]catalog.TemplateDefinition, len(templates))}
	for i, t := range templates {
		file.Templates[i] = catalog.DefinitionFromTemplate(t)
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, err
	}
	return len(templates), nil
}
