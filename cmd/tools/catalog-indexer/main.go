// cmd/tools/catalog-indexer/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"edupath-ksa/internal/common/config"
	"edupath-ksa/internal/common/database"
	"edupath-ksa/internal/recommender"
	"edupath-ksa/internal/search"
)

func main() {
	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)

	// Index command flags
	configPath := indexCmd.String("config", "", "Path to config file (default: configs/config.yaml lookup)")
	indexCatalog := indexCmd.String("catalog", "", "Catalog JSON to index (default: recommender.catalog_path or built-in)")
	indexName := indexCmd.String("index", "", "Elasticsearch index (default: database.elasticsearch.index)")

	// Validate command flags
	validatePath := validateCmd.String("path", "configs/catalog.json", "Path to catalog file")

	// Dump command flags
	dumpOut := dumpCmd.String("out", "", "Output file (default: stdout)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "index":
		indexCmd.Parse(os.Args[2:])
		n, err := runIndex(*configPath, *indexCatalog, *indexName)
		if err != nil {
			fmt.Printf("Error indexing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d documents.\n", n)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		c, err := validateCatalog(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed: %d universities, %d majors.\n", len(c.Universities), c.MajorCount())

	case "dump":
		dumpCmd.Parse(os.Args[2:])
		var w io.Writer = os.Stdout
		if *dumpOut != "" {
			f, err := os.Create(*dumpOut)
			if err != nil {
				fmt.Printf("Error creating %s: %v\n", *dumpOut, err)
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err := dumpCatalog(w, recommender.DefaultCatalog()); err != nil {
			fmt.Printf("Error writing catalog: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func runIndex(configPath, catalogPath, indexName string) (int, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}

	if catalogPath == "" {
		catalogPath = cfg.Recommender.CatalogPath
	}
	if indexName == "" {
		indexName = cfg.Database.Elasticsearch.Index
	}

	catalog, err := recommender.LoadCatalog(catalogPath)
	if err != nil {
		return 0, err
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := es.Ping(ctx); err != nil {
		return 0, err
	}
	return indexCatalog(ctx, search.NewESIndex(es.Client, indexName), catalog)
}

// catalogIndex is the part of search.ESIndex the indexer drives.
type catalogIndex interface {
	EnsureIndex(ctx context.Context) error
	IndexDocuments(ctx context.Context, docs []search.Document) (int, error)
}

func indexCatalog(ctx context.Context, index catalogIndex, catalog *recommender.Catalog) (int, error) {
	if err := index.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}
	return index.IndexDocuments(ctx, search.Documents(catalog))
}

// validateCatalog checks the file against the catalog schema, then rejects
// duplicate universities and duplicate majors within a university.
func validateCatalog(path string) (*recommender.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	c, err := recommender.ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	if len(c.Universities) == 0 {
		return nil, fmt.Errorf("catalog contains no universities")
	}

	names := make(map[string]bool)
	for _, u := range c.Universities {
		if names[u.Name] {
			return nil, fmt.Errorf("duplicate university: %s", u.Name)
		}
		names[u.Name] = true

		majors := make(map[string]bool)
		for _, m := range u.Majors {
			if majors[m.Name] {
				return nil, fmt.Errorf("duplicate major %q at %s", m.Name, u.Name)
			}
			majors[m.Name] = true
		}
	}
	return c, nil
}

func dumpCatalog(w io.Writer, c *recommender.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(c)
}

func help() {
	fmt.Println("Usage: catalog-indexer <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  index     Push the university catalog into Elasticsearch")
	fmt.Println("  validate  Validate a catalog JSON file")
	fmt.Println("  dump      Write the built-in catalog as JSON")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  catalog-indexer index -config configs/config.yaml")
	fmt.Println("  catalog-indexer validate -path configs/catalog.json")
	fmt.Println("  catalog-indexer dump -out configs/catalog.json")
}
