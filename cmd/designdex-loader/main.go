// designdex-loader ingests transformer design records into the catalog.
//
// Usage:
//
//	designdex-loader load --file designs.json
//	designdex-loader delete --id TR-0042
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/voltlab/designdex/internal/config"
	dbRedis "github.com/voltlab/designdex/internal/db/redis"
	"github.com/voltlab/designdex/internal/domain/record"
	catalogrepo "github.com/voltlab/designdex/internal/repository/catalog"
	"github.com/voltlab/designdex/internal/version"
)

// designInput is the JSON shape of one record in the input file.
type designInput struct {
	ID            string             `json:"id"`
	SourceLocator string             `json:"source_locator"`
	Tags          map[string]string  `json:"tags"`
	Numerics      map[string]float64 `json:"numerics"`
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "designdex-loader",
		Usage:   "Bulk catalog maintenance for the designdex API",
		Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
		Commands: []*cli.Command{
			loadCommand(),
			deleteCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Load design records from a JSON file into the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a JSON array of design records",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Parse and validate without writing",
			},
		},
		Action: runLoad,
	}
}

func runLoad(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	var inputs []designInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("parse input file: %w", err)
	}

	records := make([]record.DesignRecord, 0, len(inputs))
	for i, in := range inputs {
		rec, err := record.New(in.ID, in.SourceLocator, in.Tags, in.Numerics)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}

	if c.Bool("dry-run") {
		fmt.Printf("Validated %d design records (dry run, nothing written)\n", len(records))
		return nil
	}

	repo, closeStore, err := openCatalog(c.Context)
	if err != nil {
		return err
	}
	defer closeStore()

	var created, updated int
	for _, rec := range records {
		isNew, err := repo.Upsert(c.Context, rec)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", rec.ID(), err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	fmt.Printf("Loaded %d design records (%d created, %d updated)\n", len(records), created, updated)
	return nil
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Remove a design record from the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Design record id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			repo, closeStore, err := openCatalog(c.Context)
			if err != nil {
				return err
			}
			defer closeStore()

			id := c.String("id")
			if err := repo.Delete(c.Context, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Printf("Deleted design record %s\n", id)
			return nil
		},
	}
}

// openCatalog connects to the catalog store using the same config files
// the API server reads.
func openCatalog(ctx context.Context) (*catalogrepo.Repo, func(), error) {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to catalog store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("catalog store not ready: %w", err)
	}

	return catalogrepo.New(store, cfg.Catalog.KeyPrefix), func() { store.Close() }, nil
}
