package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/repository/jsonfile"
	"github.com/secmon-lab/gyges/pkg/repository/memory"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend string
	dataDir string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (jsonfile or memory)",
			Value:       "jsonfile",
			Sources:     cli.EnvVars("GYGES_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for JSON store files (jsonfile backend)",
			Value:       "./data",
			Sources:     cli.EnvVars("GYGES_DATA_DIR"),
			Destination: &r.dataDir,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured
// backend
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "jsonfile":
		repo, err := jsonfile.New(r.dataDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize jsonfile repository")
		}
		logging.Default().Info("Using JSON file repository", "data_dir", r.dataDir)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid repository backend", goerr.V("backend", r.backend))
	}
}
