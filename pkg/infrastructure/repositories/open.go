// Package repositories selects and opens the configured table store backend.
package repositories

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/option"

	domain "github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/sheets"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/xlsx"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the table store selected by cfg.Backend. The closer releases any
// connection held by the backend and is never nil when err is nil. The memory
// store starts empty in every process and is only constructed directly.
func Open(ctx context.Context, cfg config.StoreConfig) (domain.TableStore, io.Closer, error) {
	switch cfg.Backend {
	case "csv":
		store, err := csv.NewTableStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case "xlsx":
		return xlsx.NewTableStore(cfg.Path), nopCloser{}, nil

	case "sqlite":
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case "sheets":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			cred, err := sheets.CredentialsFile(cfg.CredentialsFile)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, cred)
		}
		store, err := sheets.NewTableStore(ctx, cfg.SpreadsheetID, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
