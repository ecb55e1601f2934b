package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	migrations "github.com/dropDatabas3/trustcore/migrations/postgres"
)

// Migrate aplica las migraciones embebidas. action: "up" | "down"; steps<=0 = todas.
// "down" corre en orden inverso.
func (s *Store) Migrate(ctx context.Context, action string, steps int) (int, error) {
	var suffix string
	switch strings.ToLower(action) {
	case "up", "":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return 0, fmt.Errorf("pg: unknown migrate action %q (up|down)", action)
	}
	files, err := listSQL(migrations.FS, suffix)
	if err != nil {
		return 0, err
	}
	if suffix == "_down.sql" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	log := logger.L().With(logger.Component("store.pg"), logger.Op("migrate"))
	for _, f := range files {
		b, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			return 0, fmt.Errorf("pg: read %s: %w", f, err)
		}
		start := time.Now()
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return 0, fmt.Errorf("pg: exec %s: %w", f, err)
		}
		log.Info("migration applied", logger.String("file", f), logger.DurationMs(time.Since(start)))
	}
	return len(files), nil
}

func listSQL(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
