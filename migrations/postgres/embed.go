// Package migrations embebe las migraciones SQL de Postgres.
package migrations

import "embed"

// FS contiene los pares NNNN_name_up.sql / NNNN_name_down.sql. Las migraciones son
// idempotentes (IF NOT EXISTS) y se aplican en orden lexicográfico.
//
//go:embed *.sql
var FS embed.FS
