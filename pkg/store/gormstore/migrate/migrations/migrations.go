// Package migrations embeds the SQL migration set for the PostgreSQL
// backend, applied explicitly via `osdpgatewayd migrate` to give the
// control-plane database a reviewable, versioned schema history.
// gormstore.New still runs GORM's AutoMigrate on every open, PostgreSQL
// included.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
