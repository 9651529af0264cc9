package db

import "embed"

// Migrations holds the embedded SQL migration files for the search log.
//
//go:embed migrations/*.sql
var Migrations embed.FS
