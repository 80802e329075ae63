// Package migrations holds the SQL schema, embedded for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
