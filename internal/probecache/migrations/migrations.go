// Package migrations embeds the probe cache schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
