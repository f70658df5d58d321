// Package migrations embeds the versioned SQL schema of the ledger.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair, read through golang-migrate's iofs source.
//
//go:embed *.sql
var FS embed.FS
