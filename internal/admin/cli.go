package admin

import "io"

// Usage is printed by clout-admin -help.
const Usage = `clout-admin: operator commands for the clout service

Usage:
  clout-admin <command> [options]

Commands:
  verify                 verify all pending picks of completed events once
  recompute [-capper ID] rebuild capper stats from verified picks
                         (every capper when -capper is omitted)
  seed -file PATH        load cappers and events from a YAML fixture;
                         events whose external_id exists are skipped

Configuration is read like the server: defaults, then the YAML file named
by CLOUT_CONFIG, then CLOUT_* environment variables (and a local .env).

Examples:
  CLOUT_STORE=postgres CLOUT_DATABASE_URL=postgres://localhost/clout clout-admin verify
  clout-admin recompute -capper 6f1c...
  clout-admin seed -file fixtures/ufc.yaml
`

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, Usage)
}
