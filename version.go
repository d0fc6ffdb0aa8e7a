package relay

import _ "embed"

// Version is the release version of relay.
//
//go:embed VERSION
var Version string
