package gcoder

import _ "embed"

// Version is the release of the gcoder module, read from the VERSION file.
//
//go:embed VERSION
var Version string
