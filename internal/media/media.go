// Package media provides concrete sample sources and a registry for opening
// them from source specs.
package media

import "github.com/lanikai/multisource/internal/logging"

var log = logging.DefaultLogger.WithTag("media")
