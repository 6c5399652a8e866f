package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// LOGLEVEL holds comma-separated directives, each either a bare level (the
// default) or "tag=level", e.g. LOGLEVEL=warn,multisource=debug,mp4=7
const envVar = "LOGLEVEL"

type tagLevel struct {
	tag   string
	level Level
}

// levelMu guards defaultLevel, tagLevels, derived and the Level of every
// logger.
var levelMu sync.RWMutex

var tagLevels []tagLevel

// Loggers derived from DefaultLogger, updated by Configure.
var derived []*Logger

// register must be called with levelMu held.
func register(l *Logger) *Logger {
	derived = append(derived, l)
	return l
}

func init() {
	if err := Configure(os.Getenv(envVar)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s: %v\n", envVar, err)
	}
}

// Configure applies level directives in the LOGLEVEL format to the default
// logger and every logger derived from it. Valid directives are applied even
// if others fail to parse; the first failure is returned.
func Configure(directives string) error {
	levelMu.Lock()
	defer levelMu.Unlock()

	var first error
	for _, d := range strings.Split(directives, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := ParseLevel(v[len(v)-1])
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		if len(v) == 1 {
			defaultLevel = level
		} else {
			tagLevels = append(tagLevels, tagLevel{v[0], level})
		}
	}

	DefaultLogger.Level = defaultLevel
	for _, l := range derived {
		fallback := defaultLevel
		if l.fallback != nil {
			fallback = *l.fallback
		}
		l.Level = determineLevel(l.Tag, fallback)
	}
	return first
}

func determineLevel(tag string, fallback Level) Level {
	// Later directives take precedence.
	for i := len(tagLevels) - 1; i >= 0; i-- {
		if tagLevels[i].tag == tag {
			return tagLevels[i].level
		}
	}
	return fallback
}
