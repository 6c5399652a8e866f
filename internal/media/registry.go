package media

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/lanikai/multisource"
)

// Open a source based on its "source spec". A source spec is a colon-separated string
// consisting of a source tag and a source path:
//    sourceSpec = sourceTag + ":" + sourcePath
// The format of the source path is defined by the registered OpenFunc. A spec
// without a registered tag that names an .mp4 file is opened as "mp4:" + spec.
func OpenSource(spec string) (multisource.SampleSource, error) {
	if log.Enabled(7) {
		var tags []string
		for t := range registry {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		log.Trace(7, "Registered source types: %v", tags)
	}

	tag, path := splitSpec(spec)
	if open, found := registry[tag]; found {
		log.Debug("Opening %s source %q", tag, path)
		return open(path)
	}
	return nil, errors.Errorf("source type '%s' not registered", tag)
}

func splitSpec(spec string) (tag, path string) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) == 2 {
		if _, found := registry[parts[0]]; found {
			return parts[0], parts[1]
		}
	}
	if strings.HasSuffix(strings.ToLower(spec), ".mp4") {
		return "mp4", spec
	}
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// A function used to open a specific source type.
type OpenFunc func(path string) (multisource.SampleSource, error)

var registry = map[string]OpenFunc{}

// Register a source type, identified by its "source tag". Sources of this type will be
// opened with the given function.
func RegisterSourceType(tag string, open OpenFunc) {
	registry[tag] = open
}

// OpenMulti opens every spec and combines the sources in order. Sources
// opened before a failure are released.
func OpenMulti(specs ...string) (*multisource.MultiSampleSource, error) {
	var sources []multisource.SampleSource
	for _, spec := range specs {
		src, err := OpenSource(spec)
		if err != nil {
			for _, s := range sources {
				s.Release()
			}
			return nil, errors.Wrapf(err, "open %q", spec)
		}
		sources = append(sources, src)
	}
	return multisource.NewMultiSampleSource(sources...), nil
}
