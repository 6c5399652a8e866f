package media

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/nareix/joy4/format/mp4/mp4io"
	errors "golang.org/x/xerrors"

	"github.com/lanikai/multisource"
)

// Movie durations are cached per file so that a file shared by several
// compositions is parsed once.
const probeCacheSize = 64

type probeKey struct {
	path    string
	size    int64
	modTime int64
}

// probeCache is an LRU of movie durations, safe for concurrent use.
type probeCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newProbeCache(size int) *probeCache {
	return &probeCache{cache: lru.New(size)}
}

func (c *probeCache) get(key probeKey) (multisource.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache.Get(key); ok {
		return v.(multisource.Time), true
	}
	return multisource.Unknown, false
}

func (c *probeCache) add(key probeKey, d multisource.Time) {
	c.mu.Lock()
	c.cache.Add(key, d)
	c.mu.Unlock()
}

var durations = newProbeCache(probeCacheSize)

// probeDuration reads the movie header of an MP4 file and returns its
// duration, or Unknown if the header does not declare one. The file offset is
// reset to the start.
func probeDuration(f *os.File) (multisource.Time, error) {
	fi, err := f.Stat()
	if err != nil {
		return multisource.Unknown, errors.Errorf("mp4: stat %s: %w", f.Name(), err)
	}
	key := probeKey{f.Name(), fi.Size(), fi.ModTime().UnixNano()}
	if d, ok := durations.get(key); ok {
		return d, nil
	}

	atoms, err := mp4io.ReadFileAtoms(f)
	if err != nil {
		return multisource.Unknown, errors.Errorf("mp4: read atoms of %s: %w", f.Name(), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return multisource.Unknown, errors.Errorf("mp4: seek %s: %w", f.Name(), err)
	}

	d := multisource.Unknown
	for _, atom := range atoms {
		if atom.Tag() != mp4io.MOOV {
			continue
		}
		moov := atom.(*mp4io.Movie)
		if moov.Header != nil {
			d = movieDuration(int64(moov.Header.Duration), int64(moov.Header.TimeScale))
		}
	}

	durations.add(key, d)
	return d, nil
}

// movieDuration converts a duration in timescale units. Fragmented files
// declare a zero duration, which is treated as unknown.
func movieDuration(units, timescale int64) multisource.Time {
	if units <= 0 || timescale <= 0 {
		return multisource.Unknown
	}
	return multisource.Known(time.Duration(units) * time.Second / time.Duration(timescale))
}
