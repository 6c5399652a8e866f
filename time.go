package multisource

import (
	"fmt"
	"time"
)

type timeKind uint8

const (
	timeUnknown timeKind = iota
	timeKnown
	timeEndOfSource
)

// Time is a media time that may be unknown, a known offset from the start of
// the media, or the end of the source. The zero value is Unknown.
type Time struct {
	kind timeKind
	d    time.Duration
}

var (
	// Unknown is a time that cannot be determined (yet).
	Unknown = Time{}

	// EndOfSource marks a source that is buffered to its end.
	EndOfSource = Time{kind: timeEndOfSource}
)

// Known returns a known time at offset d from the start of the media.
func Known(d time.Duration) Time {
	return Time{kind: timeKnown, d: d}
}

func (t Time) IsUnknown() bool {
	return t.kind == timeUnknown
}

func (t Time) IsKnown() bool {
	return t.kind == timeKnown
}

func (t Time) IsEndOfSource() bool {
	return t.kind == timeEndOfSource
}

// Value returns the offset of a known time. The second result is false for
// Unknown and EndOfSource.
func (t Time) Value() (time.Duration, bool) {
	if t.kind != timeKnown {
		return 0, false
	}
	return t.d, true
}

func (t Time) String() string {
	switch t.kind {
	case timeKnown:
		return t.d.String()
	case timeEndOfSource:
		return "end-of-source"
	case timeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Time(%d)", t.kind)
	}
}
