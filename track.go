package multisource

import (
	"fmt"
	"time"
)

// Kind of media carried by a track.
type Kind int

const (
	KindUnknown Kind = iota
	KindAudio
	KindVideo
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Format describes a single track.
type Format struct {
	ID    string
	Kind  Kind
	Codec string

	// Video only.
	Width  int
	Height int

	// Audio only.
	SampleRate int
	Channels   int

	Bitrate  int
	Language string
}

func (f Format) String() string {
	switch f.Kind {
	case KindVideo:
		return fmt.Sprintf("%s %s %dx%d", f.Kind, f.Codec, f.Width, f.Height)
	case KindAudio:
		return fmt.Sprintf("%s %s %dHz/%dch", f.Kind, f.Codec, f.SampleRate, f.Channels)
	default:
		return fmt.Sprintf("%s %s", f.Kind, f.Codec)
	}
}

// TrackGroup is an immutable ordered set of tracks, typically alternative
// renditions of the same content.
type TrackGroup struct {
	formats []Format
}

func NewTrackGroup(formats ...Format) TrackGroup {
	return TrackGroup{formats: append([]Format(nil), formats...)}
}

// Len returns the number of tracks in the group.
func (g TrackGroup) Len() int {
	return len(g.formats)
}

// Format returns the format of track i.
func (g TrackGroup) Format(i int) Format {
	return g.formats[i]
}

// TrackGroupArray is an immutable ordered list of track groups.
type TrackGroupArray struct {
	groups []TrackGroup
}

func NewTrackGroupArray(groups ...TrackGroup) TrackGroupArray {
	return TrackGroupArray{groups: append([]TrackGroup(nil), groups...)}
}

func (a TrackGroupArray) Len() int {
	return len(a.groups)
}

// Get returns group i. It panics if i is out of range.
func (a TrackGroupArray) Get(i int) TrackGroup {
	return a.groups[i]
}

// TrackSelection selects one or more tracks of a single group.
type TrackSelection struct {
	Group  int
	tracks []int
}

func NewTrackSelection(group int, tracks ...int) TrackSelection {
	return TrackSelection{Group: group, tracks: append([]int(nil), tracks...)}
}

// Tracks returns a copy of the selected track indices within the group.
func (s TrackSelection) Tracks() []int {
	return append([]int(nil), s.tracks...)
}

func (s TrackSelection) String() string {
	return fmt.Sprintf("group %d tracks %v", s.Group, s.tracks)
}

// Sample is one unit of media read from a TrackStream.
type Sample struct {
	Time     time.Duration
	KeyFrame bool
	Data     []byte
}

// TrackStream is the handle returned by SelectTrack. It is used to read
// samples of the selected tracks and later to unselect them.
type TrackStream interface {
	// IsReady reports whether ReadSample would not return ErrNoSample, either
	// because a sample is buffered or because the stream has ended.
	IsReady() bool

	// ReadSample returns the next sample. It returns ErrNoSample if nothing
	// is buffered yet, and io.EOF once the stream is exhausted.
	ReadSample() (Sample, error)
}
