//////////////////////////////////////////////////////////////////////////////
//
// MultiSampleSource combines multiple sample sources into one
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package multisource

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lanikai/multisource/internal/logging"
)

var log = logging.DefaultLogger.WithTag("multisource")

// MultiSampleSource exposes an ordered list of child sources as a single
// SampleSource. Track groups of the children are concatenated in construction
// order, and every other call is forwarded to the children.
//
// A MultiSampleSource is itself a SampleSource, so it can be nested.
type MultiSampleSource struct {
	id      string
	sources []SampleSource

	state       State
	duration    Time
	trackGroups TrackGroupArray

	// groupEnds[i] is the total number of groups of sources[0..i].
	groupEnds []int
}

var _ SampleSource = (*MultiSampleSource)(nil)

// NewMultiSampleSource combines the given sources, which may be shared with
// other aggregations and may already be prepared.
func NewMultiSampleSource(sources ...SampleSource) *MultiSampleSource {
	return &MultiSampleSource{
		id:      uuid.NewString()[:8],
		sources: append([]SampleSource(nil), sources...),
		state:   StateUnprepared,
	}
}

// multiTrackStream is the handle returned by MultiSampleSource.SelectTrack. It
// remembers which child produced the wrapped stream.
type multiTrackStream struct {
	TrackStream

	owner  *MultiSampleSource
	source int
	active bool
}

func (m *MultiSampleSource) State() State {
	return m.state
}

func (m *MultiSampleSource) Prepare(position time.Duration) (bool, error) {
	if m.state != StateUnprepared {
		return false, illegalState("Prepare", m.state)
	}

	prepared := true
	for i, source := range m.sources {
		if source.State() != StateUnprepared {
			// Shared source, prepared elsewhere.
			continue
		}
		ready, err := source.Prepare(position)
		if err != nil {
			return false, err
		}
		if !ready {
			log.Trace(5, "[%s] source %d not ready", m.id, i)
			prepared = false
		}
	}
	if !prepared {
		return false, nil
	}

	m.duration = Known(0)
	var groups []TrackGroup
	m.groupEnds = make([]int, len(m.sources))
	for i, source := range m.sources {
		if !m.duration.IsUnknown() {
			m.duration = maxDuration(m.duration, source.Duration())
		}

		sourceGroups := source.TrackGroups()
		for j := 0; j < sourceGroups.Len(); j++ {
			groups = append(groups, sourceGroups.Get(j))
		}
		m.groupEnds[i] = len(groups)
	}
	m.trackGroups = NewTrackGroupArray(groups...)

	m.state = StateSelectingTracks
	log.Debug("[%s] prepared %d sources: %d track groups, duration %v",
		m.id, len(m.sources), len(groups), m.duration)
	return true, nil
}

// maxDuration returns the larger of two durations, or Unknown if d is not
// known.
func maxDuration(acc, d Time) Time {
	v, ok := d.Value()
	if !ok {
		return Unknown
	}
	if cur, _ := acc.Value(); cur > v {
		return acc
	}
	return d
}

func (m *MultiSampleSource) TrackGroups() TrackGroupArray {
	return m.trackGroups
}

func (m *MultiSampleSource) StartTrackSelection() error {
	if m.state != StateReading {
		return illegalState("StartTrackSelection", m.state)
	}
	m.state = StateSelectingTracks
	for _, source := range m.sources {
		if err := source.StartTrackSelection(); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSampleSource) SelectTrack(selection TrackSelection, position time.Duration) (TrackStream, error) {
	if m.state != StateSelectingTracks {
		return nil, illegalState("SelectTrack", m.state)
	}

	source, group, err := m.sourceAndGroup(selection.Group)
	if err != nil {
		return nil, err
	}

	local := NewTrackSelection(group, selection.tracks...)
	stream, err := m.sources[source].SelectTrack(local, position)
	if err != nil {
		return nil, err
	}
	log.Debug("[%s] selected %v on source %d as %v", m.id, selection, source, local)

	return &multiTrackStream{
		TrackStream: stream,
		owner:       m,
		source:      source,
		active:      true,
	}, nil
}

func (m *MultiSampleSource) UnselectTrack(stream TrackStream) error {
	if m.state != StateSelectingTracks {
		return illegalState("UnselectTrack", m.state)
	}

	s, ok := stream.(*multiTrackStream)
	if !ok || s.owner != m || !s.active {
		return errors.WithStack(ErrUnknownStream)
	}
	s.active = false
	log.Debug("[%s] unselecting stream on source %d", m.id, s.source)
	return m.sources[s.source].UnselectTrack(s.TrackStream)
}

func (m *MultiSampleSource) EndTrackSelection(position time.Duration) error {
	if m.state != StateSelectingTracks {
		return illegalState("EndTrackSelection", m.state)
	}
	m.state = StateReading
	for _, source := range m.sources {
		if err := source.EndTrackSelection(position); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSampleSource) ContinueBuffering(position time.Duration) error {
	if m.state == StateReleased {
		return illegalState("ContinueBuffering", m.state)
	}
	for _, source := range m.sources {
		if err := source.ContinueBuffering(position); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSampleSource) SeekTo(position time.Duration) error {
	if m.state == StateReleased {
		return illegalState("SeekTo", m.state)
	}
	log.Debug("[%s] seeking to %v", m.id, position)
	for _, source := range m.sources {
		if err := source.SeekTo(position); err != nil {
			return err
		}
	}
	return nil
}

// Duration returns the longest child duration, computed once during Prepare.
// It is Unknown if any child's duration was unknown at that time.
func (m *MultiSampleSource) Duration() Time {
	return m.duration
}

// BufferedPosition returns the smallest buffered position among the children.
// Children buffered to the end do not limit the result. If any child's
// buffered position is unknown, so is the result.
func (m *MultiSampleSource) BufferedPosition() Time {
	if m.state == StateUnprepared || m.state == StateReleased {
		return Unknown
	}

	result := m.duration
	for _, source := range m.sources {
		buffered := source.BufferedPosition()
		switch {
		case buffered.IsUnknown():
			return Unknown
		case buffered.IsEndOfSource():
			// Fully buffered.
		default:
			v, _ := buffered.Value()
			if cur, ok := result.Value(); !ok || v < cur {
				result = buffered
			}
		}
	}
	return result
}

// Release releases every child, even if an earlier one fails. The first
// error is returned.
func (m *MultiSampleSource) Release() error {
	if m.state == StateReleased {
		return illegalState("Release", m.state)
	}
	m.state = StateReleased

	var first error
	for i, source := range m.sources {
		if err := source.Release(); err != nil {
			log.Warn("[%s] failed to release source %d: %v", m.id, i, err)
			if first == nil {
				first = err
			}
		}
	}
	log.Debug("[%s] released", m.id)
	return first
}

// sourceAndGroup maps a group index of the combined track group list to the
// owning source and the group's index within that source.
func (m *MultiSampleSource) sourceAndGroup(group int) (source, local int, err error) {
	total := 0
	if n := len(m.groupEnds); n > 0 {
		total = m.groupEnds[n-1]
	}
	if group < 0 || group >= total {
		return 0, 0, errors.Wrapf(ErrIndexOutOfRange, "group %d of %d", group, total)
	}

	// First source whose cumulative group count exceeds the index.
	source = sort.Search(len(m.groupEnds), func(i int) bool {
		return m.groupEnds[i] > group
	})
	local = group
	if source > 0 {
		local -= m.groupEnds[source-1]
	}
	return source, local, nil
}
