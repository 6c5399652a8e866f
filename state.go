package multisource

import "strconv"

// State of a SampleSource.
//
// A source starts out Unprepared. A successful Prepare moves it to
// SelectingTracks, from which EndTrackSelection moves it to Reading and
// StartTrackSelection moves it back. Release is permitted from any other state
// and is terminal.
type State int

const (
	StateUnprepared State = iota
	StateSelectingTracks
	StateReading
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "Unprepared"
	case StateSelectingTracks:
		return "SelectingTracks"
	case StateReading:
		return "Reading"
	case StateReleased:
		return "Released"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}
