//////////////////////////////////////////////////////////////////////////////
//
// Media errors
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "errors"

var (
	errNoStreams       = errors.New("mp4: no streams found")
	errInvalidTrack    = errors.New("mp4: only track 0 of a group can be selected")
	errAlreadySelected = errors.New("mp4: group already selected")
)
