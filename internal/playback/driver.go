// Package playback drives a SampleSource the way a player would: it polls
// preparation, selects tracks, and keeps buffering while draining samples.
package playback

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lanikai/multisource"
	"github.com/lanikai/multisource/internal/logging"
)

var log = logging.DefaultLogger.WithTag("playback")

const defaultInterval = 100 * time.Millisecond

// Status is a snapshot of a playback session.
type Status struct {
	Session  string        `json:"session"`
	State    string        `json:"state"`
	Position time.Duration `json:"position"`
	Duration string        `json:"duration"`
	Buffered string        `json:"buffered"`

	// Samples read so far, per track group.
	Samples []int `json:"samples"`
	Done    bool  `json:"done"`
}

// Driver plays a SampleSource from Start until every selected stream ends.
// Track 0 of every non-empty group is selected.
type Driver struct {
	Source multisource.SampleSource

	// Start position.
	Start time.Duration

	// Polling interval for preparation and buffering.
	Interval time.Duration

	// Called once after the source is prepared.
	OnPrepared func(multisource.SampleSource)

	// Called for every sample read.
	OnSample func(group int, sample multisource.Sample)

	// Called after every buffering round.
	Observe func(Status)
}

// Run plays the source until it ends, an error occurs, or ctx is done. The
// source is released before Run returns.
func (d *Driver) Run(ctx context.Context) (err error) {
	session := uuid.NewString()
	src := d.Source
	defer func() {
		if rerr := src.Release(); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "release")
		}
	}()

	interval := d.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wait := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			return nil
		}
	}

	for {
		ready, err := src.Prepare(d.Start)
		if err != nil {
			return errors.Wrap(err, "prepare")
		}
		if ready {
			break
		}
		log.Debug("Source not ready, retrying in %v", interval)
		if err := wait(); err != nil {
			return err
		}
	}
	if d.OnPrepared != nil {
		d.OnPrepared(src)
	}

	groups := src.TrackGroups()
	streams := make([]multisource.TrackStream, groups.Len())
	for i := range streams {
		if groups.Get(i).Len() == 0 {
			continue
		}
		stream, err := src.SelectTrack(multisource.NewTrackSelection(i, 0), d.Start)
		if err != nil {
			return errors.Wrapf(err, "select group %d", i)
		}
		streams[i] = stream
	}
	if err := src.EndTrackSelection(d.Start); err != nil {
		return errors.Wrap(err, "end track selection")
	}

	status := Status{
		Session:  session,
		Position: d.Start,
		Duration: src.Duration().String(),
		Samples:  make([]int, len(streams)),
	}
	for {
		if err := src.ContinueBuffering(status.Position); err != nil {
			return errors.Wrap(err, "continue buffering")
		}

		status.Done = true
		for i, stream := range streams {
			if stream == nil {
				continue
			}
			ended, err := d.drain(i, stream, &status)
			if err != nil {
				return errors.Wrapf(err, "read group %d", i)
			}
			if ended {
				streams[i] = nil
			} else {
				status.Done = false
			}
		}

		status.State = src.State().String()
		status.Buffered = src.BufferedPosition().String()
		if d.Observe != nil {
			snapshot := status
			snapshot.Samples = append([]int(nil), status.Samples...)
			d.Observe(snapshot)
		}
		if status.Done {
			log.Info("Playback ended at %v", status.Position)
			return nil
		}
		if err := wait(); err != nil {
			return err
		}
	}
}

// drain reads every buffered sample of a stream and advances the position.
// It reports whether the stream has ended.
func (d *Driver) drain(group int, stream multisource.TrackStream, status *Status) (bool, error) {
	for {
		sample, err := stream.ReadSample()
		switch {
		case err == io.EOF:
			return true, nil
		case errors.Is(err, multisource.ErrNoSample):
			return false, nil
		case err != nil:
			return false, err
		}

		status.Samples[group]++
		if sample.Time > status.Position {
			status.Position = sample.Time
		}
		if d.OnSample != nil {
			d.OnSample(group, sample)
		}
	}
}
