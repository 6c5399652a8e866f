package media

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/multisource"
)

type fakeVideoCodec struct{}

func (fakeVideoCodec) Type() av.CodecType { return av.H264 }
func (fakeVideoCodec) Width() int         { return 640 }
func (fakeVideoCodec) Height() int        { return 360 }

type fakeDemuxer struct {
	codecs  []av.CodecData
	packets []av.Packet
	next    int
	seeks   []time.Duration
}

func (d *fakeDemuxer) Streams() ([]av.CodecData, error) {
	return d.codecs, nil
}

func (d *fakeDemuxer) ReadPacket() (av.Packet, error) {
	if d.next >= len(d.packets) {
		return av.Packet{}, io.EOF
	}
	pkt := d.packets[d.next]
	d.next++
	return pkt, nil
}

func (d *fakeDemuxer) SeekToTime(t time.Duration) error {
	d.seeks = append(d.seeks, t)
	d.next = len(d.packets)
	for i, pkt := range d.packets {
		if pkt.Time >= t {
			d.next = i
			break
		}
	}
	return nil
}

type fakeCloser struct {
	closed int
}

func (c *fakeCloser) Close() error {
	c.closed++
	return nil
}

// Video on stream 0 and audio on stream 1, alternating every 500ms up to 3s.
func newFakeDemuxer() *fakeDemuxer {
	d := &fakeDemuxer{
		codecs: []av.CodecData{fakeVideoCodec{}, codec.NewPCMMulawCodecData()},
	}
	for i := 0; i <= 6; i++ {
		d.packets = append(d.packets, av.Packet{
			Idx:        int8(i % 2),
			Time:       time.Duration(i) * 500 * time.Millisecond,
			IsKeyFrame: i == 0,
			Data:       []byte{byte(i)},
		})
	}
	return d
}

func newTestSource(d *fakeDemuxer, c *fakeCloser, duration multisource.Time) *MP4Source {
	s := NewMP4Source("test.mp4", 2*time.Second)
	s.open = func(string) (demuxer, io.Closer, multisource.Time, error) {
		return d, c, duration, nil
	}
	return s
}

func readAll(t *testing.T, stream multisource.TrackStream) []time.Duration {
	var times []time.Duration
	for stream.IsReady() {
		sample, err := stream.ReadSample()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		times = append(times, sample.Time)
	}
	return times
}

func TestMP4SourcePrepare(t *testing.T) {
	s := newTestSource(newFakeDemuxer(), &fakeCloser{}, multisource.Known(10*time.Second))

	ok, err := s.Prepare(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, multisource.StateSelectingTracks, s.State())
	assert.Equal(t, multisource.Known(10*time.Second), s.Duration())
	assert.Equal(t, multisource.Known(0), s.BufferedPosition())

	groups := s.TrackGroups()
	require.Equal(t, 2, groups.Len())

	video := groups.Get(0).Format(0)
	assert.Equal(t, multisource.KindVideo, video.Kind)
	assert.Equal(t, 640, video.Width)
	assert.Equal(t, 360, video.Height)

	audio := groups.Get(1).Format(0)
	assert.Equal(t, multisource.KindAudio, audio.Kind)
	assert.Equal(t, 8000, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)

	_, err = s.Prepare(0)
	assert.True(t, errors.Is(err, multisource.ErrIllegalState))
}

func TestMP4SourcePrepareAtPosition(t *testing.T) {
	d := newFakeDemuxer()
	s := newTestSource(d, &fakeCloser{}, multisource.Unknown)

	ok, err := s.Prepare(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []time.Duration{time.Second}, d.seeks)
	assert.Equal(t, multisource.Known(time.Second), s.BufferedPosition())
}

func TestMP4SourcePrepareError(t *testing.T) {
	failure := errors.New("no such file")
	s := NewMP4Source("missing.mp4", time.Second)
	s.open = func(string) (demuxer, io.Closer, multisource.Time, error) {
		return nil, nil, multisource.Unknown, failure
	}

	ok, err := s.Prepare(0)
	assert.False(t, ok)
	assert.Equal(t, failure, err)
	assert.Equal(t, multisource.StateUnprepared, s.State())
}

func TestMP4SourceBuffering(t *testing.T) {
	s := newTestSource(newFakeDemuxer(), &fakeCloser{}, multisource.Known(3*time.Second))
	_, err := s.Prepare(0)
	require.NoError(t, err)

	video, err := s.SelectTrack(multisource.NewTrackSelection(0, 0), 0)
	require.NoError(t, err)
	require.NoError(t, s.EndTrackSelection(0))

	assert.False(t, video.IsReady())
	_, err = video.ReadSample()
	assert.Equal(t, multisource.ErrNoSample, err)

	require.NoError(t, s.ContinueBuffering(0))
	assert.Equal(t, multisource.Known(2*time.Second), s.BufferedPosition())
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, readAll(t, video))

	_, err = video.ReadSample()
	assert.Equal(t, multisource.ErrNoSample, err)

	require.NoError(t, s.ContinueBuffering(time.Second))
	assert.Equal(t, multisource.Known(3*time.Second), s.BufferedPosition())
	assert.Equal(t, []time.Duration{3 * time.Second}, readAll(t, video))

	require.NoError(t, s.ContinueBuffering(2*time.Second))
	assert.Equal(t, multisource.EndOfSource, s.BufferedPosition())

	// Ready at the end of the stream, with nothing left to read.
	assert.True(t, video.IsReady())
	_, err = video.ReadSample()
	assert.Equal(t, io.EOF, err)
	assert.True(t, video.IsReady())
}

func TestMP4SourceSelectionErrors(t *testing.T) {
	s := newTestSource(newFakeDemuxer(), &fakeCloser{}, multisource.Unknown)

	_, err := s.SelectTrack(multisource.NewTrackSelection(0, 0), 0)
	assert.True(t, errors.Is(err, multisource.ErrIllegalState))

	_, err = s.Prepare(0)
	require.NoError(t, err)

	_, err = s.SelectTrack(multisource.NewTrackSelection(2, 0), 0)
	assert.True(t, errors.Is(err, multisource.ErrIndexOutOfRange))

	_, err = s.SelectTrack(multisource.NewTrackSelection(0, 1), 0)
	assert.Equal(t, errInvalidTrack, err)

	stream, err := s.SelectTrack(multisource.NewTrackSelection(1, 0), 0)
	require.NoError(t, err)
	_, err = s.SelectTrack(multisource.NewTrackSelection(1, 0), 0)
	assert.Equal(t, errAlreadySelected, err)

	require.NoError(t, s.UnselectTrack(stream))
	assert.Equal(t, multisource.ErrUnknownStream, s.UnselectTrack(stream))
}

func TestMP4SourceSelectAfterReadingSeeks(t *testing.T) {
	d := newFakeDemuxer()
	s := newTestSource(d, &fakeCloser{}, multisource.Unknown)
	_, err := s.Prepare(0)
	require.NoError(t, err)

	_, err = s.SelectTrack(multisource.NewTrackSelection(0, 0), 0)
	require.NoError(t, err)
	require.NoError(t, s.EndTrackSelection(0))
	require.NoError(t, s.ContinueBuffering(0))
	assert.Empty(t, d.seeks)

	require.NoError(t, s.StartTrackSelection())
	audio, err := s.SelectTrack(multisource.NewTrackSelection(1, 0), time.Second)
	require.NoError(t, err)
	require.NoError(t, s.EndTrackSelection(time.Second))
	assert.Equal(t, []time.Duration{time.Second}, d.seeks)

	require.NoError(t, s.ContinueBuffering(time.Second))
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 2500 * time.Millisecond}, readAll(t, audio))
}

func TestMP4SourceSeekClearsQueues(t *testing.T) {
	d := newFakeDemuxer()
	s := newTestSource(d, &fakeCloser{}, multisource.Unknown)
	_, err := s.Prepare(0)
	require.NoError(t, err)
	video, err := s.SelectTrack(multisource.NewTrackSelection(0, 0), 0)
	require.NoError(t, err)
	require.NoError(t, s.EndTrackSelection(0))
	require.NoError(t, s.ContinueBuffering(10*time.Second))
	assert.Equal(t, multisource.EndOfSource, s.BufferedPosition())

	require.NoError(t, s.SeekTo(2*time.Second))
	assert.Equal(t, multisource.Known(2*time.Second), s.BufferedPosition())
	assert.False(t, video.IsReady())

	require.NoError(t, s.ContinueBuffering(2*time.Second))
	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, readAll(t, video))
}

func TestMP4SourceRelease(t *testing.T) {
	c := &fakeCloser{}
	s := newTestSource(newFakeDemuxer(), c, multisource.Unknown)
	_, err := s.Prepare(0)
	require.NoError(t, err)

	require.NoError(t, s.Release())
	assert.Equal(t, 1, c.closed)
	assert.Equal(t, multisource.Unknown, s.BufferedPosition())
	assert.True(t, errors.Is(s.Release(), multisource.ErrIllegalState))
	assert.True(t, errors.Is(s.ContinueBuffering(0), multisource.ErrIllegalState))
	assert.Equal(t, 1, c.closed)
}

func TestMultiSampleSourceOverMP4(t *testing.T) {
	short := newTestSource(newFakeDemuxer(), &fakeCloser{}, multisource.Known(3*time.Second))
	long := newTestSource(newFakeDemuxer(), &fakeCloser{}, multisource.Known(8*time.Second))
	m := multisource.NewMultiSampleSource(short, long)

	ok, err := m.Prepare(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, m.TrackGroups().Len())
	assert.Equal(t, multisource.Known(8*time.Second), m.Duration())

	// Audio of the second file.
	audio, err := m.SelectTrack(multisource.NewTrackSelection(3, 0), 0)
	require.NoError(t, err)
	require.NoError(t, m.EndTrackSelection(0))
	require.NoError(t, m.ContinueBuffering(0))
	assert.Equal(t, multisource.Known(2*time.Second), m.BufferedPosition())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond}, readAll(t, audio))

	require.NoError(t, m.ContinueBuffering(5*time.Second))
	// Both files are exhausted, so the total duration bounds the result.
	assert.Equal(t, multisource.Known(8*time.Second), m.BufferedPosition())
}
