package media

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/format/mp4"
	errors "golang.org/x/xerrors"

	"github.com/lanikai/multisource"
)

// DefaultBufferAhead is how far past the playback position an MP4 source
// reads when asked to continue buffering.
const DefaultBufferAhead = 5 * time.Second

// BufferAhead applies to MP4 sources opened with OpenSource.
var BufferAhead = DefaultBufferAhead

func init() {
	RegisterSourceType("mp4", func(path string) (multisource.SampleSource, error) {
		return NewMP4Source(path, BufferAhead), nil
	})
}

// demuxer is the part of *mp4.Demuxer used by MP4Source.
type demuxer interface {
	Streams() ([]av.CodecData, error)
	ReadPacket() (av.Packet, error)
	SeekToTime(time.Duration) error
}

// openFunc opens a file for demuxing and reports the movie duration.
type openFunc func(filename string) (demuxer, io.Closer, multisource.Time, error)

func openMP4File(filename string) (demuxer, io.Closer, multisource.Time, error) {
	log.Info("Opening file %s", filename)
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, multisource.Unknown, err
	}

	duration, err := probeDuration(file)
	if err != nil {
		file.Close()
		return nil, nil, multisource.Unknown, err
	}
	return mp4.NewDemuxer(file), file, duration, nil
}

// MP4Source is a SampleSource reading an MP4 file. Every stream in the file
// is exposed as a track group holding a single track.
type MP4Source struct {
	filename    string
	bufferAhead time.Duration
	open        openFunc

	state    multisource.State
	file     io.Closer
	demuxer  demuxer
	groups   multisource.TrackGroupArray
	duration multisource.Time

	// Selected streams, indexed by group. Nil if unselected.
	streams []*mp4TrackStream

	// Time of the last packet read, and whether the file has been read to the
	// end.
	buffered time.Duration
	eos      bool

	// Set when a stream is selected after reading started, so the demuxer
	// must rewind for the new stream to receive samples.
	needSeek bool
	reading  bool
}

var _ multisource.SampleSource = (*MP4Source)(nil)

func NewMP4Source(filename string, bufferAhead time.Duration) *MP4Source {
	return &MP4Source{
		filename:    filename,
		bufferAhead: bufferAhead,
		open:        openMP4File,
		state:       multisource.StateUnprepared,
	}
}

func (s *MP4Source) illegalState(op string) error {
	return errors.Errorf("mp4: %s in state %v: %w", op, s.state, multisource.ErrIllegalState)
}

func (s *MP4Source) State() multisource.State {
	return s.state
}

// Prepare opens and probes the file. Local files are always ready once
// opened.
func (s *MP4Source) Prepare(position time.Duration) (bool, error) {
	if s.state != multisource.StateUnprepared {
		return false, s.illegalState("Prepare")
	}

	dmx, file, duration, err := s.open(s.filename)
	if err != nil {
		return false, err
	}

	codecs, err := dmx.Streams()
	if err != nil {
		file.Close()
		return false, errors.Errorf("mp4: probe %s: %w", s.filename, err)
	}
	if len(codecs) == 0 {
		file.Close()
		return false, errNoStreams
	}

	groups := make([]multisource.TrackGroup, len(codecs))
	for i, codec := range codecs {
		f := formatOf(i, codec)
		log.Info("%s stream %d: %v", s.filename, i, f)
		groups[i] = multisource.NewTrackGroup(f)
	}

	if position > 0 {
		if err := dmx.SeekToTime(position); err != nil {
			file.Close()
			return false, errors.Errorf("mp4: seek %s to %v: %w", s.filename, position, err)
		}
	}

	s.file = file
	s.demuxer = dmx
	s.groups = multisource.NewTrackGroupArray(groups...)
	s.duration = duration
	s.streams = make([]*mp4TrackStream, len(codecs))
	s.buffered = position
	s.state = multisource.StateSelectingTracks
	return true, nil
}

// formatOf describes stream i of a file.
func formatOf(i int, codec av.CodecData) multisource.Format {
	f := multisource.Format{
		ID:    strconv.Itoa(i),
		Codec: codec.Type().String(),
	}
	switch c := codec.(type) {
	case av.VideoCodecData:
		f.Kind = multisource.KindVideo
		f.Width = c.Width()
		f.Height = c.Height()
	case av.AudioCodecData:
		f.Kind = multisource.KindAudio
		f.SampleRate = c.SampleRate()
		f.Channels = c.ChannelLayout().Count()
	}
	return f
}

func (s *MP4Source) TrackGroups() multisource.TrackGroupArray {
	return s.groups
}

func (s *MP4Source) StartTrackSelection() error {
	if s.state != multisource.StateReading {
		return s.illegalState("StartTrackSelection")
	}
	s.state = multisource.StateSelectingTracks
	return nil
}

func (s *MP4Source) SelectTrack(selection multisource.TrackSelection, position time.Duration) (multisource.TrackStream, error) {
	if s.state != multisource.StateSelectingTracks {
		return nil, s.illegalState("SelectTrack")
	}
	if selection.Group < 0 || selection.Group >= len(s.streams) {
		return nil, errors.Errorf("mp4: group %d of %d: %w",
			selection.Group, len(s.streams), multisource.ErrIndexOutOfRange)
	}
	if tracks := selection.Tracks(); len(tracks) != 1 || tracks[0] != 0 {
		return nil, errInvalidTrack
	}
	if s.streams[selection.Group] != nil {
		return nil, errAlreadySelected
	}

	stream := &mp4TrackStream{source: s, group: selection.Group}
	s.streams[selection.Group] = stream
	if s.reading {
		s.needSeek = true
	}
	return stream, nil
}

func (s *MP4Source) UnselectTrack(stream multisource.TrackStream) error {
	if s.state != multisource.StateSelectingTracks {
		return s.illegalState("UnselectTrack")
	}
	ts, ok := stream.(*mp4TrackStream)
	if !ok || ts.source != s || s.streams[ts.group] != ts {
		return multisource.ErrUnknownStream
	}
	s.streams[ts.group] = nil
	ts.samples = nil
	return nil
}

func (s *MP4Source) EndTrackSelection(position time.Duration) error {
	if s.state != multisource.StateSelectingTracks {
		return s.illegalState("EndTrackSelection")
	}
	s.state = multisource.StateReading
	if s.needSeek {
		s.needSeek = false
		return s.seek(position)
	}
	return nil
}

// ContinueBuffering reads packets until the buffered position is bufferAhead
// past position, or the end of the file. Packets of unselected streams are
// dropped.
func (s *MP4Source) ContinueBuffering(position time.Duration) error {
	if s.state == multisource.StateReleased {
		return s.illegalState("ContinueBuffering")
	}
	if s.state != multisource.StateReading {
		return nil
	}
	s.reading = true

	target := position + s.bufferAhead
	for !s.eos && s.buffered < target {
		pkt, err := s.demuxer.ReadPacket()
		if err == io.EOF {
			log.Debug("%s: end of file at %v", s.filename, s.buffered)
			s.eos = true
			break
		} else if err != nil {
			return errors.Errorf("mp4: read %s: %w", s.filename, err)
		}

		s.buffered = pkt.Time
		if pkt.Idx < 0 || int(pkt.Idx) >= len(s.streams) {
			continue
		}
		if stream := s.streams[pkt.Idx]; stream != nil {
			stream.samples = append(stream.samples, multisource.Sample{
				Time:     pkt.Time + pkt.CompositionTime,
				KeyFrame: pkt.IsKeyFrame,
				Data:     pkt.Data,
			})
		}
	}
	return nil
}

func (s *MP4Source) SeekTo(position time.Duration) error {
	if s.state == multisource.StateReleased {
		return s.illegalState("SeekTo")
	}
	if s.demuxer == nil {
		return nil
	}
	return s.seek(position)
}

func (s *MP4Source) seek(position time.Duration) error {
	if err := s.demuxer.SeekToTime(position); err != nil {
		return errors.Errorf("mp4: seek %s to %v: %w", s.filename, position, err)
	}
	for _, stream := range s.streams {
		if stream != nil {
			stream.samples = nil
		}
	}
	s.buffered = position
	s.eos = false
	return nil
}

func (s *MP4Source) Duration() multisource.Time {
	return s.duration
}

func (s *MP4Source) BufferedPosition() multisource.Time {
	switch {
	case s.demuxer == nil || s.state == multisource.StateReleased:
		return multisource.Unknown
	case s.eos:
		return multisource.EndOfSource
	default:
		return multisource.Known(s.buffered)
	}
}

func (s *MP4Source) Release() error {
	if s.state == multisource.StateReleased {
		return s.illegalState("Release")
	}
	s.state = multisource.StateReleased
	s.streams = nil
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// mp4TrackStream queues the samples of one stream of an MP4Source.
type mp4TrackStream struct {
	source  *MP4Source
	group   int
	samples []multisource.Sample
}

func (ts *mp4TrackStream) IsReady() bool {
	return len(ts.samples) > 0 || ts.source.eos
}

func (ts *mp4TrackStream) ReadSample() (multisource.Sample, error) {
	if len(ts.samples) > 0 {
		sample := ts.samples[0]
		ts.samples[0] = multisource.Sample{}
		ts.samples = ts.samples[1:]
		return sample, nil
	}
	if ts.source.eos {
		return multisource.Sample{}, io.EOF
	}
	return multisource.Sample{}, multisource.ErrNoSample
}
