package voice

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
	"layeh.com/gopus"

	"github.com/knockerbot/knocker/pkg/audio"
)

const (
	// frameDuration is the wall-clock span of one opus frame.
	frameDuration = 20 * time.Millisecond

	// maxOpusFrameBytes bounds the encoded size of a single frame.
	maxOpusFrameBytes = 4000
)

// Synthesizer renders text to a speech audio artifact and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Orchestrator ties the conversational services to the session registry: it
// turns text into speech and schedules it on a guild's playback queue.
type Orchestrator struct {
	logger      *zap.Logger
	registry    *Registry
	synthesizer Synthesizer
}

// NewOrchestrator creates a playback orchestrator over the registry.
func NewOrchestrator(logger *zap.Logger, registry *Registry, synthesizer Synthesizer) *Orchestrator {
	return &Orchestrator{
		logger:      logger,
		registry:    registry,
		synthesizer: synthesizer,
	}
}

// Speak synthesizes text and enqueues the result on the guild's playback
// queue. It returns ErrSessionNotFound when the guild has no voice session
// and ErrPlaybackBusy when the queue is full; actual playback happens
// asynchronously.
func (o *Orchestrator) Speak(ctx context.Context, guildID discord.GuildID, text string) error {
	session, ok := o.registry.Get(guildID)
	if !ok {
		return ErrSessionNotFound
	}
	path, err := o.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	o.logger.Debug("Queueing speech playback",
		zap.String("guild_id", guildID.String()),
		zap.String("path", path),
	)
	return session.EnqueuePlayback(path)
}

// EnqueuePlayback schedules an mp3 artifact for playback. The call never
// blocks; a full queue yields ErrPlaybackBusy.
func (s *Session) EnqueuePlayback(path string) error {
	select {
	case s.queue <- path:
		return nil
	default:
		return ErrPlaybackBusy
	}
}

// startPlayback launches the session's playback worker. The worker owns the
// opus encoder; frames are encoded and written one at a time at the frame
// cadence.
func (s *Session) startPlayback() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		encoder, err := gopus.NewEncoder(audio.SampleRate, audio.Channels, gopus.Voip)
		if err != nil {
			s.logger.Error("Failed to create opus encoder, playback disabled", zap.Error(err))
			encoder = nil
		}
		for {
			select {
			case <-s.done:
				return
			case path := <-s.queue:
				if encoder == nil {
					continue
				}
				if err := s.playFile(encoder, path); err != nil {
					s.logger.Error("Playback failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
			}
		}
	}()
}

// playFile decodes one mp3 artifact, resamples it to the voice channel's
// format and streams it frame by frame.
func (s *Session) playFile(encoder *gopus.Encoder, path string) error {
	samples, err := loadMP3(path)
	if err != nil {
		return err
	}
	frames := audio.Frames(samples, audio.FrameSamples)

	s.logger.Info("Playing audio",
		zap.String("path", path),
		zap.Int("frames", len(frames)),
	)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for _, frame := range frames {
		opusFrame, err := encoder.Encode(frame, audio.FrameSize, maxOpusFrameBytes)
		if err != nil {
			return fmt.Errorf("failed to encode audio frame: %w", err)
		}
		select {
		case <-s.done:
			return nil
		case <-ticker.C:
		}
		if err := s.conn.WriteOpus(opusFrame); err != nil {
			return fmt.Errorf("failed to write audio frame: %w", err)
		}
	}
	return nil
}

// loadMP3 decodes an mp3 file into interleaved stereo PCM at the playback
// sample rate.
func loadMP3(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to read mp3 stream: %w", err)
	}

	samples := audio.LEToPCMInt16(raw)
	return audio.ResampleStereo(samples, decoder.SampleRate(), audio.SampleRate), nil
}
