package voice

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// pcmSampleHead caps how many decoded samples a tick record carries.
const pcmSampleHead = 5

// Router demultiplexes the transport event stream for one session: it keeps
// the SSRC participant directory current, records speaking activity per tick
// and logs raw packet arrivals. One router serves one voice session; its
// HandleEvent may be invoked from multiple transport goroutines.
type Router struct {
	logger    *zap.Logger
	directory *ParticipantDirectory

	// quietLogged is the edge trigger for the aggregator: true once a
	// no-speakers record has been emitted, cleared by the next active tick.
	quietLogged atomic.Bool
}

// NewRouter creates a router with an empty participant directory.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		logger:    logger,
		directory: &ParticipantDirectory{},
	}
}

// Directory exposes the router's SSRC participant directory.
func (r *Router) Directory() *ParticipantDirectory {
	return r.directory
}

// HandleEvent dispatches one transport event. Passing a kind outside the
// event set panics.
func (r *Router) HandleEvent(ev Event) {
	switch ev := ev.(type) {
	case SpeakingUpdate:
		r.handleSpeakingUpdate(ev)
	case VoiceTick:
		r.handleTick(ev)
	case RTPPacket:
		r.logger.Debug("Received voice packet",
			zap.Uint32("ssrc", ev.SSRC),
			zap.Uint16("sequence", ev.Sequence),
			zap.Uint32("timestamp", ev.Timestamp),
			zap.Int("payload_bytes", ev.PayloadLen),
		)
	case RTCPPacket:
		r.logger.Debug("Received control packet", zap.Int("bytes", len(ev.Raw)))
	case ClientDisconnect:
		removed := r.directory.RemoveUser(ev.UserID)
		r.logger.Info("Participant disconnected",
			zap.String("user_id", ev.UserID.String()),
			zap.Int("mappings_removed", removed),
		)
	default:
		panic(fmt.Sprintf("voice: unhandled event type %T", ev))
	}
}

func (r *Router) handleSpeakingUpdate(ev SpeakingUpdate) {
	if ev.UserID == 0 {
		r.logger.Debug("Speaking state update without participant",
			zap.Uint32("ssrc", ev.SSRC),
			zap.Bool("speaking", ev.Speaking),
		)
		return
	}
	// The mapping is upserted regardless of the speaking flag; a "stopped
	// speaking" update still tells us who owns the SSRC.
	r.directory.Assign(ev.SSRC, ev.UserID)
	r.logger.Info("Speaking state update",
		zap.Uint32("ssrc", ev.SSRC),
		zap.String("user_id", ev.UserID.String()),
		zap.Bool("speaking", ev.Speaking),
	)
}

func (r *Router) handleTick(ev VoiceTick) {
	total := len(ev.Speaking) + len(ev.Silent)

	if len(ev.Speaking) == 0 {
		// Edge-triggered: exactly one record per contiguous quiet span,
		// even when ticks race.
		if r.quietLogged.CompareAndSwap(false, true) {
			r.logger.Info("No speakers", zap.Int("participants", total))
		}
		return
	}
	r.quietLogged.Store(false)

	for ssrc, frame := range ev.Speaking {
		fields := []zap.Field{
			zap.String("participant", r.directory.Resolve(ssrc)),
			zap.Uint32("ssrc", ssrc),
		}
		if frame.Packet != nil {
			fields = append(fields,
				zap.Uint16("sequence", frame.Packet.Sequence),
				zap.Uint32("timestamp", frame.Packet.Timestamp),
			)
		} else {
			fields = append(fields, zap.Bool("missed_packet", true))
		}
		if frame.PCM != nil {
			head := frame.PCM
			if len(head) > pcmSampleHead {
				head = head[:pcmSampleHead]
			}
			fields = append(fields,
				zap.Int("samples", len(frame.PCM)),
				zap.Int16s("sample_head", head),
			)
		} else {
			// Decoding disabled: the record still carries the count.
			fields = append(fields, zap.Int("samples", 0))
		}
		r.logger.Info("Speaking", fields...)
	}
}
