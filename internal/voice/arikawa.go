package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/voice"
	"github.com/diamondburned/arikawa/v3/voice/voicegateway"
	"go.uber.org/zap"
	"layeh.com/gopus"

	"github.com/knockerbot/knocker/internal/config"
	"github.com/knockerbot/knocker/pkg/audio"
)

// rtpPayloadType is the RTP header type byte Discord uses for opus audio.
// Anything else read off the socket is treated as a control packet.
const rtpPayloadType = 0x78

// silenceAfter is how long an SSRC may go without packets before the
// transport reports it as having stopped speaking.
const silenceAfter = 100 * time.Millisecond

// ArikawaTransport is the production Transport on the arikawa voice gateway.
type ArikawaTransport struct {
	logger  *zap.Logger
	session *session.Session
	state   *state.State
	decode  bool
}

// NewArikawaTransport creates the live Discord voice transport.
func NewArikawaTransport(logger *zap.Logger, ses *session.Session, st *state.State, cfg *config.Config) *ArikawaTransport {
	return &ArikawaTransport{
		logger:  logger,
		session: ses,
		state:   st,
		decode:  cfg.Voice.DecodeReceived,
	}
}

// Connect joins the voice channel and prepares the link for bidirectional
// audio. Event delivery starts once the caller subscribes a handler.
func (t *ArikawaTransport) Connect(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (Connection, error) {
	voiceSession, err := voice.NewSession(t.session)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice session: %w", err)
	}
	if err := voiceSession.JoinChannel(ctx, channelID, false, false); err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	if err := voiceSession.Speaking(ctx, voicegateway.Microphone); err != nil {
		return nil, fmt.Errorf("failed to set speaking mode: %w", err)
	}

	// arikawa does not fully establish the UDP socket until the first Write.
	// Without this, ReadPacket blocks forever; the empty write triggers the
	// UDP handshake and enables reception.
	_, _ = voiceSession.Write(nil)

	return &arikawaConnection{
		logger:    t.logger.With(zap.String("guild_id", guildID.String())),
		session:   t.session,
		state:     t.state,
		vs:        voiceSession,
		guildID:   guildID,
		channelID: channelID,
		decode:    t.decode,
		sources:   make(map[uint32]*sourceState),
		done:      make(chan struct{}),
	}, nil
}

// sourceState is the per-SSRC bookkeeping behind tick synthesis.
type sourceState struct {
	user       discord.UserID
	active     bool
	lastPacket time.Time
	pending    *RTPPacket
	pcm        []int16
	decoder    *gopus.Decoder
}

type arikawaConnection struct {
	logger    *zap.Logger
	session   *session.Session
	state     *state.State
	vs        *voice.Session
	guildID   discord.GuildID
	channelID discord.ChannelID
	decode    bool

	handler Handler

	mu      sync.Mutex
	sources map[uint32]*sourceState

	done      chan struct{}
	closeOnce sync.Once
	rmHandler func()
	wg        sync.WaitGroup
}

// Subscribe installs the handler and starts the receive and tick loops, plus
// a main-gateway listener that turns voice-state departures into
// ClientDisconnect events.
func (c *arikawaConnection) Subscribe(h Handler) {
	c.handler = h

	c.rmHandler = c.session.AddHandler(func(e *gateway.VoiceStateUpdateEvent) {
		if e.GuildID != c.guildID || e.ChannelID.IsValid() {
			return
		}
		if me, err := c.state.Me(); err == nil && e.UserID == me.ID {
			return
		}
		c.dropUser(e.UserID)
		c.handler.HandleEvent(ClientDisconnect{UserID: e.UserID})
	})

	c.wg.Add(2)
	go c.readLoop()
	go c.tickLoop()
}

func (c *arikawaConnection) SetMuteDeaf(ctx context.Context, mute, deaf bool) error {
	return c.vs.JoinChannel(ctx, c.channelID, mute, deaf)
}

func (c *arikawaConnection) WriteOpus(frame []byte) error {
	_, err := c.vs.Write(frame)
	return err
}

func (c *arikawaConnection) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.rmHandler != nil {
			c.rmHandler()
		}
		err = c.vs.Leave(ctx)
		c.wg.Wait()
	})
	return err
}

// readLoop drains the UDP socket, classifying each datagram and feeding the
// per-SSRC state behind tick synthesis. ReadPacket blocks; leaving the voice
// channel unblocks it with an error, which ends the loop.
func (c *arikawaConnection) readLoop() {
	defer c.wg.Done()
	for {
		packet, err := c.vs.ReadPacket()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Debug("Failed to read voice packet", zap.Error(err))
			continue
		}

		if packet.Type() != rtpPayloadType {
			c.handler.HandleEvent(RTCPPacket{Raw: packet.Opus})
			continue
		}

		ev := RTPPacket{
			SSRC:       packet.SSRC(),
			Sequence:   packet.Sequence(),
			Timestamp:  packet.Timestamp(),
			PayloadLen: len(packet.Opus),
		}
		c.handler.HandleEvent(ev)
		c.trackPacket(ev, packet.Opus)
	}
}

// trackPacket updates the SSRC's state and emits a SpeakingUpdate on the
// quiet-to-active edge.
func (c *arikawaConnection) trackPacket(ev RTPPacket, opusData []byte) {
	c.mu.Lock()
	src, ok := c.sources[ev.SSRC]
	if !ok {
		src = &sourceState{user: c.attributeSSRC(ev.SSRC)}
		if c.decode {
			decoder, err := gopus.NewDecoder(audio.SampleRate, audio.Channels)
			if err != nil {
				c.logger.Warn("Failed to create opus decoder", zap.Error(err))
			} else {
				src.decoder = decoder
			}
		}
		c.sources[ev.SSRC] = src
	}

	src.pending = &ev
	src.lastPacket = time.Now()
	if src.decoder != nil {
		pcm, err := src.decoder.Decode(opusData, audio.FrameSize, false)
		if err != nil {
			c.logger.Debug("Failed to decode opus frame", zap.Error(err))
		} else {
			src.pcm = pcm
		}
	}

	becameActive := !src.active
	src.active = true
	user := src.user
	c.mu.Unlock()

	if becameActive {
		c.handler.HandleEvent(SpeakingUpdate{SSRC: ev.SSRC, UserID: user, Speaking: true})
	}
}

// tickLoop emits one VoiceTick per frame interval, splitting known SSRCs into
// those that produced audio since the last tick and those that stayed quiet.
func (c *arikawaConnection) tickLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		speaking := make(map[uint32]TickFrame)
		var silent []uint32
		var stopped []SpeakingUpdate

		c.mu.Lock()
		now := time.Now()
		for ssrc, src := range c.sources {
			if src.pending != nil {
				speaking[ssrc] = TickFrame{Packet: src.pending, PCM: src.pcm}
				src.pending = nil
				src.pcm = nil
				continue
			}
			silent = append(silent, ssrc)
			if src.active && now.Sub(src.lastPacket) > silenceAfter {
				src.active = false
				stopped = append(stopped, SpeakingUpdate{SSRC: ssrc, UserID: src.user, Speaking: false})
			}
		}
		c.mu.Unlock()

		for _, update := range stopped {
			c.handler.HandleEvent(update)
		}
		c.handler.HandleEvent(VoiceTick{Speaking: speaking, Silent: silent})
	}
}

// attributeSSRC guesses which channel member owns a new SSRC. The voice
// gateway does not hand us the mapping directly, so when exactly one
// non-bot occupant is not yet bound to an SSRC, the new source must be
// theirs. Ambiguous cases stay unresolved (zero user ID).
func (c *arikawaConnection) attributeSSRC(ssrc uint32) discord.UserID {
	states, err := c.state.VoiceStates(c.guildID)
	if err != nil {
		c.logger.Debug("Failed to list voice states", zap.Error(err))
		return 0
	}
	me, err := c.state.Me()
	if err != nil {
		return 0
	}

	known := make(map[discord.UserID]bool, len(c.sources))
	for _, src := range c.sources {
		if src.user != 0 {
			known[src.user] = true
		}
	}

	var candidate discord.UserID
	for _, vs := range states {
		if vs.ChannelID != c.channelID || vs.UserID == me.ID || known[vs.UserID] {
			continue
		}
		if candidate != 0 {
			return 0 // more than one unbound occupant
		}
		candidate = vs.UserID
	}
	if candidate != 0 {
		c.logger.Debug("Attributed voice source",
			zap.Uint32("ssrc", ssrc),
			zap.String("user_id", candidate.String()),
		)
	}
	return candidate
}

// dropUser forgets every SSRC owned by a departed user.
func (c *arikawaConnection) dropUser(user discord.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ssrc, src := range c.sources {
		if src.user == user {
			delete(c.sources, ssrc)
		}
	}
}
