package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

var (
	// ErrSessionNotFound is returned by session operations when the guild has
	// no active voice session.
	ErrSessionNotFound = errors.New("no voice session for this guild")

	// ErrAlreadyInState is returned by SetMute and SetDeafen when the session
	// already holds the requested state.
	ErrAlreadyInState = errors.New("session already in requested state")

	// ErrPlaybackBusy is returned when a session's playback queue is full.
	ErrPlaybackBusy = errors.New("playback queue full")
)

// Registry owns the per-guild voice sessions. A guild has at most one session
// at a time; joining while one exists replaces it.
type Registry struct {
	logger    *zap.Logger
	transport Transport
	queueSize int

	mu       sync.RWMutex
	sessions map[discord.GuildID]*Session
}

// NewRegistry creates an empty session registry on the given transport.
func NewRegistry(logger *zap.Logger, cfg *config.Config, transport Transport) *Registry {
	return &Registry{
		logger:    logger,
		transport: transport,
		queueSize: cfg.Voice.PlaybackQueueSize,
		sessions:  make(map[discord.GuildID]*Session),
	}
}

// Join connects to a voice channel and registers the resulting session under
// the guild. Any existing session for the guild is closed first, so the newest
// join always wins.
func (r *Registry) Join(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (*Session, error) {
	r.mu.Lock()
	old := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if old != nil {
		r.logger.Info("Replacing existing voice session",
			zap.String("guild_id", guildID.String()),
			zap.String("old_channel_id", old.ChannelID.String()),
		)
		if err := old.close(ctx); err != nil {
			r.logger.Warn("Failed to close replaced voice session", zap.Error(err))
		}
	}

	conn, err := r.transport.Connect(ctx, guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice channel: %w", err)
	}

	session := newSession(r.logger.With(zap.String("guild_id", guildID.String())), guildID, channelID, conn, r.queueSize)
	conn.Subscribe(session.router)
	session.startPlayback()

	// Two joins for the same guild may race past the delete above; the last
	// store wins, and the displaced session must still release its link.
	r.mu.Lock()
	displaced := r.sessions[guildID]
	r.sessions[guildID] = session
	r.mu.Unlock()

	if displaced != nil {
		r.logger.Warn("Closing voice session displaced by concurrent join",
			zap.String("guild_id", guildID.String()),
		)
		if err := displaced.close(ctx); err != nil {
			r.logger.Warn("Failed to close displaced voice session", zap.Error(err))
		}
	}

	r.logger.Info("Joined voice channel",
		zap.String("guild_id", guildID.String()),
		zap.String("channel_id", channelID.String()),
	)
	return session, nil
}

// Leave closes and removes the guild's session.
func (r *Registry) Leave(ctx context.Context, guildID discord.GuildID) error {
	r.mu.Lock()
	session, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if err := session.close(ctx); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	r.logger.Info("Left voice channel", zap.String("guild_id", guildID.String()))
	return nil
}

// Get returns the guild's active session, if any.
func (r *Registry) Get(guildID discord.GuildID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[guildID]
	return session, ok
}

// SetMute sets the bot's self-mute flag on the guild's session. It returns
// ErrAlreadyInState when the flag already matches, and leaves state untouched
// when the transport rejects the change.
func (r *Registry) SetMute(ctx context.Context, guildID discord.GuildID, mute bool) error {
	session, ok := r.Get(guildID)
	if !ok {
		return ErrSessionNotFound
	}
	return session.setMute(ctx, mute)
}

// SetDeafen sets the bot's self-deafen flag on the guild's session, with the
// same contract as SetMute.
func (r *Registry) SetDeafen(ctx context.Context, guildID discord.GuildID, deaf bool) error {
	session, ok := r.Get(guildID)
	if !ok {
		return ErrSessionNotFound
	}
	return session.setDeafen(ctx, deaf)
}

// Shutdown closes every active session. Used on process teardown.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[discord.GuildID]*Session)
	r.mu.Unlock()

	for guildID, session := range sessions {
		if err := session.close(ctx); err != nil {
			r.logger.Warn("Failed to close voice session on shutdown",
				zap.String("guild_id", guildID.String()),
				zap.Error(err),
			)
		}
	}
}

// Session is one active voice-channel membership: a transport connection, its
// event router and a playback queue drained by a background worker.
type Session struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID

	logger *zap.Logger
	conn   Connection
	router *Router

	mu       sync.Mutex
	muted    bool
	deafened bool

	queue chan string
	done  chan struct{}
	wg    sync.WaitGroup
}

func newSession(logger *zap.Logger, guildID discord.GuildID, channelID discord.ChannelID, conn Connection, queueSize int) *Session {
	return &Session{
		GuildID:   guildID,
		ChannelID: channelID,
		logger:    logger,
		conn:      conn,
		router:    NewRouter(logger),
		queue:     make(chan string, queueSize),
		done:      make(chan struct{}),
	}
}

// Router exposes the session's event router.
func (s *Session) Router() *Router {
	return s.router
}

// Muted reports the bot's current self-mute flag.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Deafened reports the bot's current self-deafen flag.
func (s *Session) Deafened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deafened
}

// setMuteDeaf updates one or both self flags. A nil pointer leaves that flag
// unchanged. The state only advances after the transport accepts the change.
func (s *Session) setMuteDeaf(ctx context.Context, mute, deaf *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextMute, nextDeaf := s.muted, s.deafened
	if mute != nil {
		nextMute = *mute
	}
	if deaf != nil {
		nextDeaf = *deaf
	}
	if nextMute == s.muted && nextDeaf == s.deafened {
		return ErrAlreadyInState
	}
	if err := s.conn.SetMuteDeaf(ctx, nextMute, nextDeaf); err != nil {
		return fmt.Errorf("failed to update voice state: %w", err)
	}
	s.muted, s.deafened = nextMute, nextDeaf
	return nil
}

func (s *Session) setMute(ctx context.Context, mute bool) error {
	return s.setMuteDeaf(ctx, &mute, nil)
}

func (s *Session) setDeafen(ctx context.Context, deaf bool) error {
	return s.setMuteDeaf(ctx, nil, &deaf)
}

func (s *Session) close(ctx context.Context) error {
	close(s.done)
	s.wg.Wait()
	return s.conn.Close(ctx)
}
