package voice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/knockerbot/knocker/internal/config"
)

type fakeConnection struct {
	mu sync.Mutex

	handler     Handler
	muteCalls   []bool
	deafCalls   []bool
	muteDeafErr error
	opusFrames  int
	closed      bool
}

func (c *fakeConnection) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *fakeConnection) SetMuteDeaf(_ context.Context, mute, deaf bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muteDeafErr != nil {
		return c.muteDeafErr
	}
	c.muteCalls = append(c.muteCalls, mute)
	c.deafCalls = append(c.deafCalls, deaf)
	return nil
}

func (c *fakeConnection) WriteOpus(_ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opusFrames++
	return nil
}

func (c *fakeConnection) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeTransport struct {
	mu          sync.Mutex
	connections []*fakeConnection
	connectErr  error
}

func (t *fakeTransport) Connect(context.Context, discord.GuildID, discord.ChannelID) (Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	conn := &fakeConnection{}
	t.connections = append(t.connections, conn)
	return conn, nil
}

func newTestRegistry(t *testing.T, transport Transport) *Registry {
	t.Helper()
	cfg := &config.Config{Voice: config.VoiceConfig{PlaybackQueueSize: 2}}
	registry := NewRegistry(zaptest.NewLogger(t), cfg, transport)
	t.Cleanup(func() { registry.Shutdown(context.Background()) })
	return registry
}

const (
	testGuild   = discord.GuildID(1111)
	testChannel = discord.ChannelID(2222)
)

func TestRegistryJoinCreatesSession(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	session, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)
	assert.Equal(t, testGuild, session.GuildID)
	assert.Equal(t, testChannel, session.ChannelID)

	got, ok := registry.Get(testGuild)
	require.True(t, ok)
	assert.Same(t, session, got)

	require.Len(t, transport.connections, 1)
	assert.NotNil(t, transport.connections[0].handler, "router must be subscribed before events flow")
}

func TestRegistryJoinReplacesExistingSession(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	first, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	second, err := registry.Join(context.Background(), testGuild, discord.ChannelID(3333))
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	require.Len(t, transport.connections, 2)
	assert.True(t, transport.connections[0].isClosed(), "replaced session must release its connection")
	assert.False(t, transport.connections[1].isClosed())

	got, ok := registry.Get(testGuild)
	require.True(t, ok)
	assert.Same(t, second, got)
}

// gatedTransport blocks every Connect until released, so tests can line up
// concurrent joins at a chosen point.
type gatedTransport struct {
	fakeTransport
	entered chan struct{}
	release chan struct{}
}

func (t *gatedTransport) Connect(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (Connection, error) {
	t.entered <- struct{}{}
	<-t.release
	return t.fakeTransport.Connect(ctx, guildID, channelID)
}

func TestRegistryConcurrentJoinsReleaseLoser(t *testing.T) {
	transport := &gatedTransport{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	registry := newTestRegistry(t, transport)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Join(context.Background(), testGuild, testChannel)
			assert.NoError(t, err)
		}()
	}

	// Both joins are past the replace phase and parked in Connect.
	<-transport.entered
	<-transport.entered
	close(transport.release)
	wg.Wait()

	require.Len(t, transport.connections, 2)
	require.NoError(t, registry.Leave(context.Background(), testGuild))

	closed := 0
	for _, conn := range transport.connections {
		if conn.isClosed() {
			closed++
		}
	}
	assert.Equal(t, 2, closed, "the join that lost the race must release its connection")
}

func TestRegistryJoinTransportFailure(t *testing.T) {
	transport := &fakeTransport{connectErr: errors.New("gateway down")}
	registry := newTestRegistry(t, transport)

	_, err := registry.Join(context.Background(), testGuild, testChannel)
	require.Error(t, err)

	_, ok := registry.Get(testGuild)
	assert.False(t, ok, "failed join must not leave a session behind")
}

func TestRegistryLeave(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	_, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	require.NoError(t, registry.Leave(context.Background(), testGuild))
	assert.True(t, transport.connections[0].isClosed())

	_, ok := registry.Get(testGuild)
	assert.False(t, ok)

	assert.ErrorIs(t, registry.Leave(context.Background(), testGuild), ErrSessionNotFound)
}

func TestRegistryJoinLeaveJoin(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	_, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)
	require.NoError(t, registry.Leave(context.Background(), testGuild))

	session, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	got, ok := registry.Get(testGuild)
	require.True(t, ok)
	assert.Same(t, session, got)
}

func TestRegistrySetMute(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	assert.ErrorIs(t, registry.SetMute(context.Background(), testGuild, true), ErrSessionNotFound)

	session, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	require.NoError(t, registry.SetMute(context.Background(), testGuild, true))
	assert.True(t, session.Muted())

	assert.ErrorIs(t, registry.SetMute(context.Background(), testGuild, true), ErrAlreadyInState)
	assert.ErrorIs(t, registry.SetDeafen(context.Background(), testGuild, false), ErrAlreadyInState)

	require.NoError(t, registry.SetMute(context.Background(), testGuild, false))
	assert.False(t, session.Muted())

	conn := transport.connections[0]
	assert.Equal(t, []bool{true, false}, conn.muteCalls)
}

func TestRegistrySetDeafenKeepsMuteFlag(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	session, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	require.NoError(t, registry.SetMute(context.Background(), testGuild, true))
	require.NoError(t, registry.SetDeafen(context.Background(), testGuild, true))
	assert.True(t, session.Muted())
	assert.True(t, session.Deafened())

	conn := transport.connections[0]
	// The deafen push must carry the still-muted flag alongside it.
	assert.Equal(t, []bool{true, true}, conn.muteCalls)
	assert.Equal(t, []bool{false, true}, conn.deafCalls)
}

func TestRegistrySetMuteTransportFailureLeavesState(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	session, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)

	transport.connections[0].muteDeafErr = errors.New("gateway down")

	err = registry.SetMute(context.Background(), testGuild, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyInState)
	assert.False(t, session.Muted(), "state must not advance on transport failure")
}

func TestRegistryShutdownClosesAllSessions(t *testing.T) {
	transport := &fakeTransport{}
	registry := newTestRegistry(t, transport)

	_, err := registry.Join(context.Background(), testGuild, testChannel)
	require.NoError(t, err)
	_, err = registry.Join(context.Background(), discord.GuildID(5555), testChannel)
	require.NoError(t, err)

	registry.Shutdown(context.Background())

	for _, conn := range transport.connections {
		assert.True(t, conn.isClosed())
	}
	_, ok := registry.Get(testGuild)
	assert.False(t, ok)
}
