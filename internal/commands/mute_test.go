package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/voice"
)

func TestVoiceStateCommandReplies(t *testing.T) {
	mute := NewMuteCommand(zap.NewNop(), nil).(*voiceStateCommand)
	unmute := NewUnmuteCommand(zap.NewNop(), nil).(*voiceStateCommand)
	deafen := NewDeafenCommand(zap.NewNop(), nil).(*voiceStateCommand)
	undeafen := NewUndeafenCommand(zap.NewNop(), nil).(*voiceStateCommand)

	tests := []struct {
		name string
		cmd  *voiceStateCommand
		err  error
		want string
	}{
		{"MuteSuccess", mute, nil, "I'm now muted."},
		{"MuteAlready", mute, voice.ErrAlreadyInState, "I'm already muted."},
		{"MuteNoSession", mute, voice.ErrSessionNotFound, "I'm not in a voice channel."},
		{"UnmuteSuccess", unmute, nil, "I'm now unmuted."},
		{"UnmuteAlready", unmute, voice.ErrAlreadyInState, "I'm already unmuted."},
		{"DeafenSuccess", deafen, nil, "I'm now deafened."},
		{"DeafenAlready", deafen, voice.ErrAlreadyInState, "I'm already deafened."},
		{"UndeafenSuccess", undeafen, nil, "I'm now undeafened."},
		{"UndeafenAlready", undeafen, voice.ErrAlreadyInState, "I'm already undeafened."},
		{"WrappedSentinel", mute, fmt.Errorf("registry: %w", voice.ErrAlreadyInState), "I'm already muted."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.reply(tt.err))
		})
	}
}

func TestVoiceStateCommandReplyTransportFailure(t *testing.T) {
	mute := NewMuteCommand(zap.NewNop(), nil).(*voiceStateCommand)

	got := mute.reply(errors.New("gateway down"))
	assert.Contains(t, got, "Failed to update voice state")
	assert.NotContains(t, got, "I'm now muted.")
}

func TestVoiceStateCommandMetadata(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range []Command{
		NewMuteCommand(zap.NewNop(), nil),
		NewUnmuteCommand(zap.NewNop(), nil),
		NewDeafenCommand(zap.NewNop(), nil),
		NewUndeafenCommand(zap.NewNop(), nil),
	} {
		assert.NotEmpty(t, cmd.Name())
		assert.NotEmpty(t, cmd.Description())
		assert.Nil(t, cmd.Options())
		names[cmd.Name()] = true
	}
	assert.Len(t, names, 4)
}
