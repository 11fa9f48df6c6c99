// Package voice implements the voice-session engine: per-guild session
// registry, transport event routing, SSRC participant tracking and speech
// playback.
package voice

import (
	"github.com/diamondburned/arikawa/v3/discord"
)

// Event is one occurrence delivered by the voice transport. The set of kinds
// is closed; the transport subscription only produces the five types below
// and the router treats anything else as a programming error.
type Event interface {
	voiceEvent()
}

// SpeakingUpdate reports a speaking-state transition for one SSRC. UserID is
// zero when the transport could not resolve the participant's identity.
type SpeakingUpdate struct {
	SSRC     uint32
	UserID   discord.UserID
	Speaking bool
}

// RTPPacket reports the arrival of one raw voice packet.
type RTPPacket struct {
	SSRC       uint32
	Sequence   uint16
	Timestamp  uint32
	PayloadLen int
}

// RTCPPacket reports the arrival of one raw control packet.
type RTCPPacket struct {
	Raw []byte
}

// TickFrame describes one speaker's contribution to a voice tick. Packet is
// nil when no raw packet accompanied the frame; PCM is nil when decoding is
// disabled.
type TickFrame struct {
	Packet *RTPPacket
	PCM    []int16
}

// VoiceTick reports one 20 ms sampling interval: which SSRCs produced audio
// and which known SSRCs stayed quiet.
type VoiceTick struct {
	Speaking map[uint32]TickFrame
	Silent   []uint32
}

// ClientDisconnect reports that a participant left the voice channel.
type ClientDisconnect struct {
	UserID discord.UserID
}

func (SpeakingUpdate) voiceEvent()   {}
func (RTPPacket) voiceEvent()        {}
func (RTCPPacket) voiceEvent()       {}
func (VoiceTick) voiceEvent()        {}
func (ClientDisconnect) voiceEvent() {}

// Handler consumes transport events. The transport may deliver speaking
// updates concurrently with tick and packet delivery for the same session.
type Handler interface {
	HandleEvent(ev Event)
}
