package voice

import (
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"
)

// UnknownParticipant is the display label for an SSRC with no known mapping.
const UnknownParticipant = "?"

// ParticipantDirectory maps RTP source identifiers (SSRCs) to Discord users.
// It is safe for concurrent use; concurrent assignments to the same SSRC
// resolve last-write-wins.
type ParticipantDirectory struct {
	m sync.Map // uint32 -> discord.UserID
}

// Assign records that ssrc belongs to user, replacing any prior mapping.
func (d *ParticipantDirectory) Assign(ssrc uint32, user discord.UserID) {
	d.m.Store(ssrc, user)
}

// Lookup returns the user mapped to ssrc, if any.
func (d *ParticipantDirectory) Lookup(ssrc uint32) (discord.UserID, bool) {
	v, ok := d.m.Load(ssrc)
	if !ok {
		return 0, false
	}
	return v.(discord.UserID), true
}

// Resolve returns a display label for ssrc: the mapped user ID, or
// UnknownParticipant when no mapping exists yet.
func (d *ParticipantDirectory) Resolve(ssrc uint32) string {
	user, ok := d.Lookup(ssrc)
	if !ok {
		return UnknownParticipant
	}
	return user.String()
}

// RemoveUser drops every SSRC currently mapped to user and returns how many
// mappings were removed.
func (d *ParticipantDirectory) RemoveUser(user discord.UserID) int {
	removed := 0
	d.m.Range(func(key, value any) bool {
		if value.(discord.UserID) == user {
			d.m.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len reports the number of tracked SSRC mappings.
func (d *ParticipantDirectory) Len() int {
	n := 0
	d.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
