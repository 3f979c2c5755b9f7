package redis

import (
	"fmt"

	"github.com/tunehive/partyhub/internal/model"
)

// Key prefix for all party-related data
const keyPrefix = "partyhub"

// partyKey returns the Redis key for a Party aggregate
func partyKey(id model.PartyID) string {
	return fmt.Sprintf("%s:party:%d", keyPrefix, id)
}

// partiesIndexKey returns the Redis key for the SET of all party ids
func partiesIndexKey() string {
	return fmt.Sprintf("%s:idx:parties", keyPrefix)
}

// activePartyKey returns the Redis key binding a user to their single
// active party. Created with SETNX, so the membership invariant is
// enforced by the store itself rather than by a read-then-write.
func activePartyKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:active_party:%d", keyPrefix, userID)
}

// songKey returns the Redis key for a Song
func songKey(id model.SongID) string {
	return fmt.Sprintf("%s:song:%d", keyPrefix, id)
}

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%d", keyPrefix, id)
}

// seqKey returns the Redis key for an id sequence counter
func seqKey(name string) string {
	return fmt.Sprintf("%s:seq:%s", keyPrefix, name)
}
