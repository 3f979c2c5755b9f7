package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/storage"
)

// maxTxRetries bounds optimistic-lock retries on party aggregate updates
const maxTxRetries = 5

// Storage is a Redis-backed implementation of the storage interface.
//
// Each party is one JSON blob updated under WATCH, and the per-user
// active-party index keys are claimed with SETNX, so concurrent joins by
// the same user against different parties cannot both succeed.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) nextID(ctx context.Context, name string) (int64, error) {
	return s.client.Incr(ctx, seqKey(name)).Result()
}

func (s *Storage) getPartyByKey(ctx context.Context, key string) (*model.Party, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPartyNotFound
		}
		return nil, err
	}

	var party model.Party
	if err := json.Unmarshal(data, &party); err != nil {
		return nil, err
	}
	return &party, nil
}

// conflictForUser classifies why a user's active-party index key already
// exists: hosting that party, or participating in it.
func (s *Storage) conflictForUser(ctx context.Context, userID model.UserID) error {
	idStr, err := s.client.Get(ctx, activePartyKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Index vanished between the failed SETNX and now; treat
			// as a generic membership conflict
			return model.ErrAlreadyInParty
		}
		return err
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return model.ErrAlreadyInParty
	}
	party, err := s.getPartyByKey(ctx, partyKey(model.PartyID(id)))
	if err == nil && party.HostUserID == userID {
		return model.ErrAlreadyHosting
	}
	return model.ErrAlreadyInParty
}

// claimActiveParty atomically binds a user to a party, failing with a
// membership conflict if the user is already bound to one.
func (s *Storage) claimActiveParty(ctx context.Context, userID model.UserID, partyID model.PartyID) error {
	ok, err := s.client.SetNX(ctx, activePartyKey(userID), int64(partyID), s.cfg.PartyTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return s.conflictForUser(ctx, userID)
	}
	return nil
}

func (s *Storage) saveParty(ctx context.Context, pipe redis.Pipeliner, party *model.Party) error {
	data, err := json.Marshal(party)
	if err != nil {
		return err
	}
	pipe.Set(ctx, partyKey(party.ID), data, s.cfg.PartyTTL)
	pipe.SAdd(ctx, partiesIndexKey(), int64(party.ID))
	return nil
}

// mutateParty performs an optimistic read-modify-write of a party
// aggregate under WATCH, retrying on concurrent modification.
func (s *Storage) mutateParty(ctx context.Context, id model.PartyID, mutate func(*model.Party) error) (*model.Party, error) {
	key := partyKey(id)

	var result *model.Party
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPartyNotFound
			}
			return err
		}

		var party model.Party
		if err := json.Unmarshal(data, &party); err != nil {
			return err
		}

		if err := mutate(&party); err != nil {
			return err
		}

		updated, err := json.Marshal(&party)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.cfg.PartyTTL)
			return nil
		})
		if err != nil {
			return err
		}

		result = &party
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, redis.TxFailedErr
}

// Party operations

func (s *Storage) CreateParty(ctx context.Context, party *model.Party) (*model.Party, error) {
	partyID, err := s.nextID(ctx, "party")
	if err != nil {
		return nil, err
	}
	participantID, err := s.nextID(ctx, "participant")
	if err != nil {
		return nil, err
	}
	playlistID, err := s.nextID(ctx, "playlist")
	if err != nil {
		return nil, err
	}

	stored := *party
	stored.ID = model.PartyID(partyID)
	stored.Participants = []model.Participant{
		{
			ID:       participantID,
			PartyID:  stored.ID,
			UserID:   party.HostUserID,
			Role:     model.RoleHost,
			JoinedAt: party.CreatedAt,
		},
	}
	stored.Playlist = model.Playlist{
		ID:      playlistID,
		PartyID: stored.ID,
		Entries: []model.PlaylistEntry{},
	}

	if err := s.claimActiveParty(ctx, party.HostUserID, stored.ID); err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	if err := s.saveParty(ctx, pipe, &stored); err != nil {
		return nil, err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// The party was never written; release the host binding
		s.client.Del(ctx, activePartyKey(party.HostUserID))
		return nil, err
	}

	return &stored, nil
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	return s.getPartyByKey(ctx, partyKey(id))
}

func (s *Storage) ListParties(ctx context.Context) ([]*model.Party, error) {
	ids, err := s.client.SMembers(ctx, partiesIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Party{}, nil
	}

	keys := make([]string, len(ids))
	for i, idStr := range ids {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		keys[i] = partyKey(model.PartyID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	parties := make([]*model.Party, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Party may have expired
		}
		var party model.Party
		if err := json.Unmarshal([]byte(val.(string)), &party); err != nil {
			continue
		}
		parties = append(parties, &party)
	}
	return parties, nil
}

func (s *Storage) UpdateParty(ctx context.Context, id model.PartyID, patch model.PartyPatch) (*model.Party, error) {
	var endedMembers []model.UserID

	party, err := s.mutateParty(ctx, id, func(p *model.Party) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Status != nil {
			// Ended is terminal; a party cannot come back
			if p.Status == model.PartyStatusEnded && *patch.Status != model.PartyStatusEnded {
				return model.ErrPartyNotActive
			}
			p.Status = *patch.Status
			if *patch.Status == model.PartyStatusEnded {
				for _, m := range p.Participants {
					endedMembers = append(endedMembers, m.UserID)
				}
			}
		}
		p.UpdatedAt = patch.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	// An ended party no longer binds its members
	if len(endedMembers) > 0 {
		pipe := s.client.Pipeline()
		for _, userID := range endedMembers {
			pipe.Del(ctx, activePartyKey(userID))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	return party, nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	party, err := s.getPartyByKey(ctx, partyKey(id))
	if err != nil {
		return err
	}

	// Cascade: the aggregate carries participants and playlist, so
	// deleting the blob removes them; index keys are cleared alongside
	pipe := s.client.Pipeline()
	pipe.Del(ctx, partyKey(id))
	pipe.SRem(ctx, partiesIndexKey(), int64(id))
	for _, m := range party.Participants {
		pipe.Del(ctx, activePartyKey(m.UserID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Participant operations

func (s *Storage) AddParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID, role model.ParticipantRole, joinedAt time.Time) (*model.Participant, error) {
	// Claim the user's membership slot first; this is the cross-party
	// invariant, and SETNX makes it first-writer-wins
	if err := s.claimActiveParty(ctx, userID, partyID); err != nil {
		return nil, err
	}

	participantID, err := s.nextID(ctx, "participant")
	if err != nil {
		s.client.Del(ctx, activePartyKey(userID))
		return nil, err
	}

	var participant model.Participant
	_, err = s.mutateParty(ctx, partyID, func(p *model.Party) error {
		if !p.IsActive() {
			return model.ErrPartyNotActive
		}
		if p.GetParticipant(userID) != nil {
			return model.ErrAlreadyInParty
		}
		participant = model.Participant{
			ID:       participantID,
			PartyID:  partyID,
			UserID:   userID,
			Role:     role,
			JoinedAt: joinedAt,
		}
		p.Participants = append(p.Participants, participant)
		return nil
	})
	if err != nil {
		// The join never committed; release the membership slot
		s.client.Del(ctx, activePartyKey(userID))
		return nil, err
	}

	return &participant, nil
}

func (s *Storage) RemoveParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID) (*model.Participant, error) {
	var removed *model.Participant
	_, err := s.mutateParty(ctx, partyID, func(p *model.Party) error {
		for i, m := range p.Participants {
			if m.UserID == userID {
				r := m
				removed = &r
				p.Participants = append(p.Participants[:i], p.Participants[i+1:]...)
				return nil
			}
		}
		return model.ErrParticipantNotFound
	})
	if err != nil {
		if errors.Is(err, model.ErrPartyNotFound) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}

	if err := s.client.Del(ctx, activePartyKey(userID)).Err(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Storage) FindActivePartyForUser(ctx context.Context, userID model.UserID) (*model.Party, error) {
	idStr, err := s.client.Get(ctx, activePartyKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoActiveParty
		}
		return nil, err
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, model.ErrNoActiveParty
	}

	party, err := s.getPartyByKey(ctx, partyKey(model.PartyID(id)))
	if err != nil {
		if errors.Is(err, model.ErrPartyNotFound) {
			return nil, model.ErrNoActiveParty
		}
		return nil, err
	}
	if !party.IsActive() {
		return nil, model.ErrNoActiveParty
	}
	return party, nil
}

// Playlist operations

func (s *Storage) InsertPlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID, addedBy model.UserID, addedAt time.Time) (*model.PlaylistEntry, error) {
	entryID, err := s.nextID(ctx, "entry")
	if err != nil {
		return nil, err
	}

	var entry model.PlaylistEntry
	_, err = s.mutateParty(ctx, partyID, func(p *model.Party) error {
		if !p.IsActive() {
			return model.ErrPartyNotActive
		}
		entry = model.PlaylistEntry{
			ID:            entryID,
			PlaylistID:    p.Playlist.ID,
			SongID:        songID,
			AddedByUserID: addedBy,
			Position:      p.Playlist.NextPosition(),
			AddedAt:       addedAt,
		}
		p.Playlist.Entries = append(p.Playlist.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) RemovePlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID) (*model.PlaylistEntry, error) {
	var removed *model.PlaylistEntry
	_, err := s.mutateParty(ctx, partyID, func(p *model.Party) error {
		if !p.IsActive() {
			return model.ErrPartyNotActive
		}
		for i, e := range p.Playlist.Entries {
			if e.SongID == songID {
				r := e
				removed = &r
				// Positions of remaining entries are left untouched
				p.Playlist.Entries = append(p.Playlist.Entries[:i], p.Playlist.Entries[i+1:]...)
				return nil
			}
		}
		return model.ErrSongNotInPlaylist
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Song catalog operations

func (s *Storage) SaveSong(ctx context.Context, song *model.Song) error {
	data, err := json.Marshal(song)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, songKey(song.ID), data, s.cfg.CatalogTTL).Err()
}

func (s *Storage) GetSong(ctx context.Context, id model.SongID) (*model.Song, error) {
	data, err := s.client.Get(ctx, songKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSongNotFound
		}
		return nil, err
	}

	var song model.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(user.ID), data, s.cfg.CatalogTTL).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
