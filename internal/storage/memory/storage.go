package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
//
// All mutations happen under one mutex, so the membership invariant checks
// and the writes they guard are a single critical section. Aggregates are
// deep-copied on the way in and out so callers never share state with the
// store.
type Storage struct {
	mu sync.RWMutex

	parties map[model.PartyID]*model.Party
	songs   map[model.SongID]*model.Song
	users   map[model.UserID]*model.User

	// activeParty maps a user to the single active party they host or
	// participate in. Kept in lockstep with party contents.
	activeParty map[model.UserID]model.PartyID

	nextPartyID       int64
	nextParticipantID int64
	nextPlaylistID    int64
	nextEntryID       int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		parties:     make(map[model.PartyID]*model.Party),
		songs:       make(map[model.SongID]*model.Song),
		users:       make(map[model.UserID]*model.User),
		activeParty: make(map[model.UserID]model.PartyID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func cloneParty(p *model.Party) *model.Party {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Participants = make([]model.Participant, len(p.Participants))
	copy(cp.Participants, p.Participants)
	cp.Playlist.Entries = make([]model.PlaylistEntry, len(p.Playlist.Entries))
	copy(cp.Playlist.Entries, p.Playlist.Entries)
	if p.CurrentlyPlayingSongID != nil {
		id := *p.CurrentlyPlayingSongID
		cp.CurrentlyPlayingSongID = &id
	}
	return &cp
}

// membershipConflict reports the conflict error for a user who is already
// bound to an active party, distinguishing hosting from membership.
// Caller must hold the lock.
func (s *Storage) membershipConflict(userID model.UserID) error {
	partyID, ok := s.activeParty[userID]
	if !ok {
		return nil
	}
	if party, ok := s.parties[partyID]; ok && party.HostUserID == userID {
		return model.ErrAlreadyHosting
	}
	return model.ErrAlreadyInParty
}

// Party operations

func (s *Storage) CreateParty(ctx context.Context, party *model.Party) (*model.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.membershipConflict(party.HostUserID); err != nil {
		return nil, err
	}

	s.nextPartyID++
	s.nextParticipantID++
	s.nextPlaylistID++

	stored := cloneParty(party)
	stored.ID = model.PartyID(s.nextPartyID)
	stored.Participants = []model.Participant{
		{
			ID:       s.nextParticipantID,
			PartyID:  stored.ID,
			UserID:   party.HostUserID,
			Role:     model.RoleHost,
			JoinedAt: party.CreatedAt,
		},
	}
	stored.Playlist = model.Playlist{
		ID:      s.nextPlaylistID,
		PartyID: stored.ID,
		Entries: []model.PlaylistEntry{},
	}

	s.parties[stored.ID] = stored
	s.activeParty[party.HostUserID] = stored.ID
	return cloneParty(stored), nil
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	party, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	return cloneParty(party), nil
}

func (s *Storage) ListParties(ctx context.Context) ([]*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parties := make([]*model.Party, 0, len(s.parties))
	for _, p := range s.parties {
		parties = append(parties, cloneParty(p))
	}
	return parties, nil
}

func (s *Storage) UpdateParty(ctx context.Context, id model.PartyID, patch model.PartyPatch) (*model.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}

	if patch.Name != nil {
		party.Name = *patch.Name
	}
	if patch.Status != nil {
		// Ended is terminal; a party cannot come back
		if party.Status == model.PartyStatusEnded && *patch.Status != model.PartyStatusEnded {
			return nil, model.ErrPartyNotActive
		}
		party.Status = *patch.Status
		if *patch.Status == model.PartyStatusEnded {
			// An ended party no longer binds its members
			for _, m := range party.Participants {
				delete(s.activeParty, m.UserID)
			}
		}
	}
	party.UpdatedAt = patch.UpdatedAt

	return cloneParty(party), nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[id]
	if !ok {
		return model.ErrPartyNotFound
	}

	// Cascade: participants and playlist live inside the aggregate, so
	// removing the party removes them; the index is cleared explicitly
	for _, m := range party.Participants {
		if s.activeParty[m.UserID] == id {
			delete(s.activeParty, m.UserID)
		}
	}
	delete(s.parties, id)
	return nil
}

// Participant operations

func (s *Storage) AddParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID, role model.ParticipantRole, joinedAt time.Time) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[partyID]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	if !party.IsActive() {
		return nil, model.ErrPartyNotActive
	}
	if party.GetParticipant(userID) != nil {
		return nil, model.ErrAlreadyInParty
	}
	if err := s.membershipConflict(userID); err != nil {
		return nil, err
	}

	s.nextParticipantID++
	participant := model.Participant{
		ID:       s.nextParticipantID,
		PartyID:  partyID,
		UserID:   userID,
		Role:     role,
		JoinedAt: joinedAt,
	}
	party.Participants = append(party.Participants, participant)
	s.activeParty[userID] = partyID

	return &participant, nil
}

func (s *Storage) RemoveParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[partyID]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}

	for i, m := range party.Participants {
		if m.UserID == userID {
			removed := m
			party.Participants = append(party.Participants[:i], party.Participants[i+1:]...)
			if s.activeParty[userID] == partyID {
				delete(s.activeParty, userID)
			}
			return &removed, nil
		}
	}
	return nil, model.ErrParticipantNotFound
}

func (s *Storage) FindActivePartyForUser(ctx context.Context, userID model.UserID) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partyID, ok := s.activeParty[userID]
	if !ok {
		return nil, model.ErrNoActiveParty
	}
	party, ok := s.parties[partyID]
	if !ok || !party.IsActive() {
		return nil, model.ErrNoActiveParty
	}
	return cloneParty(party), nil
}

// Playlist operations

func (s *Storage) InsertPlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID, addedBy model.UserID, addedAt time.Time) (*model.PlaylistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[partyID]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	if !party.IsActive() {
		return nil, model.ErrPartyNotActive
	}

	s.nextEntryID++
	entry := model.PlaylistEntry{
		ID:            s.nextEntryID,
		PlaylistID:    party.Playlist.ID,
		SongID:        songID,
		AddedByUserID: addedBy,
		Position:      party.Playlist.NextPosition(),
		AddedAt:       addedAt,
	}
	party.Playlist.Entries = append(party.Playlist.Entries, entry)

	return &entry, nil
}

func (s *Storage) RemovePlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID) (*model.PlaylistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[partyID]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	if !party.IsActive() {
		return nil, model.ErrPartyNotActive
	}

	for i, e := range party.Playlist.Entries {
		if e.SongID == songID {
			removed := e
			// Positions of remaining entries are left untouched
			party.Playlist.Entries = append(party.Playlist.Entries[:i], party.Playlist.Entries[i+1:]...)
			return &removed, nil
		}
	}
	return nil, model.ErrSongNotInPlaylist
}

// Song catalog operations

func (s *Storage) SaveSong(ctx context.Context, song *model.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *song
	s.songs[song.ID] = &cp
	return nil
}

func (s *Storage) GetSong(ctx context.Context, id model.SongID) (*model.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	song, ok := s.songs[id]
	if !ok {
		return nil, model.ErrSongNotFound
	}
	cp := *song
	return &cp, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}
