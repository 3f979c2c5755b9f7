package request

// CreatePartyRequest is the request body for creating a party
type CreatePartyRequest struct {
	Name string `json:"name"`
}

// UpdatePartyRequest is the request body for partially updating a party;
// absent fields are left unchanged
type UpdatePartyRequest struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

// AddSongRequest is the request body for adding a song to the caller's
// active party playlist
type AddSongRequest struct {
	SongID int64 `json:"song_id"`
}
