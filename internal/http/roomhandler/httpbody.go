package roomhandler

type RoomInfo struct {
	Name        string `json:"name"`
	Connections int    `json:"connections"`
	Status      string `json:"status,omitempty"`
	NotesPlayed uint64 `json:"notesPlayed,omitempty"`
}

type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}
