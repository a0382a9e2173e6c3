package request

// CreateGuestRequest is the request body for creating a guest profile
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRoomRequest is the request body for announcing a room
type RegisterRoomRequest struct {
	Code string `json:"code"`
}

// HeartbeatRequest is the request body for a room heartbeat
type HeartbeatRequest struct {
	PeerCount int `json:"peer_count"`
}

// MatchPlayer is one side of a match in a record request
type MatchPlayer struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// RecordMatchRequest is the request body for recording a completed match
type RecordMatchRequest struct {
	Kind       string         `json:"kind"`
	Players    [2]MatchPlayer `json:"players"`
	Winner     string         `json:"winner,omitempty"`
	MoveCount  int            `json:"move_count"`
	DurationMS int64          `json:"duration_ms"`
}
