package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case AuthResult:
		o.printAuthResult(v)
	case Room:
		o.printRoom(v)
	case RoomListResult:
		o.printRoomList(v)
	case Match:
		o.printMatch(v)
	case MatchListResult:
		o.printMatchList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Profile response type (matches API)
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines profile and token
type AuthResult struct {
	Profile      Profile `json:"profile"`
	SessionToken string  `json:"session_token"`
}

// Room response type
type Room struct {
	Code      string    `json:"code"`
	Kind      string    `json:"kind"`
	HostName  string    `json:"host_name"`
	PeerCount int       `json:"peer_count"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// RoomListResult response type
type RoomListResult struct {
	Rooms []Room `json:"rooms"`
}

// MatchPlayer response type
type MatchPlayer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Match response type
type Match struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Players    [2]MatchPlayer `json:"players"`
	Winner     *string        `json:"winner"`
	MoveCount  int            `json:"move_count"`
	DurationMS int64          `json:"duration_ms"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// MatchListResult response type
type MatchListResult struct {
	Matches []Match `json:"matches"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("ID:           %s\n", p.ID)
	if p.Username != "" {
		fmt.Printf("Username:     %s\n", p.Username)
	}
	fmt.Printf("Display Name: %s\n", p.DisplayName)
	fmt.Printf("Guest:        %v\n", p.IsGuest)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printProfile(a.Profile)
	fmt.Printf("Token:        %s\n", a.SessionToken)
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("%-10s %-12s %-16s peers=%d last seen %s\n",
		r.Code, r.Kind, r.HostName, r.PeerCount, r.LastSeen.Format(time.Kitchen))
}

func (o *Output) printRoomList(l RoomListResult) {
	if len(l.Rooms) == 0 {
		fmt.Println("No open rooms")
		return
	}
	for _, r := range l.Rooms {
		o.printRoom(r)
	}
}

func (o *Output) printMatch(m Match) {
	winner := "draw"
	if m.Winner != nil {
		for _, p := range m.Players {
			if p.UserID == *m.Winner {
				winner = p.DisplayName
			}
		}
	}
	names := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		names = append(names, p.DisplayName)
	}
	fmt.Printf("%-12s %-24s winner=%-12s moves=%-4d %s\n",
		m.Kind, strings.Join(names, " vs "), winner, m.MoveCount,
		m.RecordedAt.Format("2006-01-02 15:04"))
}

func (o *Output) printMatchList(l MatchListResult) {
	if len(l.Matches) == 0 {
		fmt.Println("No recorded matches")
		return
	}
	for _, m := range l.Matches {
		o.printMatch(m)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
