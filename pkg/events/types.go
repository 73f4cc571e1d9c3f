package events

// BattleCompletedEvent is published once per finished match, after the room
// reaches its terminal state.
type BattleCompletedEvent struct {
	RoomID        string `json:"roomId"`
	ChallengeID   string `json:"challengeId"`
	ChallengeType string `json:"challengeType"`
	WinnerID      string `json:"winnerId"`
	LoserID       string `json:"loserId"`
	Reason        string `json:"reason"` // "solved" | "gave_up" | "disconnected"
	Points        int    `json:"points"`
	Timestamp     string `json:"timestamp"`
}

// ChallengeUpsertedEvent announces that the admin service created or edited
// a challenge; consumers refresh their catalog copy.
type ChallengeUpsertedEvent struct {
	ChallengeID string `json:"challengeId"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Payload     string `json:"payload"` // full challenge document, JSON
	Timestamp   string `json:"timestamp"`
}

// ChallengeRemovedEvent announces a challenge deletion.
type ChallengeRemovedEvent struct {
	ChallengeID string `json:"challengeId"`
	Timestamp   string `json:"timestamp"`
}
