package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

type MsgType string

const (
	// server -> client
	MsgConnected          MsgType = "connected"
	MsgPong               MsgType = "pong"
	MsgError              MsgType = "error"
	MsgMatchFound         MsgType = "match_found"
	MsgMatchError         MsgType = "match_error"
	MsgRoomJoined         MsgType = "room_joined"
	MsgSubmissionResult   MsgType = "submission_result"
	MsgSubmissionRejected MsgType = "submission_rejected"
	MsgOpponentGaveUp     MsgType = "opponent_gave_up"
	MsgChallengeWon       MsgType = "challenge_won"
	MsgOpponentWon        MsgType = "opponent_won_challenge"

	// client -> server
	MsgPing      MsgType = "ping"
	MsgFindMatch MsgType = "find_match"
	MsgJoinRoom  MsgType = "join_room"
	MsgGiveUp    MsgType = "give_up"
	MsgSubmit    MsgType = "submit"

	// relayed verbatim between the two players of a room
	MsgCodeUpdate     MsgType = "code_update"
	MsgProgressUpdate MsgType = "progress_update"
)

// Message is the wire envelope for every websocket frame, both directions.
type Message struct {
	Type      MsgType         `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MsgType, payload interface{}) (*Message, error) {
	return NewMessageWithRequestID(msgType, payload, "")
}

func NewMessageWithRequestID(msgType MsgType, payload interface{}, requestID string) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		msg.Payload = data
	}

	return msg, nil
}

func NewErrorMessage(code, message, requestID string) (*Message, error) {
	return NewMessageWithRequestID(MsgError, ErrorPayload{
		Code:    code,
		Message: message,
	}, requestID)
}

func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return &msg, nil
}

func (m *Message) ToBytes() ([]byte, error) {
	return json.Marshal(m)
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ConnectedPayload struct {
	UserID     string `json:"userId"`
	InstanceID string `json:"instanceId"`
}

// PlayerRef identifies one participant in messages that name a winner or loser.
type PlayerRef struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
}

type FindMatchPayload struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	GameMode string `json:"gameMode"`
}

type MatchFoundPayload struct {
	RoomID    string          `json:"roomId"`
	GameMode  string          `json:"gameMode"`
	Opponent  PlayerRef       `json:"opponent"`
	Challenge json.RawMessage `json:"challenge"`
}

type MatchErrorPayload struct {
	Message string `json:"message"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type RoomJoinedPayload struct {
	RoomID      string `json:"roomId"`
	MemberCount int    `json:"memberCount"`
}

type CodeUpdatePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type ProgressUpdatePayload struct {
	RoomID   string `json:"roomId"`
	Progress int    `json:"progress"`
}

type SubmitPayload struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Input    string `json:"input,omitempty"` // flashcode: the typed buffer
}

type SubmissionResultPayload struct {
	RoomID    string `json:"roomId"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	AllPassed bool   `json:"allPassed"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type SubmissionRejectedPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

type GiveUpPayload struct {
	RoomID string    `json:"roomId"`
	Loser  PlayerRef `json:"loser"`
}

type OpponentGaveUpPayload struct {
	Loser     PlayerRef `json:"loser"`
	Timestamp int64     `json:"timestamp"`
}

type ChallengeWonPayload struct {
	Winner    PlayerRef `json:"winner"`
	Timestamp int64     `json:"timestamp"`
}
