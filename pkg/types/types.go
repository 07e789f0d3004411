package types

import (
	"time"
)

// Role identifies what a participant is allowed to do in a classroom session.
// The teacher role is the single canvas authority.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the two recognized roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// ConnectionState is the lifecycle state of the session against the remote
// collaboration service. Exactly one state holds at a time.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateFailed       ConnectionState = "failed"
)

// Session is the local view of one joined classroom session.
// Owned exclusively by the connection manager; created on join, destroyed on
// disconnect.
type Session struct {
	ID                 string          `json:"id"`
	ChannelName        string          `json:"channel_name"`
	LocalParticipantID string          `json:"local_participant_id"`
	Role               Role            `json:"role"`
	State              ConnectionState `json:"state"`
}

// Participant is one member of the session as reported by the remote
// authority. The participant set is replaced wholesale on each presence
// event; entries are never merged field-by-field.
type Participant struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Role            Role   `json:"role"`
	HasAudio        bool   `json:"has_audio"`
	HasVideo        bool   `json:"has_video"`
	IsScreenSharing bool   `json:"is_screen_sharing"`
}

// Scene is one page of the shared multi-page canvas.
type Scene struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ToolState is the shared drawing tool configuration. Last writer wins,
// arbitrated by the remote authority; the local mirror never predicts it.
type ToolState struct {
	Tool        string `json:"tool"`
	StrokeColor string `json:"stroke_color"`
	StrokeWidth int    `json:"stroke_width"`
}

// RoomState is one consistent snapshot of the shared room as carried by a
// room-state-changed event. All fields are replaced together; partial
// application would reintroduce the torn reads this type exists to prevent.
type RoomState struct {
	Scenes       []Scene       `json:"scenes"`
	SceneIndex   int           `json:"scene_index"`
	Tool         ToolState     `json:"tool"`
	Participants []Participant `json:"participants"`
	CanUndo      bool          `json:"can_undo"`
	CanRedo      bool          `json:"can_redo"`
}

// MessageKind distinguishes user chat from synthesized system entries.
type MessageKind string

const (
	MessageKindChat   MessageKind = "chat"
	MessageKindSystem MessageKind = "system"
)

// Message is one chat or system entry. Immutable once created; ordering is
// delivery order, not timestamp order.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"sender_id"`
	Body      string      `json:"body"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
}

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral user-facing event. Entries with Duration > 0
// self-dismiss after that delay.
type Notification struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"duration"`
}

// QualitySample is one reading of the live transport statistics.
type QualitySample struct {
	RTT          time.Duration `json:"rtt"`
	DownlinkKbps float64       `json:"downlink_kbps"`
}

// QualityLevel is the coarse classification derived from periodic samples.
type QualityLevel string

const (
	QualityUnknown   QualityLevel = "unknown"
	QualityPoor      QualityLevel = "poor"
	QualityFair      QualityLevel = "fair"
	QualityGood      QualityLevel = "good"
	QualityExcellent QualityLevel = "excellent"
)

// Rank orders quality levels from unknown (0) to excellent (4) so callers
// can compare classifications.
func (q QualityLevel) Rank() int {
	switch q {
	case QualityPoor:
		return 1
	case QualityFair:
		return 2
	case QualityGood:
		return 3
	case QualityExcellent:
		return 4
	default:
		return 0
	}
}

// RoomCredentials grants access to the remote collaboration room.
type RoomCredentials struct {
	AppID     string `json:"appId"`
	RoomID    string `json:"roomId"`
	RoomToken string `json:"roomToken"`
}

// MediaCredentials grants access to the media session. UID must fall inside
// the range the media service accepts (1000-65000).
type MediaCredentials struct {
	UID         int    `json:"uid"`
	ChannelName string `json:"channelName"`
}
