package pipeline

import "time"

// MessageEvent is built once per inbound message by the dispatch layer.
// IsAdmin is resolved before evaluation. Edited events are filtered for
// content but never counted as new messages in the spam window.
type MessageEvent struct {
	ChatID        int64
	UserID        int64
	MessageID     string
	IsAdmin       bool
	Text          string
	IsForwarded   bool
	HasLinkEntity bool
	IsEdited      bool
	Timestamp     time.Time
}
