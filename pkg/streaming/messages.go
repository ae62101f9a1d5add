package streaming

import (
	"encoding/json"
	"time"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// Message type constants matching the WebSocket protocol.
const (
	TypeSelectFrame = "select_frame"
	TypePlay        = "play"
	TypePause       = "pause"
	TypeStatus      = "status"
	TypeFrame       = "frame"
	TypeTimeline    = "timeline"
	TypeError       = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SelectFramePayload asks the server to render a specific frame.
type SelectFramePayload struct {
	Index int `json:"index"`
}

// PlayPayload starts automatic frame advancement. Interval is optional;
// zero means the server default.
type PlayPayload struct {
	IntervalMillis int64 `json:"intervalMillis,omitempty"`
}

// FramePayload carries a rendered frame back to the client.
type FramePayload struct {
	Frame *core.Frame `json:"frame"`
}

// TimelineEntry describes one snapshot in the ordered timeline.
type TimelineEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// TimelinePayload lists the discovered snapshots in chronological order.
type TimelinePayload struct {
	Entries []TimelineEntry `json:"entries"`
}

// StatusPayload reports session and engine state.
type StatusPayload struct {
	CurrentIndex    int  `json:"currentIndex"`
	FrameCount      int  `json:"frameCount"`
	Playing         bool `json:"playing"`
	Renders         int  `json:"renders"`
	LoadErrors      int  `json:"loadErrors"`
	CachedSnapshots int  `json:"cachedSnapshots"`
}

// ErrorPayload reports a failed command to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}
