package models

// OverlapLayout places a session into a lane so that concurrently displayed
// sessions render side by side. A session with LaneCount n renders at width
// 100/n percent, offset by LaneIndex*(100/n). Unpositioned marks a session
// that could not participate in layout (no concrete date); it renders full
// width by default.
type OverlapLayout struct {
	LaneIndex    int  `json:"lane_index"`
	LaneCount    int  `json:"lane_count"`
	Unpositioned bool `json:"unpositioned,omitempty"`
}

// DropTarget is the live state of an active drag gesture. It exists only
// between pick-up and drop/cancel and is discarded afterwards.
type DropTarget struct {
	Day         string  `json:"day"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	PixelOffset float64 `json:"pixel_offset"`
	Valid       bool    `json:"valid"`
}

// SessionGeometry is the pixel rectangle computed for one rendered session.
type SessionGeometry struct {
	SessionID int64   `json:"session_id"`
	TopPx     float64 `json:"top_px"`
	HeightPx  float64 `json:"height_px"`
	LaneIndex int     `json:"lane_index"`
	LaneCount int     `json:"lane_count"`
	Clipped   bool    `json:"clipped,omitempty"`
}
