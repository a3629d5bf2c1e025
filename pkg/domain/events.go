package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBlockEnter EventType = "block_enter"
	EventBlockLeave EventType = "block_leave"
	EventNavigate   EventType = "navigate"
	EventSubmit     EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// BlockEvent represents entry or exit from a block.
type BlockEvent struct {
	EventBase
	BlockID string `json:"block_id"`
	PageID  string `json:"page_id"`
}

// NavigationEvent describes a resolved step. Sequential is true when no rule
// matched and the runtime advanced in authored order.
type NavigationEvent struct {
	EventBase
	FromBlockID string      `json:"from_block_id"`
	Destination Destination `json:"destination"`
	Sequential  bool        `json:"sequential"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnBlockEnter func(context.Context, *BlockEvent)
	OnBlockLeave func(context.Context, *BlockEvent)
	OnNavigate   func(context.Context, *NavigationEvent)
	OnSubmit     func(context.Context, *EventBase)
}
