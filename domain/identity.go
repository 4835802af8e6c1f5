// Package domain contains core concepts of the chat coordinator.
// Identifiers are opaque and externally issued; the coordinator never
// mints a UserID or a ConversationID itself.
package domain

import "time"

// UserID identifies a user across all of their connections.
type UserID string

// ConversationID identifies a room. Conversations are created by the
// external conversation-management collaborator.
type ConversationID string

// PresenceStatus is the derived reachability of a user.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

// Presence is the tracked state for one user.
type Presence struct {
	User     UserID
	Status   PresenceStatus
	LastSeen time.Time
}
