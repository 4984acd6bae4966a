package entities

import (
	"time"

	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
	pkgerrors "studybuddy-backend/pkg/errors"
)

// ConnectionStatus is the stored state of a connection edge
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
)

// ViewerStatus is the connection state as seen from one side of the pair.
// It is derived from the edge, never stored.
type ViewerStatus string

const (
	ViewerStatusNone            ViewerStatus = "none"
	ViewerStatusOutgoingPending ViewerStatus = "outgoing_pending"
	ViewerStatusIncomingPending ViewerStatus = "incoming_pending"
	ViewerStatusAccepted        ViewerStatus = "accepted"
)

// Connection is the edge between two users in the connection graph. There is
// at most one edge per unordered pair; the canonical pair key enforces that
// at the storage layer.
type Connection struct {
	pair      valueobjects.PairKey
	requester valueobjects.UserID
	status    ConnectionStatus
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewConnection creates a pending edge owned by the requester
func NewConnection(requester, target valueobjects.UserID) (*Connection, error) {
	if requester.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("connection requires two user IDs")
	}
	if requester.Equals(target) {
		return nil, pkgerrors.NewInvalidArgumentError("cannot connect a user to themselves")
	}

	pair, err := valueobjects.NewPairKey(requester, target)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgumentError(err.Error())
	}

	now := time.Now()
	conn := &Connection{
		pair:      pair,
		requester: requester,
		status:    ConnectionPending,
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}

	conn.addEvent(events.NewConnectionRequested(pair, requester, target, now))

	return conn, nil
}

// ReconstructConnection rebuilds an edge from repository data
func ReconstructConnection(
	pair valueobjects.PairKey,
	requester valueobjects.UserID,
	status ConnectionStatus,
	createdAt, updatedAt time.Time,
) (*Connection, error) {
	if pair.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("connection requires a pair key")
	}
	if !pair.Contains(requester) {
		return nil, pkgerrors.NewInvalidArgumentError("requester must be part of the pair")
	}

	return &Connection{
		pair:      pair,
		requester: requester,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}, nil
}

// Pair returns the canonical pair key
func (c *Connection) Pair() valueobjects.PairKey {
	return c.pair
}

// Requester returns the user who initiated the edge
func (c *Connection) Requester() valueobjects.UserID {
	return c.requester
}

// Target returns the user on the receiving end of the request
func (c *Connection) Target() valueobjects.UserID {
	other, _ := c.pair.Other(c.requester)
	return other
}

// Status returns the stored edge status
func (c *Connection) Status() ConnectionStatus {
	return c.status
}

// IsAccepted reports whether the edge has been accepted
func (c *Connection) IsAccepted() bool {
	return c.status == ConnectionAccepted
}

// Accept transitions the edge to accepted. Only the target of the pending
// request may accept; accepting an already accepted edge is a no-op.
func (c *Connection) Accept(by valueobjects.UserID) error {
	if c.status == ConnectionAccepted {
		return nil
	}
	if !c.pair.Contains(by) {
		return pkgerrors.NewForbiddenError("user is not part of this connection")
	}
	if by.Equals(c.requester) {
		return pkgerrors.NewInvalidArgumentError("requester cannot accept their own request")
	}

	c.status = ConnectionAccepted
	c.updatedAt = time.Now()

	c.addEvent(events.NewConnectionAccepted(c.pair, c.requester, by, c.updatedAt))

	return nil
}

// StatusFor classifies the edge relative to a viewer
func (c *Connection) StatusFor(viewer valueobjects.UserID) ViewerStatus {
	if !c.pair.Contains(viewer) {
		return ViewerStatusNone
	}
	if c.status == ConnectionAccepted {
		return ViewerStatusAccepted
	}
	if viewer.Equals(c.requester) {
		return ViewerStatusOutgoingPending
	}
	return ViewerStatusIncomingPending
}

// CreatedAt returns when the edge was created
func (c *Connection) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the edge last transitioned
func (c *Connection) UpdatedAt() time.Time {
	return c.updatedAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Connection) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Connection) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Connection) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}
