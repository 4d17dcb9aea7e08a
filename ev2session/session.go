// Package ev2session implements the EV2-First mutual authentication
// handshake and the secure-messaging codec it establishes keys for
// (spec components C, D, E).
package ev2session

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the state produced by a successful EV2-First handshake and
// consumed by the secure-messaging codec. It is an exclusive resource: only
// one command may be in flight at a time, because both IV derivation and
// the MAC include CmdCtr, which must match on both peers (spec §5).
type Session struct {
	mu sync.Mutex

	id uuid.UUID // process-local correlation id, independent of TI

	KENC [16]byte
	KMAC [16]byte
	TI   [4]byte

	CmdCtr uint16
	KeyNo  byte

	Authenticated bool
}

// ID returns a process-local correlation id for this session, distinct from
// the card-chosen TI, useful for telling concurrent sessions against
// different cards apart in logs and tables.
func (s *Session) ID() uuid.UUID { return s.id }

// lock acquires the session's critical section for the duration of one
// wrap/transmit/unwrap exchange. Callers must call the returned unlock
// func exactly once.
func (s *Session) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// fail marks the session unusable. Per spec §4/§9, any MAC failure clears
// Authenticated so a bad session cannot be reused; a fresh handshake is
// required.
func (s *Session) fail() {
	s.Authenticated = false
}
