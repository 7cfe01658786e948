// Package info holds server wide state reported by the INFO command.
package info

import (
	"time"

	"github.com/google/uuid"
)

var (
	RunId     uuid.UUID
	StartTime time.Time

	// Multiplexer is the name of the kernel facility the event loop uses.
	Multiplexer string

	ConnectedClients    int
	TotalConnections    int64
	RejectedConnections int64
	TotalCommands       int64
	ExpiredKeys         int64
	CronLoops           int64
)

// Reset starts a fresh run: new run id and zeroed counters.
func Reset(multiplexer string) {
	RunId = uuid.New()
	StartTime = time.Now()
	Multiplexer = multiplexer

	ConnectedClients = 0
	TotalConnections = 0
	RejectedConnections = 0
	TotalCommands = 0
	ExpiredKeys = 0
	CronLoops = 0
}
