// Package epoch owns the reset-delimited counter stored in a ranking
// channel's topic.
package epoch

import "strings"

// Counter identifies the current era of a channel and how many rankings
// were created in it.
type Counter struct {
	ID       string
	Sequence uint64
}

// Reset starts a new epoch with no rankings.
func Reset(newID string) Counter {
	return Counter{ID: newID}
}

// AllocateNext reserves the next ranking sequence in the current epoch.
func AllocateNext(current Counter) (Counter, uint64) {
	assigned := current.Sequence + 1
	return Counter{ID: current.ID, Sequence: assigned}, assigned
}

// Live reports whether topic still belongs to the epoch epochID.
func Live(topic, epochID string) bool {
	return epochID != "" && strings.HasPrefix(topic, epochID+":")
}
