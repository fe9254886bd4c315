// Package demo wires a concrete scenario on top of the progress-tracking
// core: two inputs feeding a nested subgraph (one operator deduplicating one
// stream, the other passing its stream through untouched) whose two outputs
// are cross-wired back through a pair of feedback edges
// (original_source/examples/distinct.rs:55-105). It exists to exercise
// pkg/subgraph end to end with real payloads, which the progress-tracking
// Scope contract deliberately never carries (spec.md §4.1 tracks counts, not
// data).
package demo

import (
	"sync"

	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// GraphTime is the timestamp type every direct child of the root graph
// carries: the root scope's TOuter is summary.Unit, and its TInner is the
// scalar summary.Time.
type GraphTime = summary.Product[summary.Unit, summary.Time]

// SubTime is the timestamp type carried by operators nested one level
// inside the root — the child subgraph that owns Distinct and Passthrough
// (original_source/examples/distinct.rs:68-105's `_create_subgraph`).
type SubTime = summary.Product[GraphTime, summary.Time]

// At builds the GraphTime for root-level inner tick t.
func At(t uint64) GraphTime {
	return GraphTime{Outer: summary.Unit{}, Inner: summary.Time(t)}
}

// enter lifts a root-level time across the nested subgraph's boundary, the
// ingress half of spec.md §6.3's Ingress/Egress crossing: the default inner
// coordinate starts at zero.
func enter(t GraphTime) SubTime {
	return SubTime{Outer: t, Inner: summary.Time(0)}
}

// leave projects a nested time back down to the level above, the egress
// half of the same crossing: the outer component already is a GraphTime.
func leave(t SubTime) GraphTime {
	return t.Outer
}

// Message pairs a payload with the timestamp it was sent at, the unit of
// exchange on a Channel.
type Message[D any, T any] struct {
	Datum D
	At    T
}

// Channel is a small mutex-guarded mailbox carrying real payloads between
// demo operators, standing in for the exchange/communication layer spec.md
// explicitly leaves out of scope. It has no progress-tracking meaning on its
// own: operators report what they consumed and produced through the Scope
// contract in lockstep with what they drain and send here.
type Channel[D any, T any] struct {
	mu      sync.Mutex
	pending []Message[D, T]
}

// NewChannel returns an empty Channel.
func NewChannel[D any, T any]() *Channel[D, T] {
	return &Channel[D, T]{}
}

// Send enqueues one message.
func (c *Channel[D, T]) Send(datum D, at T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, Message[D, T]{Datum: datum, At: at})
}

// Drain removes and returns every message currently queued, in arrival
// order.
func (c *Channel[D, T]) Drain() []Message[D, T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	out := c.pending
	c.pending = nil

	return out
}

// hasPending reports whether any message is currently queued.
func (c *Channel[D, T]) hasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending) > 0
}
