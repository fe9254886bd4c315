// Package progcaster implements the thin broadcast step that synchronizes
// pointstamp batches across workers (spec.md §4.4): the only global
// synchronization point inside the progress-tracking core. The concrete
// inter-process transport is an external collaborator (spec.md §1
// Non-goals); this package defines the Communicator contract it must
// satisfy and a couple of in-process implementations useful for a
// single-process embedding and for tests.
package progcaster

// Delta is one pointstamp update crossing the wire: a message delta
// (scope/port identify a child input) or an internal delta (scope/port
// identify a child output), depending on which of the two logs it travels
// in (spec.md §6.4). T must be whatever the Communicator implementation can
// serialize; serialization itself is outside this package's concern.
type Delta[T any] struct {
	Scope int
	Port  int
	Time  T
	Delta int64
}

// Communicator is the external transport a Progcaster broadcasts over. A
// single call to Exchange must act as a barrier: every worker's local
// contribution to both logs is visible to every worker (including itself)
// before any of them proceeds, matching spec.md §5's "only global
// synchronization" guarantee.
type Communicator[T any] interface {
	// Index returns this worker's index among its peers.
	Index() int

	// Peers returns the total number of workers participating.
	Peers() int

	// Exchange broadcasts messages and internal to all peers and returns
	// the concatenation of every peer's (including this worker's own)
	// contribution. Ordering across workers is unspecified; callers must
	// treat both logs as commutative multisets (they are, via CountMap
	// compaction downstream).
	Exchange(messages, internal []Delta[T]) (outMessages, outInternal []Delta[T], err error)
}

// Progcaster broadcasts a Subgraph's two pointstamp logs — message deltas
// and internal deltas — across workers via a Communicator, and replaces
// them in place with the union of every worker's contribution.
type Progcaster[T any] struct {
	comm Communicator[T]
}

// New returns a Progcaster wrapping comm. A nil comm is valid and makes
// SendAndRecv a no-op local passthrough, for a single-worker embedding that
// has no Communicator to wire in.
func New[T any](comm Communicator[T]) *Progcaster[T] {
	return &Progcaster[T]{comm: comm}
}

// SendAndRecv exchanges both logs with peer workers and replaces their
// contents with the combined result (spec.md §4.2.6 phase 3).
func (p *Progcaster[T]) SendAndRecv(messages, internal *[]Delta[T]) error {
	if p.comm == nil {
		return nil
	}

	outMessages, outInternal, err := p.comm.Exchange(*messages, *internal)
	if err != nil {
		return err
	}

	*messages = outMessages
	*internal = outInternal

	return nil
}
