// Package utils provides small bookkeeping helpers consumed by package
// partitions while it builds ghost-exchange descriptors. ExchangeEntry's
// dedup-then-sort-then-translate shape is adapted from face_connector.go's
// PickBuffer/PlaceBuffer construction (pick indices to send, place indices
// to receive into), generalized from mesh elements/faces to grid
// cells/neighbor ranks.
package utils

import "sort"

// ExchangeEntry accumulates the raw, global-index send/recv sets for
// communication with one neighbor rank during a decomposition rebuild.
type ExchangeEntry struct {
	Dest int

	SendGlobal []int
	RecvGlobal []int

	sendSeen map[int]bool
	recvSeen map[int]bool
}

// NewExchangeEntry creates an empty entry for the given destination rank.
func NewExchangeEntry(dest int) *ExchangeEntry {
	return &ExchangeEntry{
		Dest:     dest,
		sendSeen: make(map[int]bool),
		recvSeen: make(map[int]bool),
	}
}

// AddSend records that global cell g (a local cell) must be sent to Dest,
// deduplicating repeat additions.
func (e *ExchangeEntry) AddSend(g int) {
	if e.sendSeen[g] {
		return
	}
	e.sendSeen[g] = true
	e.SendGlobal = append(e.SendGlobal, g)
}

// AddRecv records that global cell g (a ghost cell) must be received from
// Dest, deduplicating repeat additions.
func (e *ExchangeEntry) AddRecv(g int) {
	if e.recvSeen[g] {
		return
	}
	e.recvSeen[g] = true
	e.RecvGlobal = append(e.RecvGlobal, g)
}

// FinalizeTranslate sorts SendGlobal and RecvGlobal ascending by global
// index, then translates each to a local/ghost index via globalToLocal.
// This gives both ends of a link a canonical, matching order, so that the
// k-th entry of one side's Send corresponds to the other side's k-th
// entry of Recv.
func (e *ExchangeEntry) FinalizeTranslate(globalToLocal map[int]int) (send, recv []int) {
	sort.Ints(e.SendGlobal)
	sort.Ints(e.RecvGlobal)

	send = make([]int, len(e.SendGlobal))
	for i, g := range e.SendGlobal {
		send[i] = globalToLocal[g]
	}
	recv = make([]int, len(e.RecvGlobal))
	for i, g := range e.RecvGlobal {
		recv[i] = globalToLocal[g]
	}
	return send, recv
}
