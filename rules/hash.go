package rules

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// StateHash computes a canonical digest of s for desync detection.
// Equal states always hash equal; it deliberately avoids encoding/json,
// whose key ordering and formatting are not guaranteed stable across
// versions, in favor of a fixed field order fed through a streaming
// hasher.
func StateHash(s State) uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	writeByteSlice := func(bs []byte) {
		writeUint(uint64(len(bs)))
		_, _ = h.Write(bs)
	}

	writeUint(uint64(len(s.Seats)))
	for _, seat := range s.Seats {
		_, _ = h.Write([]byte(seat.Username))
		writeUint(boolToUint(seat.IsHuman))
		writeUint(uint64(seat.ChipsSnapshot))
		writeUint(uint64(seat.Status))
		writeUint(uint64(seat.HitPenaltyRounds))
		writeUint(uint64(seat.HitCount))
	}

	for _, hand := range s.Hands {
		hb := make([]byte, len(hand))
		for i, c := range hand {
			hb[i] = byte(c)
		}
		writeByteSlice(hb)
	}

	for _, seatSpreads := range s.Spreads {
		writeUint(uint64(len(seatSpreads)))
		for _, sp := range seatSpreads {
			hb := make([]byte, len(sp))
			for i, c := range sp {
				hb[i] = byte(c)
			}
			writeByteSlice(hb)
		}
	}

	stockBytes := make([]byte, len(s.Stock))
	for i, c := range s.Stock {
		stockBytes[i] = byte(c)
	}
	writeByteSlice(stockBytes)

	discardBytes := make([]byte, len(s.Discard))
	for i, c := range s.Discard {
		discardBytes[i] = byte(c)
	}
	writeByteSlice(discardBytes)

	writeUint(uint64(s.Turn))
	writeUint(boolToUint(s.HasDrawn))
	writeUint(uint64(s.Stake))
	writeUint(uint64(s.Phase))

	if s.Outcome != nil {
		writeUint(1)
		_, _ = h.Write([]byte(s.Outcome.WinType))
		for _, w := range s.Outcome.Winners {
			writeUint(uint64(w))
		}
		for _, rs := range s.Outcome.RoundScores {
			writeUint(uint64(rs))
		}
		if s.Outcome.DroppedSeat != nil {
			writeUint(1)
			writeUint(uint64(*s.Outcome.DroppedSeat))
		} else {
			writeUint(0)
		}
	} else {
		writeUint(0)
	}

	return h.Sum64()
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
