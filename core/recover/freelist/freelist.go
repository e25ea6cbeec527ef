// Package freelist walks the SQLite free-list trunk chain recorded in the
// file header, collecting the 0-based page indices of every trunk and
// leaf page it visits. Those pages are handed back to the recovery driver
// so the page parser can re-scan them: a free page keeps its last-written
// bytes until overwritten, which is the entire forensic value of walking
// it at all.
package freelist

import (
	"encoding/binary"
	"fmt"
)

// Walk follows the trunk chain starting at trunk (a 1-based page number,
// 0 meaning "no free list"), stopping once total leaf pages have been
// collected (trunk pages do not count against total) or the chain runs
// out. diagnostic, if non-nil, receives one
// human-readable line per anomaly (out-of-bounds trunk offset, short
// trunk page, short leaf slot); these are informational only, matching
// the "recoverable, diagnostic" tier — the pages already
// collected before an anomaly are kept, the chain is simply not followed
// further.
func Walk(data []byte, pageSize uint32, trunk uint32, total uint32, diagnostic func(string)) []uint32 {
	var pages []uint32
	collected := uint32(0)
	next := trunk

	for next != 0 && collected < total {
		offset := uint64(next-1) * uint64(pageSize)
		if offset+uint64(pageSize) > uint64(len(data)) {
			diagnose(diagnostic, "freelist: trunk page %d offset out of bounds", next)
			break
		}
		trunkPage := data[offset : offset+uint64(pageSize)]
		pages = append(pages, next-1)

		if len(trunkPage) < 8 {
			diagnose(diagnostic, "freelist: trunk page %d too short to read header", next)
			break
		}
		nextTrunk := binary.BigEndian.Uint32(trunkPage[0:4])
		leafCount := binary.BigEndian.Uint32(trunkPage[4:8])

		for i := uint32(0); i < leafCount && collected < total; i++ {
			slot := 8 + i*4
			if uint64(slot)+4 > uint64(len(trunkPage)) {
				diagnose(diagnostic, "freelist: trunk page %d leaf slot %d truncated", next, i)
				break
			}
			leaf := binary.BigEndian.Uint32(trunkPage[slot : slot+4])
			pages = append(pages, leaf-1)
			collected++
		}

		next = nextTrunk
	}

	return pages
}

func diagnose(sink func(string), format string, args ...any) {
	if sink == nil {
		return
	}
	sink(fmt.Sprintf(format, args...))
}
