package attrcode

import (
	"github.com/bubnikv/harry/hry"
)

// GlobalHistory maps attribute indices of one list to the monotonic
// timestamp of their first emission. Back-references are expressed as
// the distance from the current timestamp.
type GlobalHistory struct {
	tidxList []hry.AttrIdx
	tidx     hry.AttrIdx
}

// Resize sizes the slot map; every slot starts unset.
func (gh *GlobalHistory) Resize(size int) {
	gh.tidxList = make([]hry.AttrIdx, size)
	for i := range gh.tidxList {
		gh.tidxList[i] = hry.AttrUnset
	}
}

func (gh *GlobalHistory) set(idx hry.AttrIdx) {
	gh.tidxList[idx] = gh.tidx
	gh.tidx++
}

func (gh *GlobalHistory) get(idx hry.AttrIdx) hry.AttrIdx {
	return gh.tidxList[idx]
}

// LGetSet stamps idx with the next timestamp on first sight and reports
// AttrUnset; otherwise it returns the relative back-reference without
// touching state. A stamped slot never changes.
func (gh *GlobalHistory) LGetSet(idx hry.AttrIdx) hry.AttrIdx {
	g := gh.get(idx)
	if g == hry.AttrUnset {
		gh.set(idx)
		return hry.AttrUnset
	}
	return gh.tidx - 1 - g
}
