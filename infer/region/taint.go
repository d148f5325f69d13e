package region

import (
	"sort"

	"github.com/cottand/tyinfer/ty"
	"github.com/hashicorp/go-set/v3"
	xset "github.com/xtgo/set"
)

// Tainted returns every region related to r, in either direction, by the
// constraints recorded since s was taken. r itself is always included
func (b *Bindings) Tainted(s Snapshot, r ty.Region) []ty.Region {
	b.assertLive(s)
	result := []ty.Region{r}
	seen := set.From(result)

	addEdges := func(current, r1, r2 ty.Region) {
		switch current {
		case r1:
			if seen.Insert(r2) {
				result = append(result, r2)
			}
		case r2:
			if seen.Insert(r1) {
				result = append(result, r1)
			}
		}
	}

	for i := 0; i < len(result); i++ {
		current := result[i]
		for _, entry := range b.undoLog[s.length:] {
			switch entry.kind {
			case addConstraint:
				c := entry.constraint
				switch c.Kind {
				case VarSubVar:
					addEdges(current, ty.ReVar{Vid: c.Sub}, ty.ReVar{Vid: c.Sup})
				case RegSubVar:
					addEdges(current, c.Region, ty.ReVar{Vid: c.Sup})
				case VarSubReg:
					addEdges(current, ty.ReVar{Vid: c.Sub}, c.Region)
				}
			case addGiven:
				addEdges(current, entry.given.free, ty.ReVar{Vid: entry.given.vid})
			case addVerify:
				if v := b.verifys[entry.verify]; v.kind == verifyRegSubReg {
					addEdges(current, v.sub, v.sup)
				}
			}
		}
	}
	return result
}

type vidSlice []ty.RegionVid

func (s vidSlice) Len() int           { return len(s) }
func (s vidSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s vidSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// SortedVids sorts vids and drops duplicates, in place
func SortedVids(vids []ty.RegionVid) []ty.RegionVid {
	sort.Sort(vidSlice(vids))
	n := xset.Uniq(vidSlice(vids))
	return vids[:n]
}

// DiffVids returns the vids in a but not in b. Both must be sorted and unique
func DiffVids(a, b []ty.RegionVid) []ty.RegionVid {
	data := make(vidSlice, 0, len(a)+len(b))
	data = append(data, a...)
	data = append(data, b...)
	n := xset.Diff(data, len(a))
	return data[:n]
}
