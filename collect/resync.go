package collect

import "github.com/esr-cvs/cvsconvert/model"

// resynchronizeTimestamps walks every file's revisions in per-LOD
// ancestry order and nudges each ResyncedTime forward so it never
// precedes its parent's (spec.md §4.5: "a revision's resynchronized
// time is max(parent.resynced+fuzz, recorded timestamp)"). CVS commits
// are per-file, so clock skew between a CVS client and server, or
// between two developers' machines, can otherwise make a child
// revision appear to predate its own parent.
func resynchronizeTimestamps(items map[model.PathID]*model.CvsFileItems, fuzzSeconds int64) {
	if fuzzSeconds <= 0 {
		fuzzSeconds = 1
	}
	for _, fi := range items {
		seenLOD := make(map[model.LODID]bool)
		for _, r := range fi.Revisions {
			seenLOD[r.LOD] = true
		}
		for lod := range seenLOD {
			ordered := fi.RevisionsByLOD(lod)
			var prevResynced int64
			havePrev := false
			for _, r := range ordered {
				floor := r.Timestamp
				if havePrev && prevResynced+fuzzSeconds > floor {
					floor = prevResynced + fuzzSeconds
				}
				if floor != r.Timestamp {
					r.TimestampSkewed = true
				}
				r.ResyncedTime = floor
				prevResynced = floor
				havePrev = true
			}
		}
	}
}
