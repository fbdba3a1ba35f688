package engine

import (
	"sort"

	"github.com/edusched/timegrid-api/internal/models"
)

// Overlaps is the half-open interval intersection test. Two sessions with
// identical start and end count as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

type dayInterval struct {
	id    int64
	start int
	end   int
	lane  int
}

// LayoutDay assigns each session of a single calendar day a lane index and
// lane count so overlapping sessions render side by side. The lane count for
// a session s is |O(s)|+1 where O(s) is the set of sessions whose interval
// intersects s's. Lanes are assigned by greedy interval coloring (ascending
// start, ties by id, lowest free lane), so the result is deterministic and
// independent of input order. Sessions without a concrete date or with
// malformed times cannot participate; they are flagged unpositioned and
// render full width.
func LayoutDay(sessions []models.Session) map[int64]models.OverlapLayout {
	layout := make(map[int64]models.OverlapLayout, len(sessions))

	intervals := make([]dayInterval, 0, len(sessions))
	for _, s := range sessions {
		if s.Date == nil || *s.Date == "" {
			layout[s.ID] = models.OverlapLayout{LaneIndex: 0, LaneCount: 1, Unpositioned: true}
			continue
		}
		start, err := TimeToMinutes(s.StartTime)
		if err != nil {
			layout[s.ID] = models.OverlapLayout{LaneIndex: 0, LaneCount: 1, Unpositioned: true}
			continue
		}
		end, err := TimeToMinutes(s.EndTime)
		if err != nil || end <= start {
			layout[s.ID] = models.OverlapLayout{LaneIndex: 0, LaneCount: 1, Unpositioned: true}
			continue
		}
		intervals = append(intervals, dayInterval{id: s.ID, start: start, end: end})
	}

	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].start == intervals[j].start {
			return intervals[i].id < intervals[j].id
		}
		return intervals[i].start < intervals[j].start
	})

	for i := range intervals {
		used := make(map[int]bool)
		for j := 0; j < i; j++ {
			if Overlaps(intervals[i].start, intervals[i].end, intervals[j].start, intervals[j].end) {
				used[intervals[j].lane] = true
			}
		}
		lane := 0
		for used[lane] {
			lane++
		}
		intervals[i].lane = lane
	}

	for i, cur := range intervals {
		neighbors := 0
		for j, other := range intervals {
			if i == j {
				continue
			}
			if Overlaps(cur.start, cur.end, other.start, other.end) {
				neighbors++
			}
		}
		layout[cur.id] = models.OverlapLayout{LaneIndex: cur.lane, LaneCount: neighbors + 1}
	}

	return layout
}
