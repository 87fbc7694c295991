package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/emberhold/internal/story"
)

// compileChronicle digests the previous day into one entry: the weightiest
// story headlines, the first council outcome, and the standout moments.
// Called at the pre-dawn hour of the following day, so "the previous day"
// spans that day's waking hours plus the small hours just past midnight.
func (e *Engine) compileChronicle(st *State) ChronicleEntry {
	day := st.Day - 1
	entry := ChronicleEntry{
		Day:     day,
		Metrics: st.Metrics,
		At:      e.Now(),
	}

	var candidates []story.Event
	for _, ev := range st.Stories {
		if e.inChronicleWindow(st, ev.Day, ev.Hour) {
			candidates = append(candidates, ev)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return story.Weight(candidates[i].Category) > story.Weight(candidates[j].Category)
	})
	for _, ev := range candidates {
		entry.Headlines = append(entry.Headlines, ev.Title)
		if len(entry.Headlines) == 3 {
			break
		}
	}
	if len(entry.Headlines) == 0 {
		entry.Headlines = []string{fmt.Sprintf("A quiet day %d in %s", day, st.Settlement)}
	}

	entry.CouncilOutcome = "The council passed no motions."
	if st.Council.Day == day && len(st.Council.Proposals) > 0 {
		first := st.Council.Proposals[0]
		entry.CouncilOutcome = fmt.Sprintf("%q was %s.", first.Title, first.Status)
	}

	for _, ev := range st.Events {
		if !e.inChronicleWindow(st, ev.Day, ev.Hour) {
			continue
		}
		entry.TopMoments = append(entry.TopMoments, ev.Description)
		if len(entry.TopMoments) == 3 {
			break
		}
	}
	return entry
}

// inChronicleWindow reports whether a day/hour pair falls in the day being
// chronicled: the previous day from its dawn onward, or the current day up
// to the pre-dawn compile hour.
func (e *Engine) inChronicleWindow(st *State, day, hour int) bool {
	if day == st.Day-1 && hour >= e.cfg.Hours.MorningBrief {
		return true
	}
	return day == st.Day && hour <= e.cfg.Hours.PreDawn
}
