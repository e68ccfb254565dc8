// Package analytics derives the process-mining views of a finished event log:
// variants (cases grouped by their exact activity sequence), time per task,
// per-case duration and the mean time spent in each activity.
//
// Every figure is recomputed from the full activity set. Nothing is updated
// incrementally, so the pass must run on a stable snapshot after generation.
package analytics

import (
	"slices"
	"sort"
	"strings"

	"github.com/Ofi-Services/unified-backend/model"
)

// Result is the output of one analytics pass.
type Result struct {
	// Variants in order of discovery.
	Variants []model.Variant
	// TPT maps activity id to seconds until the next activity of its case.
	// The last activity of each case maps to 0.
	TPT map[int64]float64
	// AvgTime maps case id to the seconds between its first and last
	// activity.
	AvgTime map[int]float64
}

// caseLog is one case's activities in storage order.
type caseLog struct {
	id         int
	activities []model.Activity
}

// groupByCase splits activities by case, keeping storage order within each
// case and ordering the cases by first appearance.
func groupByCase(activities []model.Activity) []caseLog {
	index := make(map[int]int)
	var logs []caseLog
	for _, a := range activities {
		i, ok := index[a.CaseID]
		if !ok {
			i = len(logs)
			index[a.CaseID] = i
			logs = append(logs, caseLog{id: a.CaseID})
		}
		logs[i].activities = append(logs[i].activities, a)
	}
	return logs
}

// byTime returns a copy of activities sorted by timestamp. Ties keep storage
// order.
func byTime(activities []model.Activity) []model.Activity {
	out := slices.Clone(activities)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// span is the seconds between the earliest and latest activity.
func span(sorted []model.Activity) float64 {
	if len(sorted) < 2 {
		return 0
	}
	return sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Seconds()
}

// Compute runs the whole analytics pass over activities given in storage
// order. It is a pure function of its input.
func Compute(activities []model.Activity) Result {
	logs := groupByCase(activities)
	res := Result{
		Variants: []model.Variant{},
		TPT:      make(map[int64]float64, len(activities)),
		AvgTime:  make(map[int]float64, len(logs)),
	}

	// 1. Per-case duration and time per task.
	spans := make(map[int]float64, len(logs))
	for _, l := range logs {
		sorted := byTime(l.activities)
		for i, a := range sorted {
			if i == len(sorted)-1 {
				res.TPT[a.ID] = 0
				continue
			}
			res.TPT[a.ID] = sorted[i+1].Timestamp.Sub(a.Timestamp).Seconds()
		}
		spans[l.id] = span(sorted)
		res.AvgTime[l.id] = spans[l.id]
	}

	// 2. Variants keyed by the activity sequence as logged.
	type group struct {
		names []string
		cases []int
	}
	keys := make(map[string]int)
	var groups []group
	for _, l := range logs {
		names := make([]string, len(l.activities))
		for i, a := range l.activities {
			names[i] = a.Name
		}
		key := strings.Join(names, "\x00")
		gi, ok := keys[key]
		if !ok {
			gi = len(groups)
			keys[key] = gi
			groups = append(groups, group{names: names})
		}
		groups[gi].cases = append(groups[gi].cases, l.id)
	}

	total := len(logs)
	for _, g := range groups {
		var sum float64
		for _, id := range g.cases {
			sum += spans[id]
		}
		res.Variants = append(res.Variants, model.Variant{
			Activities:  g.names,
			Cases:       g.cases,
			NumberCases: len(g.cases),
			Percentage:  float64(len(g.cases)) / float64(total) * 100,
			AvgTime:     sum / float64(len(g.cases)),
		})
	}
	return res
}

// MeanTimePerActivity attributes the gap between each pair of consecutive
// activities of a case to the earlier one and averages the gaps per activity
// name. Results are sorted by name.
func MeanTimePerActivity(activities []model.Activity) []model.ActivityTime {
	type acc struct {
		sum float64
		n   int
	}
	totals := make(map[string]*acc)
	for _, l := range groupByCase(activities) {
		sorted := byTime(l.activities)
		for i := 0; i+1 < len(sorted); i++ {
			t, ok := totals[sorted[i].Name]
			if !ok {
				t = &acc{}
				totals[sorted[i].Name] = t
			}
			t.sum += sorted[i+1].Timestamp.Sub(sorted[i].Timestamp).Seconds()
			t.n++
		}
	}

	out := make([]model.ActivityTime, 0, len(totals))
	for name, t := range totals {
		out = append(out, model.ActivityTime{
			Name:        name,
			MeanSeconds: t.sum / float64(t.n),
			Samples:     t.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
