package converter

import "time"

// GroupStat is the per-group row of a batch summary.
type GroupStat struct {
	// Group is the originating input directory, or "files" for
	// explicitly listed sources.
	Group     string
	Attempted int
	Succeeded int
	Failed    int
}

// Summary aggregates a whole batch. For every row, and for the totals,
// Attempted == Succeeded + Failed.
type Summary struct {
	Groups    []GroupStat
	Attempted int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
	// Results holds the per-file outcomes in processing order.
	Results []Result
}

// aggregator accumulates results keyed by group, preserving first-seen
// group order.
type aggregator struct {
	order   []string
	groups  map[string]*GroupStat
	results []Result
}

func newAggregator() *aggregator {
	return &aggregator{groups: make(map[string]*GroupStat)}
}

// addGroup registers a group so that zero-match inputs still get a
// summary row.
func (a *aggregator) addGroup(name string) {
	if _, ok := a.groups[name]; ok {
		return
	}
	a.groups[name] = &GroupStat{Group: name}
	a.order = append(a.order, name)
}

func (a *aggregator) record(r Result) {
	a.addGroup(r.Group)
	g := a.groups[r.Group]
	g.Attempted++
	if r.OK {
		g.Succeeded++
	} else {
		g.Failed++
	}
	a.results = append(a.results, r)
}

func (a *aggregator) summary() *Summary {
	s := &Summary{Results: a.results}
	for _, name := range a.order {
		g := a.groups[name]
		s.Groups = append(s.Groups, *g)
		s.Attempted += g.Attempted
		s.Succeeded += g.Succeeded
		s.Failed += g.Failed
	}
	return s
}
