package state

// ProgressEvent describes how far a report run has come. Global bounds are
// always those of the master report.
type ProgressEvent struct {
	Activity     Activity
	Level        int
	MaximumLevel int
	Pass         int
	PassCount    int
	Row          int
	MaximumRow   int
	Page         int
	TotalPages   int
}

// ProgressTracker owns one event that is overwritten for every
// notification. Only one goroutine may use a tracker; listeners that keep
// an event must take a Snapshot.
type ProgressTracker struct {
	ev ProgressEvent
}

// Reuse overwrites the tracked event from the root frame of st.
func (t *ProgressTracker) Reuse(a Activity, st *Stack, page, totalPages int) *ProgressEvent {
	t.ev = ProgressEvent{Activity: a, Page: page, TotalPages: totalPages, Level: StructuralLevel}
	if root := st.Root(); root != nil {
		t.ev.Level = root.Level
		t.ev.MaximumLevel = root.MaximumLevel
		t.ev.Pass = root.Pass
		t.ev.PassCount = root.PassCount
		t.ev.Row = root.Row
		t.ev.MaximumRow = root.MaximumRow
	}
	return &t.ev
}

// Event returns the live event.
func (t *ProgressTracker) Event() *ProgressEvent { return &t.ev }

// Snapshot returns a copy that later Reuse calls do not touch.
func (t *ProgressTracker) Snapshot() ProgressEvent { return t.ev }

// Weights tune PercentageComplete.
type Weights struct {
	// Structural is the share in percent reserved for the structural
	// computation before any data level.
	Structural float64
	// Layout is the cost of one layout pass in data passes.
	Layout int
}

var DefaultWeights = Weights{Structural: 10, Layout: 5}

// PercentageComplete maps an event to [0,100]. Every precompute pass
// costs one unit, pagination and content generation cost w.Layout units
// each and the row fraction interpolates within the current unit. The
// structural phase fills the first w.Structural percent. With
// onlyPagination the run ends after pagination.
func PercentageComplete(ev ProgressEvent, onlyPagination bool, w Weights) float64 {
	if w.Layout <= 0 {
		w.Layout = DefaultWeights.Layout
	}
	s := clamp(w.Structural, 0, 100)

	frac := 0.0
	if ev.MaximumRow > 0 {
		frac = clamp(float64(ev.Row)/float64(ev.MaximumRow), 0, 1)
	}
	if ev.Activity == ComputingLayout || ev.Level == StructuralLevel {
		return s * frac
	}

	passes := float64(max(ev.PassCount, 0))
	layout := float64(w.Layout)
	total := passes + layout
	if !onlyPagination {
		total += layout
	}

	var done, size float64
	switch ev.Activity {
	case PrecomputingValues:
		done, size = clamp(float64(ev.Pass), 0, passes), 1
	case Paginating:
		done, size = passes, layout
	case GeneratingContent:
		if onlyPagination {
			return 100
		}
		done, size = passes+layout, layout
	}
	return clamp(s+(100-s)*(done+size*frac)/total, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Listener receives progress events. The event is a copy.
type Listener func(ProgressEvent)

// Notifier delivers events synchronously on the processing goroutine.
// Register listeners before the run starts.
type Notifier struct {
	byActivity map[Activity][]Listener
	all        []Listener
}

// Subscribe registers l for one activity.
func (n *Notifier) Subscribe(a Activity, l Listener) {
	if n.byActivity == nil {
		n.byActivity = make(map[Activity][]Listener)
	}
	n.byActivity[a] = append(n.byActivity[a], l)
}

// SubscribeAll registers l for every activity.
func (n *Notifier) SubscribeAll(l Listener) { n.all = append(n.all, l) }

func (n *Notifier) Notify(ev *ProgressEvent) {
	if n == nil {
		return
	}
	for _, l := range n.byActivity[ev.Activity] {
		l(*ev)
	}
	for _, l := range n.all {
		l(*ev)
	}
}
