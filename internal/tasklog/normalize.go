package tasklog

// Normalizer flattens stored task forests into canonical Task lists.
// It holds no per-call state and is safe for concurrent use as long as its
// IDSource is.
type Normalizer struct {
	ids IDSource
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithIDSource replaces the clock-based id synthesis
func WithIDSource(src IDSource) Option {
	return func(n *Normalizer) {
		if src != nil {
			n.ids = src
		}
	}
}

// NewNormalizer creates a Normalizer. Without options, missing or colliding
// ids are synthesized from the wall clock.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{ids: ClockIDSource{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize flattens raw with the default Normalizer.
func Normalize(raw any) []Task {
	return defaultNormalizer.Normalize(raw)
}

// Normalize turns a raw task forest into a flat pre-order list.
//
// raw is whatever a storage backend decoded. Anything that is not an ordered
// sequence yields an empty list. Non-object entries anywhere in the tree are
// dropped together with everything below them. Root entries keep their own
// numeric depth hint; every nested entry sits one level below its parent
// regardless of what it claims. Ids are unique within the returned list.
//
// Normalize never fails and never modifies raw.
func (n *Normalizer) Normalize(raw any) []Task {
	out := []Task{}

	roots, ok := sequence(raw)
	if !ok {
		return out
	}

	w := &walker{ids: newIDSet(n.ids), out: out}
	for _, v := range roots {
		node := Classify(v)
		w.visit(node, seedDepth(node))
	}
	return w.out
}

// walker accumulates the output of one Normalize call.
type walker struct {
	ids *idSet
	out []Task
}

func (w *walker) visit(node Node, depth int) {
	switch n := node.(type) {
	case Malformed:
		return
	case Record:
		w.emit(n, depth)
	}
}

// emit appends rec and then its subtree, which keeps the output in pre-order.
func (w *walker) emit(rec Record, depth int) {
	w.out = append(w.out, buildTask(rec, w.ids.claim(rec[fieldID]), depth))

	children, ok := sequence(rec[fieldSubtasks])
	if !ok {
		return
	}
	for _, child := range children {
		w.visit(Classify(child), depth+1)
	}
}

// buildTask copies rec field by field. Unknown fields go to Extra untouched.
func buildTask(rec Record, id ID, depth int) Task {
	task := Task{
		ID:       id,
		Name:     resolveName(rec),
		Status:   statusOf(rec),
		Depth:    depth,
		ActTime:  toNumber(rec[fieldActTime]),
		PlanTime: toNumber(rec[fieldPlanTime]),
		Percent:  toNumber(rec[fieldPercent]),
		SpaceID:  scalarString(rec[fieldSpaceID]),
	}

	for k, v := range rec {
		if canonicalFields[k] {
			continue
		}
		if task.Extra == nil {
			task.Extra = make(map[string]any)
		}
		task.Extra[k] = v
	}
	return task
}
