package loader

// traversal carries the per-request delegation state threaded through
// recursive lookups: the stack of modules currently resolving, used to fail
// fast on dependency cycles, and the set of modules already explored
// without supplying the symbol, so diamond-shaped graphs are not re-walked.
type traversal struct {
	path  []string
	stack map[string]struct{}
	miss  map[string]struct{}
}

func newTraversal() *traversal {
	return &traversal{
		stack: map[string]struct{}{},
		miss:  map[string]struct{}{},
	}
}

func (t *traversal) enter(id string) {
	t.path = append(t.path, id)
	t.stack[id] = struct{}{}
}

func (t *traversal) exit(id string) {
	t.path = t.path[:len(t.path)-1]
	delete(t.stack, id)
}

func (t *traversal) onStack(id string) bool {
	_, ok := t.stack[id]
	return ok
}

func (t *traversal) markMissed(id string) {
	t.miss[id] = struct{}{}
}

func (t *traversal) missed(id string) bool {
	_, ok := t.miss[id]
	return ok
}

// pathWith returns a copy of the current resolution path extended by the
// module whose edge closed a cycle.
func (t *traversal) pathWith(id string) []string {
	out := make([]string, len(t.path), len(t.path)+1)
	copy(out, t.path)
	return append(out, id)
}
