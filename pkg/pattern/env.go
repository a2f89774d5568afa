package pattern

// VarKind classifies a bound metavariable.
type VarKind int

const (
	// VarSingle is a $NAME binding holding exactly one node.
	VarSingle VarKind = iota
	// VarMulti is a $$$NAME binding holding zero or more nodes.
	VarMulti
)

// VarDesc describes one named metavariable bound by a match.
// Anonymous metavariables ($_, $$$) never produce descriptors.
type VarDesc struct {
	Name string
	Kind VarKind
}

// Env holds the metavariable bindings of a single match, plus any labels
// attached by the rule layer after matching.
type Env struct {
	order  []VarDesc
	single map[string]Node
	multi  map[string][]Node
	labels map[string][]Node
}

func newEnv() *Env {
	return &Env{
		single: make(map[string]Node),
		multi:  make(map[string][]Node),
	}
}

// Vars returns descriptors for every named binding in binding order.
// Callers must not modify the returned slice.
func (e *Env) Vars() []VarDesc {
	return e.order
}

// Match returns the node bound to a single metavariable.
func (e *Env) Match(name string) (Node, bool) {
	n, ok := e.single[name]
	return n, ok
}

// MultiMatches returns the nodes bound to a multi metavariable.
func (e *Env) MultiMatches(name string) ([]Node, bool) {
	ns, ok := e.multi[name]
	return ns, ok
}

// AddLabel attaches a labeled node under a category. Order of attachment is
// preserved per category.
func (e *Env) AddLabel(category string, n Node) {
	if e.labels == nil {
		e.labels = make(map[string][]Node)
	}
	e.labels[category] = append(e.labels[category], n)
}

// Labels returns the nodes attached under a category, in attachment order.
func (e *Env) Labels(category string) []Node {
	return e.labels[category]
}

// bindSingle records a $NAME binding. When the name is already bound the
// new node must carry identical text; conflicting bindings fail the match.
// It reports whether the binding took and whether it was new.
func (e *Env) bindSingle(name string, n Node) (ok, fresh bool) {
	if prev, bound := e.single[name]; bound {
		return prev.Text() == n.Text(), false
	}
	e.single[name] = n
	e.order = append(e.order, VarDesc{Name: name, Kind: VarSingle})
	return true, true
}

// bindMulti records a $$$NAME binding, subject to the same consistency rule
// as bindSingle: a rebind must cover identical text.
func (e *Env) bindMulti(name string, ns []Node) (ok, fresh bool) {
	if prev, bound := e.multi[name]; bound {
		return joinedText(prev) == joinedText(ns), false
	}
	e.multi[name] = ns
	e.order = append(e.order, VarDesc{Name: name, Kind: VarMulti})
	return true, true
}

// unbindSingle rolls back a fresh binding during backtracking.
func (e *Env) unbindSingle(name string) {
	delete(e.single, name)
	e.order = e.order[:len(e.order)-1]
}

func (e *Env) unbindMulti(name string) {
	delete(e.multi, name)
	e.order = e.order[:len(e.order)-1]
}

func joinedText(ns []Node) string {
	var b []byte
	for i, n := range ns {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, n.Text()...)
	}
	return string(b)
}
