package dom

// Listener handles an [Event] delivered to a node.
type Listener func(*Event)

// Event is delivered to the target and then to each ancestor until propagation stops.
type Event struct {
	Type    string
	Target  *Node
	Current *Node

	stopped bool
}

// StopPropagation prevents delivery to further ancestors. Remaining listeners on the
// current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

func (e *Event) Stopped() bool { return e.stopped }

// On registers l for events of type typ on n.
func (n *Node) On(typ string, l Listener) {
	if n.listeners == nil {
		n.listeners = make(map[string][]Listener)
	}
	n.listeners[typ] = append(n.listeners[typ], l)
}

// Off drops every listener of type typ on n.
func (n *Node) Off(typ string) {
	delete(n.listeners, typ)
}

// ListenerCount reports how many listeners of type typ are registered on n.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// Dispatch delivers an event of type typ with n as target and bubbles it to the root.
func (n *Node) Dispatch(typ string) *Event {
	ev := &Event{Type: typ, Target: n}
	for cur := n; cur != nil && !ev.stopped; cur = cur.Parent {
		ls := cur.listeners[typ]
		if len(ls) == 0 {
			continue
		}
		ev.Current = cur
		for _, l := range append([]Listener(nil), ls...) {
			l(ev)
		}
	}
	return ev
}

func (n *Node) Click() *Event { return n.Dispatch("click") }
