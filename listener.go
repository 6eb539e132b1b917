package gridsheet

// EventKind tells what produced a change notification.
type EventKind int

const (
	EventUpdate EventKind = iota
	EventMove
	EventInsertRows
	EventInsertCols
	EventRemoveRows
	EventRemoveCols
	EventUndo
	EventRedo
	EventAsync
)

// String returns a human-readable name for the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventMove:
		return "move"
	case EventInsertRows:
		return "insert_rows"
	case EventInsertCols:
		return "insert_cols"
	case EventRemoveRows:
		return "remove_rows"
	case EventRemoveCols:
		return "remove_cols"
	case EventUndo:
		return "undo"
	case EventRedo:
		return "redo"
	case EventAsync:
		return "async"
	default:
		return "unknown"
	}
}

func eventFor(ax axis, insert bool) EventKind {
	switch {
	case ax == rowAxis && insert:
		return EventInsertRows
	case ax == rowAxis:
		return EventRemoveRows
	case insert:
		return EventInsertCols
	default:
		return EventRemoveCols
	}
}

// Event is transmitted after a mutation or an async completion. Table is the
// new snapshot of the sheet that changed.
type Event struct {
	Kind    EventKind
	SheetID int
	Table   *Table
}

// Listener is notified of every Event of a Book.
// Implement this interface to re-render or persist after changes.
type Listener interface {
	TableChanged(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) TableChanged(ev Event) { f(ev) }

type subscription struct {
	id       int
	listener Listener
}

// Subscribe registers l and returns a function removing it.
func (b *Book) Subscribe(l Listener) (unsubscribe func()) {
	b.lastSubID++
	id := b.lastSubID
	b.subs = append(b.subs, subscription{id: id, listener: l})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Transmit sends ev to every subscriber in subscription order.
func (b *Book) Transmit(ev Event) {
	for _, s := range append([]subscription(nil), b.subs...) {
		s.listener.TableChanged(ev)
	}
}
