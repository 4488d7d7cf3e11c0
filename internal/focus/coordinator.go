// Package focus tracks which grid cell is being edited and implements the
// commit-and-advance Tab protocol on top of the operation queue.
package focus

// Cell addresses one grid cell. RowKey is model.Row.Key().
type Cell struct {
	RowKey string
	Column string
}

type subscriber struct {
	id int
	fn func()
}

// Coordinator holds at most one active edit cell. The last Set wins.
type Coordinator struct {
	active  *Cell
	subs    []subscriber
	nextSub int
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Set replaces the active cell (nil clears it) and notifies subscribers.
func (c *Coordinator) Set(cell *Cell) {
	if cell == nil {
		c.active = nil
	} else {
		cp := *cell
		c.active = &cp
	}
	c.notify()
}

func (c *Coordinator) Clear() { c.Set(nil) }

func (c *Coordinator) Active() (Cell, bool) {
	if c.active == nil {
		return Cell{}, false
	}
	return *c.active, true
}

// IsActive reports whether (rowKey, col) is the active cell.
func (c *Coordinator) IsActive(rowKey, col string) bool {
	return c.active != nil && c.active.RowKey == rowKey && c.active.Column == col
}

// Subscribe registers fn; the returned func unregisters it.
func (c *Coordinator) Subscribe(fn func()) func() {
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Coordinator) notify() {
	subs := append([]subscriber(nil), c.subs...)
	for _, sub := range subs {
		sub.fn()
	}
}
