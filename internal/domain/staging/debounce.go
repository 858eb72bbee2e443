package staging

import (
	"context"
	"sync"
	"time"
)

// DefaultSaveWindow is the quiet period before an edited row is persisted
const DefaultSaveWindow = 500 * time.Millisecond

type writeFunc func(ctx context.Context, id string, fields map[Field]any)

// pendingWrite is the single slot of unsaved fields for one row
type pendingWrite struct {
	fields map[Field]any
	timer  *time.Timer
	gen    uint64
}

// debouncer coalesces edits per row id. Every edit to a row restarts its
// window; when the window elapses the merged fields are written once.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pendingWrite
	write   writeFunc
}

func newDebouncer(window time.Duration, write writeFunc) *debouncer {
	if window <= 0 {
		window = DefaultSaveWindow
	}
	return &debouncer{
		window:  window,
		pending: make(map[string]*pendingWrite),
		write:   write,
	}
}

// schedule records field=value for id and restarts the row's window
func (d *debouncer) schedule(id string, field Field, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[id]
	if !ok {
		p = &pendingWrite{fields: make(map[Field]any)}
		d.pending[id] = p
	} else {
		p.timer.Stop()
	}
	p.fields[field] = value
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(d.window, func() { d.fire(id, p, gen) })
}

func (d *debouncer) fire(id string, p *pendingWrite, gen uint64) {
	d.mu.Lock()
	if d.pending[id] != p || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)
	d.mu.Unlock()

	d.write(context.Background(), id, p.fields)
}

// cancel drops the unsaved fields of id
func (d *debouncer) cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[id]; ok {
		p.timer.Stop()
		delete(d.pending, id)
	}
}

// cancelAll drops every unsaved field
func (d *debouncer) cancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, id)
	}
}

// flush writes every pending slot now and waits for the writes to finish
func (d *debouncer) flush(ctx context.Context) {
	d.mu.Lock()
	slots := d.pending
	d.pending = make(map[string]*pendingWrite)
	for _, p := range slots {
		p.timer.Stop()
	}
	d.mu.Unlock()

	for id, p := range slots {
		d.write(ctx, id, p.fields)
	}
}

// size returns the number of rows with unsaved fields
func (d *debouncer) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
