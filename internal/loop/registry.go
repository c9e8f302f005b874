package loop

// Registry is the ordered list of loops. Insertion order is track order and
// left-to-right slice order. It is owned by the engine goroutine.
type Registry struct {
	loops []*Loop
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Append(l *Loop) {
	r.loops = append(r.loops, l)
}

// PopLast removes and returns the most recently appended loop. The caller
// owns releasing it.
func (r *Registry) PopLast() (*Loop, bool) {
	if len(r.loops) == 0 {
		return nil, false
	}
	last := r.loops[len(r.loops)-1]
	r.loops[len(r.loops)-1] = nil
	r.loops = r.loops[:len(r.loops)-1]
	return last, true
}

// ClearAll stops and releases every loop and empties the registry.
func (r *Registry) ClearAll() int {
	n := len(r.loops)
	for _, l := range r.loops {
		l.Release()
	}
	r.loops = nil
	return n
}

// PlayAll rewinds every loop and starts them together.
func (r *Registry) PlayAll() {
	for _, l := range r.loops {
		l.Stop()
	}
	for _, l := range r.loops {
		l.Play()
	}
}

func (r *Registry) Len() int {
	return len(r.loops)
}

func (r *Registry) At(i int) *Loop {
	return r.loops[i]
}

// Each calls fn for every loop in track order.
func (r *Registry) Each(fn func(i int, l *Loop)) {
	for i, l := range r.loops {
		fn(i, l)
	}
}
