package engine

// Guard marks a stretch of code as an internal operation. Priority writes
// issued while it is held are not treated as player edits.
type Guard struct {
	depth int
}

func (g *Guard) Active() bool {
	return g.depth > 0
}

// Run holds the guard for the duration of fn, releasing it even if fn panics.
func (g *Guard) Run(fn func()) {
	g.depth++
	defer func() {
		g.depth--
	}()
	fn()
}
