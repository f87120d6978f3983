package service

// requestGuard correlates a dependent fetch with the input that started it. Every input change
// calls Begin; a response is applied only while its token is still current. Callers hold the
// owning session's lock around both calls.
type requestGuard struct {
	generation uint64
}

// Begin invalidates every outstanding token and returns a new one.
func (g *requestGuard) Begin() uint64 {
	g.generation++
	return g.generation
}

// Current reports whether token belongs to the latest input.
func (g *requestGuard) Current(token uint64) bool {
	return token == g.generation
}
