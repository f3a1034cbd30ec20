package naming

import "sync"

// CollisionResolver tracks output paths claimed by input files. The first
// input to claim an output owns it for the rest of the run; later inputs
// mapping to the same output are refused. All methods are goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	owners map[string]string // output path → input path that owns it
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{owners: make(map[string]string)}
}

// Claim records input as the owner of output. It returns ok=false and the
// current owner when another input already claimed output. Re-claiming by
// the same input succeeds.
func (cr *CollisionResolver) Claim(input, output string) (owner string, ok bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if prev, exists := cr.owners[output]; exists && prev != input {
		return prev, false
	}
	cr.owners[output] = input
	return input, true
}

// Owner returns the input that claimed output, if any.
func (cr *CollisionResolver) Owner(output string) (string, bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	owner, ok := cr.owners[output]
	return owner, ok
}
