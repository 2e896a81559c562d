package cart

// Session tracks the cart order ids belonging to an anonymous visitor.
// Ids live in one of two namespaces: active (resumable carts) and completed
// (placed orders still retrievable right after checkout, but never resumed).
type Session interface {
	// CartIDs returns the ids in the active namespace, oldest first.
	CartIDs() []string
	// CompletedCartIDs returns the ids in the completed namespace.
	CompletedCartIDs() []string
	AddCartID(id string)
	HasCartID(id string) bool
	DeleteCartID(id string)
	// MoveToCompleted moves an id from the active to the completed
	// namespace, a one-way transition performed when a cart is finalized.
	MoveToCompleted(id string)
}

// MemorySession is a request-scoped Session. It assumes single-threaded use
// within one request context and carries no locking, matching the engine's
// concurrency model.
type MemorySession struct {
	active    []string
	completed []string
}

// NewMemorySession creates an empty session.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

// CartIDs returns the active cart ids.
func (s *MemorySession) CartIDs() []string { return s.active }

// CompletedCartIDs returns the completed cart ids.
func (s *MemorySession) CompletedCartIDs() []string { return s.completed }

// AddCartID appends an id to the active namespace if not already present.
func (s *MemorySession) AddCartID(id string) {
	if s.HasCartID(id) {
		return
	}
	s.active = append(s.active, id)
}

// HasCartID reports whether the id is in the active namespace.
func (s *MemorySession) HasCartID(id string) bool {
	for _, existing := range s.active {
		if existing == id {
			return true
		}
	}
	return false
}

// DeleteCartID removes the id from the active namespace.
func (s *MemorySession) DeleteCartID(id string) {
	for idx, existing := range s.active {
		if existing == id {
			s.active = append(s.active[:idx], s.active[idx+1:]...)
			return
		}
	}
}

// MoveToCompleted moves the id from the active to the completed namespace.
func (s *MemorySession) MoveToCompleted(id string) {
	s.DeleteCartID(id)
	for _, existing := range s.completed {
		if existing == id {
			return
		}
	}
	s.completed = append(s.completed, id)
}
