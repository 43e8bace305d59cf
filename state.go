package routine

// A State carries a value and lets routines wait for it to change.
//
// A State must not be shared by more than one goroutine.
type State[T any] struct {
	changed Signal
	value   T
}

// NewState creates a new [State] with its initial value set to v.
func NewState[T any](v T) *State[T] {
	return &State[T]{value: v}
}

// Get retrieves the value of s.
func (s *State[T]) Get() T {
	return s.value
}

// Set updates the value of s and resumes any routine that is waiting for
// s to change.
func (s *State[T]) Set(v T) {
	s.value = v
	s.changed.Notify()
}

// Update sets the value of s to f(s.Get()).
func (s *State[T]) Update(f func(v T) T) {
	s.Set(f(s.value))
}

// Changed returns a [SignalAwaiter] that completes on the next Set.
func (s *State[T]) Changed() *SignalAwaiter {
	return s.changed.Wait()
}
