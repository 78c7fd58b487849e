package scheduler

// armed reports how many timers are waiting to fire.
func (s *Scheduler) armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
