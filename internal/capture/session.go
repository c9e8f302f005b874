package capture

import (
	"sync"
)

// streamSession slices the PCM a device writes into fixed-size chunks and
// delivers them through the dispatcher. Devices call write from their audio
// thread; State, Start and Stop are called from the recorder's goroutine.
type streamSession struct {
	mu         sync.Mutex
	state      SessionState
	finished   bool
	handlers   Handlers
	pending    []byte
	chunkBytes int

	// emitMu keeps the order of dispatched callbacks equal to the order of
	// writes, and guarantees OnStop is dispatched after the last OnData.
	emitMu   sync.Mutex
	dispatch Dispatcher

	attach func(*streamSession)
	detach func(*streamSession)
}

func newStreamSession(dispatch Dispatcher, chunkBytes int, attach, detach func(*streamSession)) *streamSession {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &streamSession{
		state:      SessionInactive,
		dispatch:   dispatch,
		chunkBytes: chunkBytes,
		attach:     attach,
		detach:     detach,
	}
}

func (s *streamSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *streamSession) Start(h Handlers) error {
	s.mu.Lock()
	if s.state == SessionRecording {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	if s.finished {
		s.mu.Unlock()
		return ErrSessionFinished
	}
	s.state = SessionRecording
	s.handlers = h
	s.mu.Unlock()

	if s.attach != nil {
		s.attach(s)
	}
	return nil
}

// Stop finalizes the session: any buffered partial chunk is flushed, then
// OnStop is dispatched. Stopping an inactive session is a no-op.
func (s *streamSession) Stop() error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state != SessionRecording {
		s.mu.Unlock()
		return nil
	}
	s.state = SessionInactive
	s.finished = true
	tail := s.pending
	s.pending = nil
	h := s.handlers
	s.mu.Unlock()

	if s.detach != nil {
		s.detach(s)
	}

	s.dispatch(func() {
		if len(tail) > 0 && h.OnData != nil {
			h.OnData(Chunk(tail))
		}
		if h.OnStop != nil {
			h.OnStop()
		}
	})
	return nil
}

// write appends captured PCM. It is a no-op unless the session is recording.
func (s *streamSession) write(p []byte) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state != SessionRecording {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, p...)
	var ready []Chunk
	for len(s.pending) >= s.chunkBytes {
		c := make(Chunk, s.chunkBytes)
		copy(c, s.pending[:s.chunkBytes])
		s.pending = s.pending[s.chunkBytes:]
		ready = append(ready, c)
	}
	onData := s.handlers.OnData
	s.mu.Unlock()

	if onData == nil {
		return
	}
	for _, c := range ready {
		c := c
		s.dispatch(func() { onData(c) })
	}
}
