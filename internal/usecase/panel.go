package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPanelClosed     = errors.New("quote chat is closed")
	ErrSessionNotFound = errors.New("quote chat session not found")
)

// Panel is the open/closed chat surface and the single QuoteChat behind it.
// Opening always starts a fresh chat.
type Panel struct {
	open bool
	chat *QuoteChat
}

func NewPanel(profile Profile) *Panel {
	return &Panel{chat: NewQuoteChat(profile)}
}

func (p *Panel) Open() {
	p.chat.Reset()
	p.open = true
}

func (p *Panel) Close() { p.open = false }

// Toggle flips the panel and reports whether it is now open.
func (p *Panel) Toggle() bool {
	if p.open {
		p.Close()
	} else {
		p.Open()
	}
	return p.open
}

func (p *Panel) IsOpen() bool { return p.open }

// Chat exposes the controller for read access. Mutations go through the
// panel so a closed panel cannot advance.
func (p *Panel) Chat() *QuoteChat { return p.chat }

func (p *Panel) SubmitText(text string) (Reply, error) {
	if !p.open {
		return Reply{}, ErrPanelClosed
	}
	return p.chat.SubmitText(text), nil
}

func (p *Panel) SelectService(name string) (Reply, error) {
	if !p.open {
		return Reply{}, ErrPanelClosed
	}
	return p.chat.SelectService(name), nil
}

func (p *Panel) Skip() (Reply, error) {
	if !p.open {
		return Reply{}, ErrPanelClosed
	}
	return p.chat.Skip(), nil
}

type panelEntry struct {
	panel    *Panel
	lastSeen time.Time
}

// PanelStore keeps one Panel per conversation (a Telegram chat, a widget
// session). Calls for the same key are serialized.
type PanelStore struct {
	mu      sync.Mutex
	profile Profile
	ttl     time.Duration
	now     func() time.Time
	panels  map[string]*panelEntry
}

type PanelStoreOption func(*PanelStore)

// WithTTL sets how long an untouched panel is kept. Zero keeps panels forever.
func WithTTL(ttl time.Duration) PanelStoreOption {
	return func(s *PanelStore) { s.ttl = ttl }
}

func WithClock(now func() time.Time) PanelStoreOption {
	return func(s *PanelStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewPanelStore(profile Profile, opts ...PanelStoreOption) *PanelStore {
	s := &PanelStore{
		profile: profile,
		now:     time.Now,
		panels:  make(map[string]*panelEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates the panel for key if needed and opens it on a fresh chat.
func (s *PanelStore) Open(key string, fn func(*Panel)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.panels[key]
	if !ok {
		e = &panelEntry{panel: NewPanel(s.profile)}
		s.panels[key] = e
	}
	e.lastSeen = s.now()
	e.panel.Open()
	if fn != nil {
		fn(e.panel)
	}
}

// Do runs fn against an existing panel.
func (s *PanelStore) Do(key string, fn func(*Panel) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.panels[key]
	if !ok {
		return ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return fn(e.panel)
}

// Close closes the panel and forgets it.
func (s *PanelStore) Close(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.panels[key]
	if !ok {
		return ErrSessionNotFound
	}
	e.panel.Close()
	delete(s.panels, key)
	return nil
}

// Sweep drops panels idle for longer than the TTL and returns how many went.
func (s *PanelStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for k, e := range s.panels {
		if e.lastSeen.Before(cutoff) {
			delete(s.panels, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *PanelStore) RunSweeper(ctx context.Context, every time.Duration, onSweep func(removed int)) {
	if s.ttl <= 0 || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *PanelStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels)
}
