package service

import (
	"strings"
	"sync"

	"github.com/sangkips/repairshop-api/internal/domain/entity"
)

// StatusHub fans ticket status changes out to public subscribers keyed by
// service code. It is read-only towards tickets.
type StatusHub struct {
	subs   map[string]map[chan entity.PublicServiceStatus]struct{}
	mu     sync.RWMutex
	closed bool
}

// NewStatusHub creates an empty hub.
func NewStatusHub() *StatusHub {
	return &StatusHub{
		subs: make(map[string]map[chan entity.PublicServiceStatus]struct{}),
	}
}

// Subscribe registers interest in one service code. The returned cancel
// func must be called when the subscriber goes away.
func (h *StatusHub) Subscribe(code string) (<-chan entity.PublicServiceStatus, func()) {
	code = strings.ToUpper(code)
	ch := make(chan entity.PublicServiceStatus, 4)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[code] == nil {
		h.subs[code] = make(map[chan entity.PublicServiceStatus]struct{})
	}
	h.subs[code][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(code, ch) })
	}
}

func (h *StatusHub) remove(code string, ch chan entity.PublicServiceStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[code]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, code)
	}
}

// Publish delivers status to every subscriber of its code. Slow
// subscribers miss updates instead of blocking the caller.
func (h *StatusHub) Publish(status entity.PublicServiceStatus) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[strings.ToUpper(status.ServiceCode)] {
		select {
		case ch <- status:
		default:
		}
	}
}

// Drop disconnects every subscriber of one code, e.g. when its ticket is
// deleted and no further updates can follow.
func (h *StatusHub) Drop(code string) {
	code = strings.ToUpper(code)
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[code] {
		close(ch)
	}
	delete(h.subs, code)
}

// Subscribers reports how many listeners a code has.
func (h *StatusHub) Subscribers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[strings.ToUpper(code)])
}

// Close disconnects every subscriber.
func (h *StatusHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for code, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, code)
	}
}
