package docstore

import "sync"

// hub fans document snapshots out to path subscribers.
type hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	latest map[string]int64
}

func newHub() *hub {
	return &hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		latest: make(map[string]int64),
	}
}

// subscriber coalesces undelivered snapshots per document path. A lagging
// reader skips intermediate versions of a document but always receives the
// latest snapshot of every document that changed.
type subscriber struct {
	out    chan Document
	notify chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending map[string]Document
	order   []string
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		out:     make(chan Document),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make(map[string]Document),
	}
	go sub.run()
	return sub
}

// C is the channel handed to Subscribe callers. It closes after unsubscribe.
func (s *subscriber) C() <-chan Document {
	return s.out
}

func (s *subscriber) offer(doc Document) {
	s.mu.Lock()
	if _, queued := s.pending[doc.Path]; !queued {
		s.order = append(s.order, doc.Path)
	}
	s.pending[doc.Path] = doc
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return Document{}, false
	}
	path := s.order[0]
	s.order = s.order[1:]
	doc := s.pending[path]
	delete(s.pending, path)
	return doc, true
}

// take removes a queued snapshot of path, if any.
func (s *subscriber) take(path string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.pending[path]
	if !ok {
		return Document{}, false
	}
	delete(s.pending, path)
	for i, queued := range s.order {
		if queued == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return doc, true
}

func (s *subscriber) run() {
	defer close(s.out)
	for {
		doc, ok := s.next()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		if !s.send(doc) {
			return
		}
	}
}

// send blocks until the reader takes doc, swapping in newer snapshots of the
// same document that arrive meanwhile.
func (s *subscriber) send(doc Document) bool {
	for {
		select {
		case s.out <- doc:
			return true
		case <-s.notify:
			if newer, ok := s.take(doc.Path); ok {
				doc = newer
			}
		case <-s.done:
			return false
		}
	}
}

func (h *hub) subscribe(path string) *subscriber {
	sub := newSubscriber()
	h.mu.Lock()
	group := h.subs[path]
	if group == nil {
		group = make(map[*subscriber]struct{})
		h.subs[path] = group
	}
	group[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) unsubscribe(path string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.subs[path]
	if _, ok := group[sub]; !ok {
		return
	}
	delete(group, sub)
	close(sub.done)
	if len(group) == 0 {
		delete(h.subs, path)
	}
}

// publish delivers doc to subscribers of the document and of its collection.
func (h *hub) publish(doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked(doc)
}

func (h *hub) publishLocked(doc Document) {
	for _, path := range []string{doc.Path, doc.Collection()} {
		for sub := range h.subs[path] {
			sub.offer(doc)
		}
	}
}

// publishNewer publishes doc unless a newer version of the same path already went out.
// Writers that publish outside their own critical section use it to keep per-document order.
func (h *hub) publishNewer(doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if doc.Exists && doc.Version <= h.latest[doc.Path] {
		return
	}
	if doc.Exists {
		h.latest[doc.Path] = doc.Version
	} else {
		delete(h.latest, doc.Path)
	}
	h.publishLocked(doc)
}

func (h *hub) deliverNewer(path string, sub *subscriber, doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if doc.Exists && doc.Version < h.latest[doc.Path] {
		return
	}
	if _, ok := h.subs[path][sub]; ok {
		sub.offer(doc)
	}
}

// deliver sends doc to a single subscriber, used for initial snapshots.
func (h *hub) deliver(path string, sub *subscriber, doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[path][sub]; ok {
		sub.offer(doc)
	}
}
