package devtools

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// RequestEvent is a request about to be sent. Timestamp is monotonic
// seconds; WallTime is the matching wall clock time.
type RequestEvent struct {
	ID        string
	Method    string
	URL       string
	Headers   []capture.Header
	PostData  *string
	Timestamp float64
	WallTime  time.Time
	// Redirect carries the response that caused this request, if any.
	Redirect *ResponseEvent
}

// ResponseEvent carries response metadata for a request.
type ResponseEvent struct {
	ID       string
	Status   int
	Headers  []capture.Header
	MimeType string
}

// BodyFetcher returns a lazy body fetcher for the request with the given id.
type BodyFetcher func(id string) capture.BodyFunc

type pending struct {
	req  RequestEvent
	resp *ResponseEvent
}

// Tracker correlates network events by request id and emits one exchange
// per finished load. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]*pending
	fetch   BodyFetcher
	emit    func(capture.Exchange)
}

// NewTracker creates a tracker. emit is called outside the tracker lock.
func NewTracker(fetch BodyFetcher, emit func(capture.Exchange)) *Tracker {
	return &Tracker{
		pending: make(map[string]*pending),
		fetch:   fetch,
		emit:    emit,
	}
}

// OnRequest records a new request. A redirect finishes the previous hop of
// the same id, which is emitted without a body.
func (t *Tracker) OnRequest(ev RequestEvent) {
	var hop *capture.Exchange

	t.mu.Lock()
	if prev, ok := t.pending[ev.ID]; ok && ev.Redirect != nil {
		prev.resp = ev.Redirect
		ex := build(prev, ev.Timestamp, nil)
		hop = &ex
	}
	t.pending[ev.ID] = &pending{req: ev}
	t.mu.Unlock()

	if hop != nil {
		t.emit(*hop)
	}
}

// OnResponse attaches response metadata to a pending request.
func (t *Tracker) OnResponse(ev ResponseEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[ev.ID]; ok {
		r := ev
		p.resp = &r
	}
}

// OnFinished completes a request. Requests that never saw a response are
// dropped.
func (t *Tracker) OnFinished(id string, timestamp float64) {
	t.mu.Lock()
	p, ok := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()

	if !ok || p.resp == nil {
		return
	}

	var body capture.BodyFunc
	if t.fetch != nil {
		body = t.fetch(id)
	}
	t.emit(build(p, timestamp, body))
}

// OnFailed drops a request that did not complete.
func (t *Tracker) OnFailed(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

// Pending returns the number of requests awaiting completion.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func build(p *pending, finished float64, body capture.BodyFunc) capture.Exchange {
	ex := capture.Exchange{
		Method:          p.req.Method,
		URL:             p.req.URL,
		RequestHeaders:  p.req.Headers,
		Status:          p.resp.Status,
		ResponseHeaders: p.resp.Headers,
		MimeType:        p.resp.MimeType,
		ElapsedMs:       elapsedMs(p.req.Timestamp, finished),
		StartedAt:       p.req.WallTime,
		Body:            body,
	}
	if p.req.PostData != nil {
		ex.PostData = &capture.PostData{
			MimeType: headerValue(p.req.Headers, "Content-Type"),
			Text:     *p.req.PostData,
		}
	}
	return ex
}

func elapsedMs(start, end float64) float64 {
	if start <= 0 || end <= 0 {
		return math.NaN()
	}
	return (end - start) * 1000
}

// headerValue finds name case-insensitively; the last occurrence wins.
func headerValue(hs []capture.Header, name string) string {
	var v string
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			v = h.Value
		}
	}
	return v
}
