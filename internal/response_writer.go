package internal

import (
	"bytes"
	"net/http"
	"sync"
)

// ResponseWriter buffers the response so the dispatcher can guarantee
// exactly one committed response per request. Handlers write status and body
// into the buffer; nothing reaches the transport until Commit. A handler
// that fails after partial output leaves only buffered bytes behind, which
// Discard throws away before the error boundary renders its own response.
//
// All methods are safe for concurrent use: a handler abandoned by the
// timeout middleware may still be writing while the dispatcher commits, and
// anything written after the commit is dropped instead of corrupting the
// wire response.
type ResponseWriter struct {
	mu           sync.Mutex
	dst          http.ResponseWriter
	body         bytes.Buffer
	beforeCommit []func()
	lateHeader   http.Header
	status       int
	written      bool
	committed    bool
}

// NewResponseWriter creates a buffered writer over the transport writer.
func NewResponseWriter(dst http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		dst:    dst,
		status: http.StatusOK,
	}
}

// Header returns the header map that will be sent at commit. After the
// commit a detached map is handed out, so late header writes from an
// abandoned handler cannot touch what went on the wire.
func (w *ResponseWriter) Header() http.Header {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.committed {
		if w.lateHeader == nil {
			w.lateHeader = make(http.Header)
		}
		return w.lateHeader
	}
	return w.dst.Header()
}

// WriteHeader records the status code. The first explicit status wins;
// later calls are ignored, matching net/http semantics.
func (w *ResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written || w.committed {
		return
	}
	w.written = true
	w.status = code
}

// Write buffers body bytes. An implicit 200 is recorded on first write.
// Writes after the commit report success but go nowhere.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.committed {
		return len(b), nil
	}
	if !w.written {
		w.written = true
	}
	return w.body.Write(b)
}

// OnBeforeCommit registers a hook to run once, right before the response is
// committed to the transport. The session flush checkpoint hangs here: the
// store write happens before the first byte leaves the process.
func (w *ResponseWriter) OnBeforeCommit(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.beforeCommit = append(w.beforeCommit, fn)
}

// Discard drops buffered output and recorded status so the error boundary
// can build a clean response. Committed responses cannot be discarded.
func (w *ResponseWriter) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.discardLocked()
}

func (w *ResponseWriter) discardLocked() {
	if w.committed {
		return
	}
	w.body.Reset()
	w.status = http.StatusOK
	w.written = false

	for k := range w.dst.Header() {
		delete(w.dst.Header(), k)
	}
}

// Commit sends status, headers, and buffered body to the transport exactly
// once. Second and later calls are no-ops.
func (w *ResponseWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commitLocked()
}

func (w *ResponseWriter) commitLocked() error {
	if w.committed {
		return nil
	}
	w.committed = true

	hooks := w.beforeCommit
	w.beforeCommit = nil
	for _, fn := range hooks {
		fn()
	}

	w.dst.WriteHeader(w.status)
	_, err := w.dst.Write(w.body.Bytes())
	return err
}

// CommitError discards whatever is buffered and commits a plain-text error
// response in a single critical section. The timeout middleware uses it to
// put the 504 on the wire while the abandoned handler may still be running:
// no handler byte can interleave, and everything the handler writes
// afterwards is dropped.
func (w *ResponseWriter) CommitError(code int, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.committed {
		return nil
	}
	w.discardLocked()
	w.dst.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.status = code
	w.written = true
	w.body.WriteString(message)
	return w.commitLocked()
}

// Status returns the recorded HTTP status code.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of buffered body bytes.
func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(w.body.Len())
}

// Written reports whether a handler has produced output or set a status.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Committed reports whether the response has been sent to the transport.
func (w *ResponseWriter) Committed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.committed
}

// Unwrap returns the underlying transport writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.dst
}
