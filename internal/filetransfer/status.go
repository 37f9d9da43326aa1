package filetransfer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
)

// TransferStatus is a concurrency-safe progress counter a Sender or
// Receiver updates as bytes move, and that StatusServer renders as JSON.
type TransferStatus struct {
	bytesMoved int64

	mu        sync.RWMutex
	startedAt time.Time
	filename  string
	done      bool
}

// NewTransferStatus returns a status tracker with its clock started.
func NewTransferStatus(filename string) *TransferStatus {
	return &TransferStatus{startedAt: time.Now(), filename: filename}
}

func (s *TransferStatus) addBytes(n int) {
	atomic.AddInt64(&s.bytesMoved, int64(n))
}

// MarkDone records that the transfer this status tracks has finished.
func (s *TransferStatus) MarkDone() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}

type statusSnapshot struct {
	Filename      string `json:"filename"`
	BytesMoved    int64  `json:"bytes_moved"`
	ElapsedMillis int64  `json:"elapsed_ms"`
	Done          bool   `json:"done"`
}

func (s *TransferStatus) snapshot() statusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statusSnapshot{
		Filename:      s.filename,
		BytesMoved:    atomic.LoadInt64(&s.bytesMoved),
		ElapsedMillis: time.Since(s.startedAt).Milliseconds(),
		Done:          s.done,
	}
}

// StatusServer exposes a TransferStatus over HTTP as JSON, request-logged
// through gorilla/handlers the way the teacher pack's fileserverclient
// binary wraps its own http.Handler (a supplemented feature with no
// equivalent in original_source).
type StatusServer struct {
	Addr   string
	Status *TransferStatus

	server *http.Server
}

// Start begins serving in the background and returns immediately.
func (s *StatusServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)

	logged := handlers.LoggingHandler(protoLog.Writer(), mux)

	s.server = &http.Server{
		Addr:    s.Addr,
		Handler: logged,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			protoLog.Printf("[error] status server: %v", err)
		}
	}()
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Status.snapshot())
}

// Stop shuts the status server down, giving in-flight requests a bounded
// window to finish.
func (s *StatusServer) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.server.Shutdown(ctx)
}
