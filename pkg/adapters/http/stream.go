package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// AllShards subscribes to calls on every shard.
const AllShards = "*"

const subscriberBuffer = 10

// StreamManager fans call events out to subscribers keyed by shard id.
type StreamManager struct {
	mu      sync.RWMutex
	clients map[string]map[chan []byte]struct{}
	logger  *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		clients: make(map[string]map[chan []byte]struct{}),
		logger:  logging.NewNop(),
	}
}

// SetLogger replaces the logger used for dropped-message warnings.
func (sm *StreamManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Subscribe registers a listener for shardID (or AllShards).
// The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(shardID string) (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, subscriberBuffer)
	if _, ok := sm.clients[shardID]; !ok {
		sm.clients[shardID] = make(map[chan []byte]struct{})
	}
	sm.clients[shardID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.clients[shardID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.clients, shardID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers reports the number of listeners on shardID.
func (sm *StreamManager) Subscribers(shardID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.clients[shardID])
}

// Broadcast sends msg to subscribers of shardID and of AllShards.
// A subscriber whose buffer is full misses the message.
func (sm *StreamManager) Broadcast(shardID string, msg []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{shardID, AllShards} {
		for ch := range sm.clients[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("subscriber buffer full, dropping event", "shard", shardID)
			}
		}
		if shardID == AllShards {
			break
		}
	}
}

// Hooks publishes every completed mesh call to its shard's subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCallReturn: func(_ context.Context, e *domain.CallEvent) {
			msg, err := json.Marshal(e)
			if err != nil {
				sm.logger.Warn("call event not encodable", "shard", e.ShardID, "err", err)
				return
			}
			sm.Broadcast(e.ShardID, msg)
		},
	}
}

// SubscribeEvents handles GET /events/{shardId} as a Server-Sent Events stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	shardID := chi.URLParam(r, "shardId")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.Streams.Subscribe(shardID)
	defer unsubscribe()

	fmt.Fprintf(w, ": subscribed to %s\n\n", shardID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: mesh_call\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
