package reconciler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/pkg/log"
)

const (
	sentinelEvent   = "Connected to SSE stream"
	previewRunes    = 50
	previewEllipsis = "..."
)

// Notification is surfaced when a pushed message does not belong to the
// open conversation.
type Notification struct {
	From          domain.UserRef
	Preview       string
	CounterpartID string
}

// Summary is the newest message exchanged with one counterpart.
type Summary struct {
	Counterpart domain.UserRef
	Last        *domain.MessageEvent
	UnseenCount int
}

// Reconciler maintains one delivery-stream connection per session and
// classifies incoming events: messages for the open conversation are
// appended to the transcript, everything else becomes a notification.
// The current conversation is a mutable cell read at event time, so
// navigating while the stream stays open reclassifies correctly.
type Reconciler struct {
	userID string
	client *http.Client

	current     atomic.Value // string: counterpart id, "" when none open
	refreshHook atomic.Value // func()

	mu         sync.Mutex
	transcript []*domain.MessageEvent
	notify     func(Notification)
}

// New creates a reconciler for the given local user.
func New(userID string, client *http.Client) *Reconciler {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Reconciler{
		userID: userID,
		client: client,
	}
	r.current.Store("")
	return r
}

// SetCurrentCounterpart records which conversation is open. Pass the
// empty string when none is.
func (r *Reconciler) SetCurrentCounterpart(counterpartID string) {
	r.current.Store(counterpartID)
}

// CurrentCounterpart returns the open conversation's counterpart id.
func (r *Reconciler) CurrentCounterpart() string {
	return r.current.Load().(string)
}

// SetRefreshHook registers the recent-summary refresh callback. It runs
// after every classified event. Pass nil to unregister.
func (r *Reconciler) SetRefreshHook(fn func()) {
	r.refreshHook.Store(fn)
}

// OnNotification registers the handler for out-of-view messages.
func (r *Reconciler) OnNotification(fn func(Notification)) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// Transcript returns a copy of the open conversation's appended events.
func (r *Reconciler) Transcript() []*domain.MessageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.MessageEvent, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// ResetTranscript clears the in-memory transcript, as happens when the
// client rebuilds a conversation view from a fresh pull.
func (r *Reconciler) ResetTranscript() {
	r.mu.Lock()
	r.transcript = nil
	r.mu.Unlock()
}

// Listen opens the delivery stream and processes events until the
// server closes it or ctx is canceled. There is no automatic reconnect;
// the session owner decides when to call Listen again.
func (r *Reconciler) Listen(ctx context.Context, streamURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream rejected: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		// A blank line terminates one event.
		if line == "" {
			if data.Len() > 0 {
				r.handleEvent(data.String())
				data.Reset()
			}
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(value, " "))
		}
		// Other SSE fields (event, id, retry) are not used here.
	}
	if data.Len() > 0 {
		r.handleEvent(data.String())
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// handleEvent classifies one event. A bad payload is dropped; the
// stream is never torn down for a single bad event.
func (r *Reconciler) handleEvent(data string) {
	if data == sentinelEvent {
		return
	}

	var event domain.MessageEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		l := log.L()
		l.Debug().Err(err).Msg("discarding undecodable push event")
		return
	}

	counterpart := event.Counterpart(r.userID)

	// Read the live navigation target now, not the one from when the
	// stream was opened.
	if r.CurrentCounterpart() == counterpart.ID {
		r.mu.Lock()
		r.transcript = append(r.transcript, &event)
		r.mu.Unlock()
	} else {
		r.mu.Lock()
		notify := r.notify
		r.mu.Unlock()
		if notify != nil {
			notify(Notification{
				From:          event.FromUser,
				Preview:       preview(event.Text),
				CounterpartID: counterpart.ID,
			})
		}
	}

	if hook, ok := r.refreshHook.Load().(func()); ok && hook != nil {
		hook()
	}
}

// preview truncates text to the first 50 runes.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + previewEllipsis
}

// GroupRecent reduces a newest-first message list to one summary per
// counterpart, counting unseen inbound messages.
func GroupRecent(userID string, events []*domain.MessageEvent) []*Summary {
	index := make(map[string]*Summary)
	var order []string

	for _, e := range events {
		counterpart := e.Counterpart(userID)
		s, ok := index[counterpart.ID]
		if !ok {
			s = &Summary{Counterpart: counterpart, Last: e}
			index[counterpart.ID] = s
			order = append(order, counterpart.ID)
		}
		// Events arrive newest first, so the first one per
		// counterpart is the latest.
		if e.ToUser.ID == userID && !e.Seen {
			s.UnseenCount++
		}
	}

	out := make([]*Summary, 0, len(order))
	for _, id := range order {
		out = append(out, index[id])
	}
	return out
}
