// Package longpoll drives the Bots Long Poll session: one negotiation call
// at startup, then an endless fetch/recover loop that decodes update batches
// and feeds the bounded event queue.
package longpoll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"vkgram/pkg/logger"
	"vkgram/pkg/types"
	"vkgram/pkg/vkapi"
)

const component = "longpoll"

// Slack added on top of the wait parameter for the poll HTTP timeout, so the
// client never gives up before the server releases the held connection.
const pollTimeoutSlack = 10 * time.Second

// Failure subcodes of the a_check response.
const (
	failedStaleCursor = 1
	failedKeyExpired  = 2
	failedDataLost    = 3
)

// SessionSource negotiates long-poll sessions. Satisfied by *vkapi.Client.
type SessionSource interface {
	GetLongPollServer(ctx context.Context, groupID int64) (vkapi.LongPollServer, error)
}

// Session is the mutable poll state: server URL, session key and cursor.
// Owned exclusively by the Poller; the cursor only moves forward after a
// successful fetch, and the whole session is replaced on expiry.
type Session struct {
	Server string
	Key    string
	TS     string
}

type Poller struct {
	api        SessionSource
	groupID    int64
	wait       int
	retryDelay time.Duration
	httpClient *http.Client
	queue      chan<- types.Event
	log        *logger.Logger

	session Session
	dropped uint64
}

func New(api SessionSource, groupID int64, waitSec int, retryDelay time.Duration, queue chan<- types.Event, log *logger.Logger) *Poller {
	if waitSec <= 0 {
		waitSec = 25
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Poller{
		api:        api,
		groupID:    groupID,
		wait:       waitSec,
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: time.Duration(waitSec)*time.Second + pollTimeoutSlack},
		queue:      queue,
		log:        log,
	}
}

// Start performs the one-shot session negotiation. A failure here is fatal
// to startup; there is no retry at this stage.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.negotiate(ctx, false); err != nil {
		return fmt.Errorf("failed to setup long poll: %w", err)
	}
	p.log.InfoF(component, "Long poll session established", map[string]interface{}{
		logger.FieldTS: p.session.TS,
	})
	return nil
}

// Run fetches update batches until the context is cancelled. Transient
// transport errors are retried forever after a fixed delay; failed responses
// go through subcode-specific recovery. Run only returns on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info(component, "Poll loop started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info(component, "Poll loop stopped")
			return nil
		default:
		}

		resp, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info(component, "Poll loop stopped")
				return nil
			}
			p.log.WarnF(component, "Poll fetch failed, retrying", map[string]interface{}{
				logger.FieldError: err.Error(),
				"retry_in":        p.retryDelay.String(),
			})
			if sleepContext(ctx, p.retryDelay) != nil {
				p.log.Info(component, "Poll loop stopped")
				return nil
			}
			continue
		}

		if resp.Failed != 0 {
			p.recoverSession(ctx, resp)
			continue
		}

		// A stale cursor after a successful fetch re-delivers the same batch.
		p.session.TS = string(resp.TS)
		p.enqueue(resp.Updates)
	}
}

// Dropped reports how many events were discarded because the queue was at
// capacity.
func (p *Poller) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

type pollResponse struct {
	TS      vkapi.Cursor   `json:"ts"`
	Updates []types.Update `json:"updates"`
	Failed  int            `json:"failed"`
}

func (p *Poller) fetch(ctx context.Context) (*pollResponse, error) {
	fetchURL := fmt.Sprintf("%s?act=a_check&key=%s&ts=%s&wait=%d",
		p.session.Server, url.QueryEscape(p.session.Key), url.QueryEscape(p.session.TS), p.wait)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poll response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed pollResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal poll response: %w", err)
	}
	return &parsed, nil
}

func (p *Poller) recoverSession(ctx context.Context, resp *pollResponse) {
	switch resp.Failed {
	case failedStaleCursor:
		p.log.InfoF(component, "Cursor out of date, adopting server value", map[string]interface{}{
			logger.FieldTS: string(resp.TS),
		})
		if resp.TS != "" {
			p.session.TS = string(resp.TS)
		}
	case failedKeyExpired:
		p.log.Info(component, "Session key expired, renegotiating")
		p.renegotiate(ctx, true)
	case failedDataLost:
		p.log.Warn(component, "Long poll data lost, resynchronizing cursor; some events may have been missed")
		p.renegotiate(ctx, false)
	default:
		p.log.WarnF(component, "Unknown long poll failure, renegotiating; some events may have been missed", map[string]interface{}{
			"failed": resp.Failed,
		})
		p.renegotiate(ctx, false)
	}
}

func (p *Poller) renegotiate(ctx context.Context, keepCursor bool) {
	if err := p.negotiate(ctx, keepCursor); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.ErrorF(component, "Session renegotiation failed, will retry", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		_ = sleepContext(ctx, p.retryDelay)
	}
}

func (p *Poller) negotiate(ctx context.Context, keepCursor bool) error {
	server, err := p.api.GetLongPollServer(ctx, p.groupID)
	if err != nil {
		return err
	}

	previous := p.session.TS
	p.session = Session{
		Server: server.Server,
		Key:    server.Key,
		TS:     string(server.TS),
	}
	if keepCursor && previous != "" {
		p.session.TS = previous
	}
	return nil
}

func (p *Poller) enqueue(updates []types.Update) {
	for i := range updates {
		event := updates[i].ToEvent()
		p.logUpdate(event)

		select {
		case p.queue <- event:
		default:
			remaining := len(updates) - i
			atomic.AddUint64(&p.dropped, uint64(remaining))
			p.log.WarnF(component, "Event queue full, dropping rest of batch", map[string]interface{}{
				"dropped": remaining,
			})
			return
		}
	}
}

func (p *Poller) logUpdate(event types.Event) {
	if msg := event.Message; msg != nil {
		p.log.InfoF(component, "Message received", map[string]interface{}{
			logger.FieldFromID:  msg.FromID,
			logger.FieldPeerID:  msg.PeerID,
			logger.FieldPreview: vkapi.Truncate(msg.Text, 50, ""),
		})
		return
	}
	if upd := event.Update; upd != nil {
		p.log.DebugF(component, "Update received", map[string]interface{}{
			logger.FieldUpdateType: upd.Type,
			logger.FieldEventID:    upd.EventID,
		})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
