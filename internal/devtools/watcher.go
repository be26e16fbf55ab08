package devtools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/network"
	"github.com/mafredri/cdp/rpcc"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// ErrNoTarget is returned when no debuggable page matches.
var ErrNoTarget = errors.New("no matching devtools target")

// Target is a debuggable browser target.
type Target struct {
	ID           string
	Type         string
	Title        string
	URL          string
	WebSocketURL string
}

// ListTargets returns the targets exposed by the browser at devtoolsURL.
func ListTargets(ctx context.Context, devtoolsURL string) ([]Target, error) {
	targets, err := devtool.New(devtoolsURL).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		out = append(out, Target{
			ID:           string(t.ID),
			Type:         string(t.Type),
			Title:        t.Title,
			URL:          t.URL,
			WebSocketURL: t.WebSocketDebuggerURL,
		})
	}
	return out, nil
}

// PickTarget returns the target with the given id, or the first page when id
// is empty.
func PickTarget(targets []Target, id string) (Target, error) {
	for _, t := range targets {
		if id != "" {
			if t.ID == id {
				return t, nil
			}
			continue
		}
		if t.Type == string(devtool.Page) {
			return t, nil
		}
	}
	return Target{}, ErrNoTarget
}

// Watcher attaches to a browser target over the DevTools protocol and
// reports every finished network exchange.
type Watcher struct {
	devtoolsURL string
	targetID    string
	log         zerolog.Logger
	onExchange  func(capture.Exchange)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithTarget selects a target by id instead of the first page.
func WithTarget(id string) WatcherOption {
	return func(w *Watcher) { w.targetID = id }
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l zerolog.Logger) WatcherOption {
	return func(w *Watcher) { w.log = l }
}

// NewWatcher creates a watcher that calls onExchange for every finished
// exchange, unfiltered.
func NewWatcher(devtoolsURL string, onExchange func(capture.Exchange), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		devtoolsURL: devtoolsURL,
		log:         zerolog.Nop(),
		onExchange:  onExchange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}


// Run attaches and consumes network events until ctx is cancelled or the
// connection drops.
func (w *Watcher) Run(ctx context.Context) error {
	targets, err := ListTargets(ctx, w.devtoolsURL)
	if err != nil {
		return err
	}
	target, err := PickTarget(targets, w.targetID)
	if err != nil {
		return err
	}

	conn, err := rpcc.DialContext(ctx, target.WebSocketURL)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", target.WebSocketURL, err)
	}
	defer conn.Close()

	client := cdp.NewClient(conn)

	requests, err := client.Network.RequestWillBeSent(ctx)
	if err != nil {
		return fmt.Errorf("subscribing requestWillBeSent: %w", err)
	}
	defer requests.Close()
	responses, err := client.Network.ResponseReceived(ctx)
	if err != nil {
		return fmt.Errorf("subscribing responseReceived: %w", err)
	}
	defer responses.Close()
	finished, err := client.Network.LoadingFinished(ctx)
	if err != nil {
		return fmt.Errorf("subscribing loadingFinished: %w", err)
	}
	defer finished.Close()
	failed, err := client.Network.LoadingFailed(ctx)
	if err != nil {
		return fmt.Errorf("subscribing loadingFailed: %w", err)
	}
	defer failed.Close()

	if err := client.Network.Enable(ctx, nil); err != nil {
		return fmt.Errorf("enabling network domain: %w", err)
	}
	w.log.Info().Str("target", target.ID).Str("url", target.URL).Msg("attached to devtools target")

	tracker := NewTracker(bodyFetcher(ctx, client), w.onExchange)

	errc := make(chan error, 4)
	go func() {
		for {
			ev, err := requests.Recv()
			if err != nil {
				errc <- err
				return
			}
			tracker.OnRequest(requestEvent(ev))
		}
	}()
	go func() {
		for {
			ev, err := responses.Recv()
			if err != nil {
				errc <- err
				return
			}
			tracker.OnResponse(responseEvent(string(ev.RequestID), ev.Response))
		}
	}()
	go func() {
		for {
			ev, err := finished.Recv()
			if err != nil {
				errc <- err
				return
			}
			tracker.OnFinished(string(ev.RequestID), float64(ev.Timestamp))
		}
	}()
	go func() {
		for {
			ev, err := failed.Recv()
			if err != nil {
				errc <- err
				return
			}
			w.log.Debug().Str("request", string(ev.RequestID)).Str("error", ev.ErrorText).Msg("load failed")
			tracker.OnFailed(string(ev.RequestID))
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("devtools stream closed: %w", err)
	}
}

func requestEvent(ev *network.RequestWillBeSentReply) RequestEvent {
	out := RequestEvent{
		ID:        string(ev.RequestID),
		Method:    ev.Request.Method,
		URL:       ev.Request.URL,
		Headers:   decodeHeaders(ev.Request.Headers),
		PostData:  ev.Request.PostData,
		Timestamp: float64(ev.Timestamp),
		WallTime:  wallTime(float64(ev.WallTime)),
	}
	if ev.RedirectResponse != nil {
		r := responseEvent(out.ID, *ev.RedirectResponse)
		out.Redirect = &r
	}
	return out
}

func responseEvent(id string, r network.Response) ResponseEvent {
	return ResponseEvent{
		ID:       id,
		Status:   r.Status,
		Headers:  decodeHeaders(r.Headers),
		MimeType: r.MimeType,
	}
}

// decodeHeaders reads a CDP headers object keeping the order it was sent in.
func decodeHeaders(raw []byte) []capture.Header {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	var out []capture.Header
	gjson.ParseBytes(raw).ForEach(func(k, v gjson.Result) bool {
		out = append(out, capture.Header{Name: k.String(), Value: v.String()})
		return true
	})
	return out
}

// wallTime converts fractional epoch seconds.
func wallTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	whole := int64(sec)
	return time.Unix(whole, int64((sec-float64(whole))*1e9)).UTC()
}

func bodyFetcher(ctx context.Context, client *cdp.Client) BodyFetcher {
	return func(id string) capture.BodyFunc {
		return func(fetchCtx context.Context) (string, error) {
			// The body outlives the exchange only as long as the connection.
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			reply, err := client.Network.GetResponseBody(fetchCtx, network.NewGetResponseBodyArgs(network.RequestID(id)))
			if err != nil {
				return "", fmt.Errorf("getResponseBody %s: %w", id, err)
			}
			if !reply.Base64Encoded {
				return reply.Body, nil
			}
			decoded, err := base64.StdEncoding.DecodeString(reply.Body)
			if err != nil {
				return "", fmt.Errorf("decoding body %s: %w", id, err)
			}
			return string(decoded), nil
		}
	}
}
