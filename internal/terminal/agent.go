package terminal

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/educare/track_backend/internal/service/attendance"
	"github.com/educare/track_backend/pkg/studentid"
)

const DefaultReconnectInterval = 15 * time.Second

// API is what the agent needs from the server. *Client satisfies it.
type API interface {
	Live(ctx context.Context) bool
	Tap(ctx context.Context, code string, at time.Time) (*attendance.Result, error)
	Sync(ctx context.Context, scans []attendance.OfflineScan) ([]attendance.SyncResult, error)
}

// Outcome is what the operator sees after a scan.
type Outcome struct {
	Code     string
	Accepted bool
	Queued   bool
	Result   *attendance.Result
	Err      error
	Reason   Rejection
}

// Agent reads codes from a keyboard-wedge scanner, posts them and buffers
// them while the server is unreachable.
type Agent struct {
	api       API
	queue     *Queue
	scanner   *Scanner
	reconnect time.Duration
	batch     int
	now       func() time.Time

	// OnOutcome, when set, is called after every scan.
	OnOutcome func(Outcome)
}

func NewAgent(api API, queue *Queue, scanner *Scanner, reconnect time.Duration) *Agent {
	if reconnect <= 0 {
		reconnect = DefaultReconnectInterval
	}
	return &Agent{
		api:       api,
		queue:     queue,
		scanner:   scanner,
		reconnect: reconnect,
		batch:     attendance.MaxSyncBatch,
		now:       time.Now,
	}
}

// Run processes one code per input line until ctx ends or input closes, and
// flushes the queue whenever the server answers a liveness check.
func (a *Agent) Run(ctx context.Context, input io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(input)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	ticker := time.NewTicker(a.reconnect)
	defer ticker.Stop()
	a.tryFlush(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.tryFlush(ctx)
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			a.report(a.Handle(ctx, line))
		}
	}
}

// Handle runs one raw scan through the state machine and the server.
func (a *Agent) Handle(ctx context.Context, raw string) Outcome {
	code := studentid.Normalize(strings.TrimSpace(raw))
	out := Outcome{Code: code}
	if out.Reason = a.scanner.Begin(code); out.Reason != Accepted {
		return out
	}
	out.Accepted = true
	at := a.now()

	res, err := a.api.Tap(ctx, code, at)
	switch {
	case err == nil:
		out.Result = res
		a.scanner.Finish(true)
	case Retryable(err):
		if _, qerr := a.queue.Append(code, at); qerr != nil {
			out.Err = qerr
			a.scanner.Finish(false)
			break
		}
		out.Queued = true
		a.scanner.Finish(true)
	default:
		out.Err = err
		a.scanner.Finish(false)
	}
	return out
}

func (a *Agent) tryFlush(ctx context.Context) {
	if a.queue.Len() == 0 || !a.api.Live(ctx) {
		return
	}
	if _, err := a.Flush(ctx); err != nil {
		slog.WarnContext(ctx, "terminal: flush offline queue", "err", err)
	}
}

// Flush replays buffered scans in batches no larger than the server accepts.
// A scan leaves the queue only once the server has answered it, whatever the
// per-scan outcome. The first failed batch stops the flush; it and every
// later batch stay buffered for the next attempt.
func (a *Agent) Flush(ctx context.Context) ([]attendance.SyncResult, error) {
	scans := a.queue.Snapshot()
	if len(scans) == 0 {
		return nil, nil
	}

	var (
		all    []attendance.SyncResult
		synced int
	)
	for _, batch := range lo.Chunk(scans, a.batch) {
		results, err := a.api.Sync(ctx, batch)
		if err != nil {
			slog.WarnContext(ctx, "terminal: sync failed, scans kept",
				"batch", len(batch), "pending", a.queue.Len(), "retryable", Retryable(err), "err", err)
			return all, err
		}

		answered := make(map[string]bool, len(results))
		for _, r := range results {
			answered[r.ID] = true
			if r.OK {
				synced++
				continue
			}
			slog.WarnContext(ctx, "terminal: offline scan failed", "id", r.ID, "err", r.Error)
		}
		done := lo.FilterMap(batch, func(s attendance.OfflineScan, _ int) (string, bool) {
			return s.ID, answered[s.ID]
		})
		if err := a.queue.Remove(done); err != nil {
			return all, err
		}
		all = append(all, results...)
	}
	slog.InfoContext(ctx, "terminal: offline queue flushed", "sent", len(scans), "synced", synced)
	return all, nil
}

func (a *Agent) report(o Outcome) {
	if a.OnOutcome != nil {
		a.OnOutcome(o)
	}
	switch {
	case !o.Accepted:
		slog.Debug("terminal: scan ignored", "code", o.Code, "reason", string(o.Reason))
	case o.Queued:
		slog.Info("terminal: saved offline", "code", o.Code)
	case o.Err != nil:
		slog.Warn("terminal: scan rejected", "code", o.Code, "err", o.Err)
	default:
		slog.Info("terminal: scan recorded", "code", o.Code,
			"student", o.Result.Student.FullName,
			"status", o.Result.Attendance.Status,
			"remarks", o.Result.Attendance.Remarks)
	}
}
