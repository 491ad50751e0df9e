package engine

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/ledger"
	"knockoutgames/gateway/internal/state"
)

// readTimeout bounds a single reconciling read against the ledger.
const readTimeout = 5 * time.Second

// instance owns the view of one (gameKind, instanceId) pair. All view
// mutation happens on the run goroutine; Snapshot and the tracked-player
// bookkeeping take mu.
type instance struct {
	kind string
	id   string

	reader  ledger.Reader
	feed    ledger.Feed
	deduper *ledger.Deduper
	logger  log.Logger
	emit    func(Intent)

	mu      sync.Mutex
	view    *state.GameInstance
	tracked map[string]int // player address -> watcher refcount

	// readReq coalesces reconcile triggers: any number of pending hints
	// collapse into one authoritative read.
	readReq chan struct{}

	notifiedDeadline int64
	emittedElim      map[string]bool
	emittedCompleted bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newInstance(kind, id string, reader ledger.Reader, feed ledger.Feed, deduper *ledger.Deduper, logger log.Logger, emit func(Intent)) *instance {
	return &instance{
		kind:        kind,
		id:          id,
		reader:      reader,
		feed:        feed,
		deduper:     deduper,
		logger:      logger.With("gameKind", kind, "instanceId", id),
		emit:        emit,
		view:        state.NewGameInstance(kind, id),
		tracked:     map[string]int{},
		readReq:     make(chan struct{}, 1),
		emittedElim: map[string]bool{},
		done:        make(chan struct{}),
	}
}

// start subscribes to the instance's event feed and launches the run loop.
func (in *instance) start(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	events, err := in.feed.Subscribe(ctx, in.kind, in.id)
	if err != nil {
		cancel()
		return apperr.Wrap(apperr.KindExternal, err, "subscribe %s/%s", in.kind, in.id)
	}
	in.cancel = cancel
	go in.run(ctx, events)
	return nil
}

// stop tears down the subscription and waits for the run loop to exit.
func (in *instance) stop(ctx context.Context) {
	in.cancel()
	if err := in.feed.Unsubscribe(ctx, in.kind, in.id); err != nil {
		in.logger.Error("unsubscribe failed", "err", err)
	}
	<-in.done
}

func (in *instance) run(ctx context.Context, events <-chan ledger.Envelope) {
	defer close(in.done)

	// Reconcile immediately so watchers attaching to an in-flight game see
	// current state rather than NotInitialized.
	in.scheduleRead()

	deadline := time.NewTimer(time.Hour)
	if !deadline.Stop() {
		<-deadline.C
	}
	defer deadline.Stop()

	for {
		in.armDeadline(deadline)
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				in.logger.Info("event feed closed")
				return
			}
			in.handleEnvelope(ctx, env)
		case <-in.readReq:
			in.reconcile(ctx)
		case <-deadline.C:
			in.deadlineElapsed()
		}
	}
}

// handleEnvelope applies one delivery: dedupe, decode, optimistic phase
// update, then always a reconciling read. The event is a hint; the read is
// the authority.
func (in *instance) handleEnvelope(ctx context.Context, env ledger.Envelope) {
	defer in.scheduleRead()

	if !in.deduper.Observe(ctx, env) {
		in.logger.Debug("duplicate event dropped", "event", env.Name, "dedupeKey", env.DedupeKey)
		return
	}
	ev, err := ledger.Decode(env)
	if err != nil {
		in.logger.Error("undecodable event", "event", env.Name, "err", err)
		return
	}

	in.mu.Lock()
	err = applyEvent(in.view, ev)
	in.mu.Unlock()
	if err != nil {
		// Out-of-order or stale hint. Not an error condition: the read we
		// just scheduled brings the view back to ledger truth.
		in.logger.Info("event dropped as inconsistent", "event", env.Name, "err", err)
	}
}

// scheduleRead requests a reconcile; pending requests coalesce.
func (in *instance) scheduleRead() {
	select {
	case in.readReq <- struct{}{}:
	default:
	}
}

func (in *instance) reconcile(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, readTimeout)
	snap, err := in.reader.ReadInstance(rctx, in.kind, in.id)
	cancel()
	if err != nil {
		in.logger.Error("instance read failed", "err", err)
		return
	}

	in.mu.Lock()
	players := make([]string, 0, len(in.tracked))
	for p := range in.tracked {
		players = append(players, p)
	}
	ch, err := applySnapshot(in.view, snap, players)
	in.mu.Unlock()
	if err != nil {
		in.logger.Error("snapshot rejected", "err", err)
		return
	}
	in.emitChanges(ch)
}

func (in *instance) emitChanges(ch snapshotChanges) {
	for _, p := range ch.eliminated {
		if in.emittedElim[p] {
			continue
		}
		in.emittedElim[p] = true
		in.emit(Intent{
			Type:       IntentPlayerEliminated,
			GameKind:   in.kind,
			InstanceID: in.id,
			Player:     p,
		})
	}
	if ch.completed && !in.emittedCompleted {
		in.emittedCompleted = true
		in.emit(Intent{
			Type:       IntentGameCompleted,
			GameKind:   in.kind,
			InstanceID: in.id,
			Player:     ch.winner,
		})
	}
}

// armDeadline points the timer at the view's round deadline, if one is set
// and not yet notified. The deadline is advisory: elapsing it locally never
// changes state, it only warns watchers and prompts a read.
func (in *instance) armDeadline(t *time.Timer) {
	in.mu.Lock()
	dl := in.view.RoundDeadline
	in.mu.Unlock()

	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	if dl == 0 || dl == in.notifiedDeadline {
		return
	}
	t.Reset(time.Until(time.Unix(dl, 0)))
}

func (in *instance) deadlineElapsed() {
	in.mu.Lock()
	dl := in.view.RoundDeadline
	round := in.view.CurrentRound
	in.mu.Unlock()

	if dl == in.notifiedDeadline {
		return
	}
	in.notifiedDeadline = dl

	in.emit(Intent{
		Type:       IntentNotify,
		GameKind:   in.kind,
		InstanceID: in.id,
		Message:    "round deadline elapsed; awaiting settlement",
		Severity:   SeverityWarning,
	})
	in.logger.Info("round deadline elapsed", "round", round, "deadline", dl)
	in.scheduleRead()
}

// Snapshot returns a deep copy of the current view.
func (in *instance) Snapshot() (*state.GameInstance, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.view.Clone()
}

func (in *instance) trackPlayer(player string) {
	if player == "" {
		return
	}
	in.mu.Lock()
	in.tracked[player]++
	in.mu.Unlock()
}

func (in *instance) untrackPlayer(player string) {
	if player == "" {
		return
	}
	in.mu.Lock()
	if in.tracked[player] > 1 {
		in.tracked[player]--
	} else {
		delete(in.tracked, player)
	}
	in.mu.Unlock()
}
