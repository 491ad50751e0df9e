package engine

import (
	"context"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/commit"
	"knockoutgames/gateway/internal/ledger"
	"knockoutgames/gateway/internal/state"
)

// intentBuffer is the per-watcher intent channel depth. A watcher that stops
// draining loses intents rather than stalling the instance loop.
const intentBuffer = 16

// Manager multiplexes watchers over per-instance engines. Each watched
// (gameKind, instanceId) pair gets exactly one instance goroutine no matter
// how many watchers attach; the last Unwatch tears it down.
type Manager struct {
	reader  ledger.Reader
	feed    ledger.Feed
	deduper *ledger.Deduper
	logger  log.Logger

	mu        sync.Mutex
	instances map[string]*watchedInstance
	watchers  map[string]*watcher
}

type watchedInstance struct {
	inst *instance
	refs int
}

type watcher struct {
	key     string
	player  string
	intents chan Intent
}

// WatchHandle identifies one subscription. Intents stays open until Unwatch.
type WatchHandle struct {
	Token   string
	Intents <-chan Intent
}

// NewManager builds a Manager over the given ledger seams.
func NewManager(reader ledger.Reader, feed ledger.Feed, deduper *ledger.Deduper, logger log.Logger) *Manager {
	return &Manager{
		reader:    reader,
		feed:      feed,
		deduper:   deduper,
		logger:    logger.With("module", "engine"),
		instances: map[string]*watchedInstance{},
		watchers:  map[string]*watcher{},
	}
}

func instanceKey(gameKind, instanceID string) string {
	return gameKind + "/" + instanceID
}

// Watch attaches a watcher to an instance, starting its engine on first use.
// player is optional; when given it is the address whose elimination the
// watcher wants surfaced as an intent.
func (m *Manager) Watch(ctx context.Context, gameKind, instanceID, player string) (*WatchHandle, error) {
	if _, err := commit.ByKind(commit.Kind(gameKind)); err != nil {
		return nil, err
	}
	if instanceID == "" {
		return nil, apperr.Validationf("instanceId is required")
	}
	if player != "" {
		if _, err := commit.ParseAddress(player); err != nil {
			return nil, err
		}
	}

	key := instanceKey(gameKind, instanceID)

	m.mu.Lock()
	defer m.mu.Unlock()

	wi, ok := m.instances[key]
	if !ok {
		inst := newInstance(gameKind, instanceID, m.reader, m.feed, m.deduper, m.logger, func(it Intent) {
			m.dispatch(key, it)
		})
		// The instance outlives the Watch call that created it; its
		// lifetime ends at the last Unwatch, not with the caller's context.
		if err := inst.start(context.Background()); err != nil {
			return nil, err
		}
		wi = &watchedInstance{inst: inst}
		m.instances[key] = wi
	}
	wi.refs++
	wi.inst.trackPlayer(player)

	w := &watcher{
		key:     key,
		player:  player,
		intents: make(chan Intent, intentBuffer),
	}
	token := uuid.NewString()
	m.watchers[token] = w

	m.logger.Info("watcher attached", "gameKind", gameKind, "instanceId", instanceID, "watchers", wi.refs)
	return &WatchHandle{Token: token, Intents: w.intents}, nil
}

// Unwatch detaches a watcher; the last detach for an instance stops its
// engine and cancels the feed subscription.
func (m *Manager) Unwatch(ctx context.Context, token string) error {
	m.mu.Lock()
	w, ok := m.watchers[token]
	if !ok {
		m.mu.Unlock()
		return apperr.Validationf("unknown watch token %q", token)
	}
	delete(m.watchers, token)
	close(w.intents)

	wi := m.instances[w.key]
	wi.inst.untrackPlayer(w.player)
	wi.refs--
	var stop *instance
	if wi.refs == 0 {
		stop = wi.inst
		delete(m.instances, w.key)
	}
	m.mu.Unlock()

	if stop != nil {
		stop.stop(ctx)
		m.logger.Info("instance released", "key", w.key)
	}
	return nil
}

// Snapshot returns a deep copy of a watched instance's current view.
func (m *Manager) Snapshot(gameKind, instanceID string) (*state.GameInstance, error) {
	key := instanceKey(gameKind, instanceID)
	m.mu.Lock()
	wi, ok := m.instances[key]
	m.mu.Unlock()
	if !ok {
		return nil, apperr.Validationf("instance %s is not watched", key)
	}
	return wi.inst.Snapshot()
}

// dispatch fans an intent out to every watcher of the emitting instance.
// Slow watchers are skipped, not waited on.
func (m *Manager) dispatch(key string, it Intent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, w := range m.watchers {
		if w.key != key {
			continue
		}
		select {
		case w.intents <- it:
		default:
			m.logger.Error("intent dropped for slow watcher", "token", token, "intent", it.Type)
		}
	}
}

// Close detaches all watchers and stops every instance engine.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	insts := make([]*instance, 0, len(m.instances))
	for _, wi := range m.instances {
		insts = append(insts, wi.inst)
	}
	m.instances = map[string]*watchedInstance{}
	for _, w := range m.watchers {
		close(w.intents)
	}
	m.watchers = map[string]*watcher{}
	m.mu.Unlock()

	for _, inst := range insts {
		inst.stop(ctx)
	}
}
