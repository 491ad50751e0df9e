package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/google/uuid"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/codec"
	"knockoutgames/gateway/internal/state"
)

// routingEvent is the attribute-bearing event every knockout tx emits so one
// subscription query covers all event names for an instance.
const routingEvent = "knockout"

// subChannelCap buffers converted envelopes per subscription.
const subChannelCap = 64

// CometClient implements Reader, Writer and Feed over a CometBFT node's RPC
// and websocket interface.
type CometClient struct {
	rpc    *rpchttp.HTTP
	logger log.Logger

	mu   sync.Mutex
	subs map[string]*cometSub // key: contractID/instanceID
}

type cometSub struct {
	subscriber string
	query      string
	cancel     context.CancelFunc
	out        chan Envelope
}

// DialComet connects to a CometBFT RPC endpoint and starts the websocket
// event client.
func DialComet(remote string, logger log.Logger) (*CometClient, error) {
	rpc, err := rpchttp.New(remote)
	if err != nil {
		return nil, fmt.Errorf("comet rpc client: %w", err)
	}
	if err := rpc.Start(); err != nil {
		return nil, fmt.Errorf("comet ws client start: %w", err)
	}
	return &CometClient{
		rpc:    rpc,
		logger: logger.With("module", "ledger"),
		subs:   map[string]*cometSub{},
	}, nil
}

// Close tears down the websocket client. In-flight calls are allowed to
// finish; their results are discarded by callers that already unsubscribed.
func (c *CometClient) Close() error {
	c.mu.Lock()
	for key, sub := range c.subs {
		sub.cancel()
		delete(c.subs, key)
	}
	c.mu.Unlock()
	return c.rpc.Stop()
}

// ReadInstance fetches the authoritative snapshot via ABCI query.
func (c *CometClient) ReadInstance(ctx context.Context, gameKind, instanceID string) (*state.GameInstance, error) {
	path := fmt.Sprintf("/instance/%s/%s", gameKind, instanceID)
	res, err := c.rpc.ABCIQuery(ctx, path, nil)
	if err != nil {
		return nil, apperr.Externalf(err, "abci query %s", path)
	}
	if res.Response.Code != 0 {
		return nil, apperr.Externalf(fmt.Errorf("code=%d log=%q", res.Response.Code, res.Response.Log), "abci query %s", path)
	}
	var gi state.GameInstance
	if err := json.Unmarshal(res.Response.Value, &gi); err != nil {
		return nil, apperr.Externalf(err, "decode instance snapshot %s", path)
	}
	if gi.Players == nil {
		gi.Players = map[string]*state.PlayerRoundRecord{}
	}
	return &gi, nil
}

func (c *CometClient) broadcast(ctx context.Context, typ string, value any) error {
	tx, err := codec.EncodeTxWithNonce(typ, uuid.NewString(), value)
	if err != nil {
		return err
	}
	res, err := c.rpc.BroadcastTxSync(ctx, tx)
	if err != nil {
		return apperr.Externalf(err, "broadcast %s", typ)
	}
	if res.Code != 0 {
		return apperr.Externalf(fmt.Errorf("code=%d log=%q", res.Code, res.Log), "broadcast %s", typ)
	}
	// Acceptance into the mempool is not settlement; the outcome is observed
	// via subsequent reads.
	return nil
}

// SubmitCommit broadcasts a commit transaction.
func (c *CometClient) SubmitCommit(ctx context.Context, gameKind, instanceID string, round uint64, player, commitment string) error {
	return c.broadcast(ctx, codec.TypeCommit, codec.CommitTx{
		GameKind:   gameKind,
		InstanceID: instanceID,
		Round:      round,
		Player:     player,
		Commitment: commitment,
	})
}

// SubmitReveal broadcasts a reveal transaction.
func (c *CometClient) SubmitReveal(ctx context.Context, gameKind, instanceID string, round uint64, player string, actionValue uint64, secret string) error {
	return c.broadcast(ctx, codec.TypeReveal, codec.RevealTx{
		GameKind:    gameKind,
		InstanceID:  instanceID,
		Round:       round,
		Player:      player,
		ActionValue: actionValue,
		Secret:      secret,
	})
}

// SubmitSettle broadcasts a settle-expired-round transaction.
func (c *CometClient) SubmitSettle(ctx context.Context, gameKind, instanceID string, round uint64, caller string) error {
	return c.broadcast(ctx, codec.TypeSettle, codec.SettleTx{
		GameKind:   gameKind,
		InstanceID: instanceID,
		Round:      round,
		Caller:     caller,
	})
}

// Subscribe opens an envelope stream for one (contract, instance) pair.
func (c *CometClient) Subscribe(ctx context.Context, contractID, instanceID string) (<-chan Envelope, error) {
	key := contractID + "/" + instanceID
	query := fmt.Sprintf("tm.event = 'Tx' AND %s.gameKind = '%s' AND %s.instanceId = '%s'",
		routingEvent, contractID, routingEvent, instanceID)
	subscriber := "kog-" + uuid.NewString()

	c.mu.Lock()
	if _, exists := c.subs[key]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("already subscribed to %s", key)
	}
	c.mu.Unlock()

	events, err := c.rpc.Subscribe(ctx, subscriber, query, subChannelCap)
	if err != nil {
		return nil, apperr.Externalf(err, "subscribe %s", key)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &cometSub{
		subscriber: subscriber,
		query:      query,
		cancel:     cancel,
		out:        make(chan Envelope, subChannelCap),
	}
	c.mu.Lock()
	c.subs[key] = sub
	c.mu.Unlock()

	go c.pump(subCtx, contractID, events, sub.out)
	return sub.out, nil
}

// Unsubscribe tears down the stream for one (contract, instance) pair.
func (c *CometClient) Unsubscribe(ctx context.Context, contractID, instanceID string) error {
	key := contractID + "/" + instanceID
	c.mu.Lock()
	sub, ok := c.subs[key]
	if ok {
		delete(c.subs, key)
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	sub.cancel()
	if err := c.rpc.Unsubscribe(ctx, sub.subscriber, sub.query); err != nil {
		return apperr.Externalf(err, "unsubscribe %s", key)
	}
	return nil
}

// pump converts raw node events into envelopes until the subscription is
// torn down. Envelopes for slow consumers are dropped rather than blocking
// the pump; a dropped event costs at most one stale interval until the next
// reconciling read.
func (c *CometClient) pump(ctx context.Context, contractID string, in <-chan coretypes.ResultEvent, out chan<- Envelope) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-in:
			if !ok {
				return
			}
			for _, env := range envelopesFromResult(contractID, res) {
				select {
				case out <- env:
				case <-ctx.Done():
					return
				default:
					c.logger.Warn("dropping event for slow consumer", "dedupeKey", env.DedupeKey)
				}
			}
		}
	}
}

// envelopesFromResult flattens a tx result into one envelope per emitted
// knockout event, keyed by tx hash and log position.
func envelopesFromResult(contractID string, res coretypes.ResultEvent) []Envelope {
	dataTx, ok := res.Data.(cmttypes.EventDataTx)
	if !ok {
		return nil
	}
	txHash := cmttypes.Tx(dataTx.Tx).Hash()

	var out []Envelope
	for i, ev := range dataTx.Result.Events {
		if ev.Type == routingEvent {
			continue
		}
		attrs := make(map[string]string, len(ev.Attributes))
		for _, a := range ev.Attributes {
			attrs[a.Key] = a.Value
		}
		out = append(out, Envelope{
			ContractID: contractID,
			Name:       ev.Type,
			DedupeKey:  DedupeKey(txHash, i),
			Height:     dataTx.Height,
			Attrs:      attrs,
		})
	}
	return out
}
