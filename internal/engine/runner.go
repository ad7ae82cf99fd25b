package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"snatcher/internal/logger"
	"snatcher/internal/safety"
	"snatcher/internal/types"

	"github.com/google/uuid"
)

type runnerEvent struct {
	listing *types.ListingCandidate
	price   *types.PriceUpdate
}

// runner is the per-account engine instance. Its loop is the only
// goroutine that touches positions, so event handling is FIFO per account
// by construction. busy is CAS-guarded because snapshots read it from
// outside the loop.
type runner struct {
	eng  *Engine
	busy atomic.Bool

	mu   sync.Mutex
	acct types.Account

	// open positions by mint; loop-goroutine only.
	positions map[string]*types.Position

	events chan runnerEvent
}

func newRunner(e *Engine, acct types.Account) *runner {
	return &runner{
		eng:       e,
		acct:      acct,
		positions: make(map[string]*types.Position),
		events:    make(chan runnerEvent, runnerQueueSize),
	}
}

// restorePosition re-attaches a persisted open position during startup,
// before the loop goroutine exists.
func (r *runner) restorePosition(pos types.Position) {
	p := pos
	r.positions[p.Mint] = &p
	r.busy.Store(true)
}

func (r *runner) snapshot() types.Account {
	r.mu.Lock()
	acct := r.acct
	r.mu.Unlock()
	acct.Busy = r.busy.Load()
	return acct
}

func (r *runner) enqueue(evt runnerEvent) {
	select {
	case r.events <- evt:
	default:
		if evt.listing != nil {
			logger.Warnf("engine[%s]: queue full, dropping listing %s", r.acct.ID, evt.listing.Mint)
		} else {
			// Price ticks repeat; the next one re-evaluates the same exit.
			logger.Debugf("engine[%s]: queue full, dropping price tick", r.acct.ID)
		}
	}
}

func (r *runner) loop() {
	defer r.eng.wg.Done()
	for {
		select {
		case evt := <-r.events:
			switch {
			case evt.listing != nil:
				r.handleListing(*evt.listing)
			case evt.price != nil:
				r.handlePrice(*evt.price)
			}
		case <-r.eng.stopCh:
			return
		}
	}
}

func (r *runner) handleListing(c types.ListingCandidate) {
	if r.busy.Load() {
		logger.Debugf("engine[%s]: busy, skipping listing %s", r.acct.ID, c.Mint)
		return
	}

	settings := r.eng.currentSettings()
	if !safety.Passes(c, settings) {
		return
	}

	// Accepted: claim the account before any external call. The CAS is the
	// only entry gate; losing it means another entry won the account.
	if !r.busy.CompareAndSwap(false, true) {
		logger.Debugf("engine[%s]: lost busy race for %s", r.acct.ID, c.Mint)
		return
	}

	ctx := context.Background()
	r.mirrorBusy(ctx, true)

	score := safety.RiskScore(c, r.eng.nowFn())
	balance := r.eng.exec.Balance(ctx, r.acct.ID)
	if balance > 0 {
		r.mu.Lock()
		r.acct.Balance = balance
		r.mu.Unlock()
		if err := r.eng.store.UpdateAccountBalance(ctx, r.acct.ID, balance); err != nil {
			logger.Warnf("engine[%s]: persisting balance failed: %v", r.acct.ID, err)
		}
	}

	size := safety.RecommendedPositionSize(balance, score)
	if size < r.eng.cfg.MinPositionSize {
		logger.Infof("engine[%s]: position size %.6f below minimum, skipping %s", r.acct.ID, size, c.Mint)
		r.release(ctx)
		return
	}

	intent := types.TradeIntent{
		Mint:        c.Mint,
		Route:       fmt.Sprintf("SOL->%s", c.Mint),
		AccountID:   r.acct.ID,
		Size:        size,
		MaxSlippage: safety.RecommendedSlippage(score),
		Mode:        safety.Mode(score),
	}
	logger.Infof("engine[%s]: entering %s score=%d size=%.6f slippage=%.2f mode=%s",
		r.acct.ID, c.Mint, score, size, intent.MaxSlippage, intent.Mode)

	r.runEntry(ctx, intent)
}

// runEntry drives the entry protocol. Any abort returns the account to
// Idle; nothing is persisted before a confirmed fill.
func (r *runner) runEntry(ctx context.Context, intent types.TradeIntent) {
	sim, err := r.eng.exec.Simulate(ctx, intent)
	if err != nil {
		logger.Warnf("engine[%s]: simulate %s failed: %v", r.acct.ID, intent.Mint, err)
		r.release(ctx)
		return
	}
	if !sim.OK {
		logger.Infof("engine[%s]: simulation declined %s: %s", r.acct.ID, intent.Mint, sim.Error)
		r.release(ctx)
		return
	}

	signed, err := r.eng.exec.PreSign(ctx, r.acct.ID, intent)
	if err != nil {
		logger.Warnf("engine[%s]: pre-sign %s failed: %v", r.acct.ID, intent.Mint, err)
		r.release(ctx)
		return
	}

	res, err := r.eng.exec.Submit(ctx, signed)
	if err != nil {
		logger.Warnf("engine[%s]: submit %s failed: %v", r.acct.ID, intent.Mint, err)
		r.release(ctx)
		return
	}
	if !res.Confirmed {
		logger.Warnf("engine[%s]: entry %s not confirmed: %s", r.acct.ID, intent.Mint, res.Error)
		r.release(ctx)
		return
	}

	now := r.eng.nowFn()
	pos := types.Position{
		ID:          uuid.NewString(),
		AccountID:   r.acct.ID,
		Mint:        intent.Mint,
		BaseQty:     res.FillQty,
		AvgCost:     res.FillPrice,
		TPPct:       r.eng.cfg.TPPct,
		SLPct:       r.eng.cfg.SLPct,
		TrailingPct: r.eng.cfg.TrailingPct,
		Status:      types.PositionOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.eng.store.CreatePosition(ctx, pos); err != nil {
		// The fill confirmed but we cannot track it. Free the account and
		// leave reconciliation to the operator; never hold an untracked
		// position busy forever.
		logger.Errorf("engine[%s]: persisting position for %s failed after confirmed fill %s: %v",
			r.acct.ID, intent.Mint, res.Signature, err)
		r.release(ctx)
		return
	}

	trade := types.Trade{
		ID:         uuid.NewString(),
		AccountID:  r.acct.ID,
		PositionID: pos.ID,
		Side:       types.SideBuy,
		Qty:        res.FillQty,
		Price:      res.FillPrice,
		Fee:        entryFee,
		TxSig:      res.Signature,
		Timestamp:  now,
	}
	if err := r.eng.store.AppendTrade(ctx, trade); err != nil {
		logger.Errorf("engine[%s]: appending buy trade failed: %v", r.acct.ID, err)
	}

	r.positions[pos.Mint] = &pos
	r.eng.retainMint(pos.Mint)

	r.eng.notifier.Notify(ctx, r.acct.ID, types.Notification{
		Title: "Snatcher: Entry Filled",
		Body:  fmt.Sprintf("%s %.6f @ %.8f", pos.Mint, res.FillQty, res.FillPrice),
		Data:  map[string]any{"positionId": pos.ID, "walletId": r.acct.ID},
	})

	// The account stays Busy for the lifetime of the open position.
	logger.Infof("engine[%s]: opened position %s on %s", r.acct.ID, pos.ID, pos.Mint)
}

func (r *runner) handlePrice(upd types.PriceUpdate) {
	pos, ok := r.positions[upd.Mint]
	if !ok || pos.Status != types.PositionOpen {
		return
	}

	// Fixed evaluation order: take-profit first, then stop-loss.
	// TODO: pos.TrailingPct is persisted but no trailing-stop evaluation
	// exists yet; wire it here once the trailing semantics are defined.
	switch {
	case decimalGTE(upd.Price, takeProfitPrice(pos.AvgCost, pos.TPPct)):
		r.runExit(pos, upd.Price, "take_profit")
	case decimalLTE(upd.Price, stopLossPrice(pos.AvgCost, pos.SLPct)):
		r.runExit(pos, upd.Price, "stop_loss")
	}
}

// runExit drives the exit protocol: best-effort, no rollback. An
// unconfirmed submit leaves the position open and the account Busy; a
// later price tick re-triggers evaluation. No automatic retry here.
func (r *runner) runExit(pos *types.Position, triggerPrice float64, reason string) {
	ctx := context.Background()
	logger.Infof("engine[%s]: exiting position %s (%s) at %.8f reason=%s",
		r.acct.ID, pos.ID, pos.Mint, triggerPrice, reason)

	intent := types.TradeIntent{
		Mint:        pos.Mint,
		Route:       fmt.Sprintf("%s->SOL", pos.Mint),
		AccountID:   r.acct.ID,
		Size:        pos.BaseQty,
		MaxSlippage: exitSlippage,
		Mode:        types.ModeAggressive,
	}

	signed, err := r.eng.exec.PreSign(ctx, r.acct.ID, intent)
	if err != nil {
		logger.Warnf("engine[%s]: exit pre-sign for %s failed: %v", r.acct.ID, pos.ID, err)
		return
	}

	res, err := r.eng.exec.Submit(ctx, signed)
	if err != nil {
		logger.Warnf("engine[%s]: exit submit for %s failed: %v", r.acct.ID, pos.ID, err)
		return
	}
	if !res.Confirmed {
		// Recognized stuck state: position open, account Busy, until a
		// future tick re-triggers or an operator reconciles.
		logger.Warnf("engine[%s]: exit for %s not confirmed (%s), position stays open and account stays busy",
			r.acct.ID, pos.ID, res.Error)
		return
	}

	base := realizedBase(res.FillQty, res.FillPrice, pos.BaseQty, pos.AvgCost)
	quote := base * r.eng.cfg.QuoteRate

	pos.Status = types.PositionClosed
	pos.UpdatedAt = r.eng.nowFn()
	delete(r.positions, pos.Mint)
	if err := r.eng.store.ClosePosition(ctx, pos.ID); err != nil {
		logger.Errorf("engine[%s]: marking position %s closed failed: %v", r.acct.ID, pos.ID, err)
	}

	now := r.eng.nowFn()
	trade := types.Trade{
		ID:         uuid.NewString(),
		AccountID:  r.acct.ID,
		PositionID: pos.ID,
		Side:       types.SideSell,
		Qty:        res.FillQty,
		Price:      res.FillPrice,
		Fee:        entryFee,
		TxSig:      res.Signature,
		Timestamp:  now,
	}
	if err := r.eng.store.AppendTrade(ctx, trade); err != nil {
		logger.Errorf("engine[%s]: appending sell trade failed: %v", r.acct.ID, err)
	}
	if err := r.eng.store.AppendRealizedPnL(ctx, types.RealizedPnL{
		PositionID:    pos.ID,
		RealizedBase:  base,
		RealizedQuote: quote,
		Timestamp:     now,
	}); err != nil {
		logger.Errorf("engine[%s]: appending realized pnl failed: %v", r.acct.ID, err)
	}

	r.mu.Lock()
	r.acct.DailyPnL += base
	r.acct.TotalPnL += base
	r.mu.Unlock()
	if err := r.eng.store.AddAccountPnL(ctx, r.acct.ID, base); err != nil {
		logger.Warnf("engine[%s]: rolling up account pnl failed: %v", r.acct.ID, err)
	}

	r.eng.releaseMint(pos.Mint)
	r.release(ctx)

	r.eng.notifier.Notify(ctx, r.acct.ID, types.Notification{
		Title: "Snatcher: Position Closed",
		Body:  fmt.Sprintf("%+.2f USD (%+.4f SOL) - %s", quote, base, reason),
		Data:  map[string]any{"positionId": pos.ID, "walletId": r.acct.ID, "pnl": quote, "reason": reason},
	})

	logger.Infof("engine[%s]: closed position %s pnl=%.4f SOL (%s)", r.acct.ID, pos.ID, base, reason)
}

// release returns the account to Idle and mirrors the change outward.
func (r *runner) release(ctx context.Context) {
	r.busy.Store(false)
	r.mirrorBusy(ctx, false)
}

// mirrorBusy propagates the busy flag to the gateway and the store. Both
// are side channels; the in-memory flag is authoritative for gating.
func (r *runner) mirrorBusy(ctx context.Context, busy bool) {
	r.eng.exec.SetBusy(ctx, r.acct.ID, busy)
	if err := r.eng.store.UpdateAccountBusy(ctx, r.acct.ID, busy); err != nil {
		logger.Warnf("engine[%s]: persisting busy=%v failed: %v", r.acct.ID, busy, err)
	}
}
