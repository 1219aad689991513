package clan

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"dwarfclan.game/internal/persistence/snapshot"
	"dwarfclan.game/internal/protocol"
	"dwarfclan.game/internal/sim/catalogs"
)

// AssetRegistry is the external service owning non-fungible asset identity
// and ownership.
type AssetRegistry interface {
	OwnerOf(id uint64) (string, bool)
	Mint(owner string, quantity int) ([]uint64, error)
	TotalMinted() uint64
}

// CurrencyLedger is the external service owning fungible balances, mint/burn
// and the controller allowlist.
type CurrencyLedger interface {
	Mint(caller, to string, amount uint64) error
	Burn(from string, amount uint64) error
	BalanceOf(owner string) uint64
	IsController(addr string) bool
}

type CmdEnvelope struct {
	Cmd protocol.CmdMsg
}

type AttachRequest struct {
	Wallet string
	Out    chan []byte
	Resp   chan AttachResponse
}

type AttachResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

// Clan is the single-threaded authoritative game-economy state machine.
// All state must be accessed only from the clan loop goroutine; every
// command is applied as one serialized transaction that either fully
// commits or leaves no effect.
type Clan struct {
	cfg  ClanConfig
	cats *catalogs.Catalogs

	assets AssetRegistry
	god    CurrencyLedger
	draws  DrawSource

	tick atomic.Uint64

	traits    map[uint64]*TraitSet
	positions map[uint64]*StakePosition
	cities    map[int]*City
	invested  map[uint64]uint64

	clients map[string]*clientState

	inbox  chan CmdEnvelope
	attach chan AttachRequest
	leave  chan string
	stop   chan struct{}

	nextClaimNum atomic.Uint64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	claimLogger ClaimLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- snapshot.ClanV1
}

type ClaimLogger interface {
	WriteClaim(entry ClaimLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type clientState struct {
	Out    chan []byte
	Events []protocol.Event
}

const maxClientEvents = 256

func New(cfg ClanConfig, cats *catalogs.Catalogs, assets AssetRegistry, god CurrencyLedger, draws DrawSource) *Clan {
	cfg.applyDefaults()
	if draws == nil {
		draws = NewSeededSource(cfg.Seed)
	}
	return &Clan{
		cfg:       cfg,
		cats:      cats,
		assets:    assets,
		god:       god,
		draws:     draws,
		traits:    map[uint64]*TraitSet{},
		positions: map[uint64]*StakePosition{},
		cities:    map[int]*City{},
		invested:  map[uint64]uint64{},
		clients:   map[string]*clientState{},
		inbox:     make(chan CmdEnvelope, 1024),
		attach:    make(chan AttachRequest, 64),
		leave:     make(chan string, 64),
		stop:      make(chan struct{}),
	}
}

func (c *Clan) SetClaimLogger(l ClaimLogger)                   { c.claimLogger = l }
func (c *Clan) SetAuditLogger(l AuditLogger)                   { c.auditLogger = l }
func (c *Clan) SetSnapshotSink(ch chan<- snapshot.ClanV1)      { c.snapshotSink = ch }

func (c *Clan) Inbox() chan<- CmdEnvelope     { return c.inbox }
func (c *Clan) Attach() chan<- AttachRequest  { return c.attach }
func (c *Clan) Leave() chan<- string          { return c.leave }

func (c *Clan) CurrentTick() uint64 { return c.tick.Load() }
func (c *Clan) Config() ClanConfig  { return c.cfg }

func (c *Clan) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []CmdEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case req := <-c.attach:
			c.handleAttach(req)
		case wallet := <-c.leave:
			delete(c.clients, wallet)
		case env := <-c.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			c.step(pending)
			pending = pending[:0]
		}
	}
}

func (c *Clan) Stop() { close(c.stop) }

// step advances one tick and applies pending commands in admission order.
func (c *Clan) step(pending []CmdEnvelope) {
	nowTick := c.tick.Add(1)

	for _, env := range pending {
		c.applyCmd(env, nowTick)
	}

	if c.snapshotSink != nil && c.cfg.SnapshotEveryTicks > 0 && nowTick%uint64(c.cfg.SnapshotEveryTicks) == 0 {
		select {
		case c.snapshotSink <- c.Export():
		default:
			// Snapshot writer behind; skip rather than stall the sim.
		}
	}
}

func (c *Clan) handleAttach(req AttachRequest) {
	st := c.clients[req.Wallet]
	if st == nil {
		st = &clientState{}
		c.clients[req.Wallet] = st
	}
	st.Out = req.Out

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Wallet:          req.Wallet,
		ClanParams: protocol.ClanParams{
			ClanID:          c.cfg.ID,
			TickRateHz:      c.cfg.TickRateHz,
			Cities:          c.cfg.Cities,
			TraderSlots:     c.cfg.TraderSlots,
			GuardianSlots:   c.cfg.GuardianSlots,
			MaxAccrualTicks: c.cfg.MaxAccrualTicks,
		},
		Catalogs: protocol.CatalogDigests{
			TraderTraitsDigest:   c.cats.Trader.Digest,
			GuardianTraitsDigest: c.cats.Guardian.Digest,
		},
	}

	catalogMsgs := []protocol.CatalogMsg{
		{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            "trader_traits",
			Digest:          c.cats.Trader.Digest,
			Data:            catalogData(c.cats.Trader),
		},
		{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            "guardian_traits",
			Digest:          c.cats.Guardian.Digest,
			Data:            catalogData(c.cats.Guardian),
		},
	}

	if req.Resp != nil {
		req.Resp <- AttachResponse{Welcome: welcome, Catalogs: catalogMsgs}
	}
}

func catalogData(rt catalogs.RoleTraits) any {
	type slot struct {
		Name   string   `json:"name"`
		Values []uint8  `json:"values"`
		Cum    []uint32 `json:"cum_weights"`
	}
	out := make([]slot, 0, len(rt.Slots))
	for _, s := range rt.Slots {
		sl := slot{Name: s.Name}
		for _, b := range s.Buckets {
			sl.Values = append(sl.Values, b.Value)
			sl.Cum = append(sl.Cum, b.CumWeight)
		}
		out = append(out, sl)
	}
	return out
}

// emit queues an event for a wallet's session. Events are retained (ring of
// maxClientEvents) so tests can inspect them even without an Out channel.
func (c *Clan) emit(wallet string, ev protocol.Event) {
	st := c.clients[wallet]
	if st == nil {
		st = &clientState{}
		c.clients[wallet] = st
	}
	st.Events = append(st.Events, ev)
	if len(st.Events) > maxClientEvents {
		st.Events = st.Events[len(st.Events)-maxClientEvents:]
	}
	if st.Out != nil {
		b, err := json.Marshal(ev)
		if err != nil {
			return
		}
		select {
		case st.Out <- b:
		default:
			// Slow consumer; drop rather than stall the sim.
		}
	}
}

func (c *Clan) audit(entry AuditEntry) {
	if c.auditLogger == nil {
		return
	}
	_ = c.auditLogger.WriteAudit(entry)
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
		if message == "" {
			message = "unknown error code"
		}
	}
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}
