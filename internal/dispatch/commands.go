package dispatch

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridhangar/internal/checks"
	"gridhangar/internal/config"
	"gridhangar/internal/grids"
	"gridhangar/internal/hangar"
	"gridhangar/internal/market"
	"gridhangar/internal/persistence/hangarfile"
	persistlog "gridhangar/internal/persistence/log"
	"gridhangar/internal/protocol"
	"gridhangar/internal/sim"
)

// Responder delivers command outcomes back to the acting account.
type Responder interface {
	Respond(accountID int64, msg string)
	SendWaypoint(accountID int64, pos sim.Vec3, label string, radius float64)
}

// PlayerContext is the immutable per-command identity snapshot, captured
// once at command receipt.
type PlayerContext struct {
	AccountID  int64
	PlatformID uint64
	Name       string
	Pos        sim.Vec3
	Character  sim.CharacterID
}

// Deps wires the command surface. Board, Broadcast and Audit are optional.
type Deps struct {
	Settings  func() *config.Settings
	Engine    sim.Engine
	Factions  sim.Factions
	Responder Responder
	Store     *hangarfile.Store
	Queue     *Queue
	Board     *market.Board
	Broadcast func(any)
	Audit     *persistlog.Audit
	Log       *log.Logger
	Now       func() time.Time
}

// Commands is the player-facing hangar command surface. Every public method
// completes asynchronously via the queue and yields exactly one response.
type Commands struct {
	d Deps
}

func NewCommands(d Deps) *Commands {
	if d.Now == nil {
		d.Now = time.Now
	}
	c := &Commands{d: d}
	d.Queue.OnFault = func(accountID int64) {
		d.Responder.Respond(accountID, "An internal error occurred. Please try again.")
	}
	return c
}

func (c *Commands) Save(p PlayerContext) {
	c.enqueue("save", p, func() error { return c.doSave(p) })
}

func (c *Commands) List(p PlayerContext) {
	c.enqueue("list", p, func() error { return c.doList(p) })
}

func (c *Commands) Load(p PlayerContext, id string, nearPlayer bool) {
	c.enqueue("load", p, func() error { return c.doLoad(p, id, nearPlayer) })
}

func (c *Commands) Remove(p PlayerContext, id string) {
	c.enqueue("remove", p, func() error { return c.doRemove(p, id) })
}

func (c *Commands) Info(p PlayerContext, id string) {
	c.enqueue("info", p, func() error { return c.doInfo(p, id) })
}

func (c *Commands) Sell(p PlayerContext, id string, price int64, description string) {
	c.enqueue("sell", p, func() error { return c.doSell(p, id, price, description) })
}

func (c *Commands) enqueue(op string, p PlayerContext, fn func() error) {
	if !c.d.Queue.Submit(op, p.AccountID, fn) {
		c.d.Responder.Respond(p.AccountID, "Server is busy, try again shortly!")
	}
}

func (c *Commands) denied(p PlayerContext, op string, d checks.Decision) {
	if d.Waypoint != nil {
		c.d.Responder.SendWaypoint(p.AccountID, d.Waypoint.Pos, d.Waypoint.Label, d.Waypoint.Radius)
	}
	c.d.Responder.Respond(p.AccountID, d.Reason)
	c.writeAudit(p, op, false, d.Code, d.Reason)
}

func (c *Commands) writeAudit(p PlayerContext, op string, allowed bool, code, detail string) {
	if c.d.Audit == nil {
		return
	}
	err := c.d.Audit.Write(persistlog.AuditEntry{
		Time:      c.d.Now(),
		AccountID: p.AccountID,
		Op:        op,
		Allowed:   allowed,
		Code:      code,
		Detail:    detail,
	})
	if err != nil {
		c.d.Log.Printf("audit: %v", err)
	}
}

func (c *Commands) doSave(p PlayerContext) error {
	cfg := c.d.Settings()
	pipe := checks.NewPipeline(cfg, c.d.Engine, c.d.Factions)
	req := checks.Request{
		AccountID:  p.AccountID,
		PlatformID: p.PlatformID,
		Pos:        p.Pos,
		SpawnPos:   p.Pos,
		Saving:     true,
	}
	if d := pipe.AdmitLocation(req); !d.Allowed {
		c.denied(p, "save", d)
		return nil
	}
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	if d := pipe.AdmitAccount(req, h.Timer.LastSave, c.d.Now()); !d.Allowed {
		c.denied(p, "save", d)
		return nil
	}

	if err := h.CheckSlots(cfg.Limits); err != nil {
		c.d.Responder.Respond(p.AccountID, "Your hangar is full! Remove a grid before saving another.")
		c.writeAudit(p, "save", false, protocol.ErrQuota, err.Error())
		return nil
	}

	cap, err := grids.CaptureTargeted(c.d.Engine, p.Character)
	if errors.Is(err, grids.ErrNoTarget) {
		c.d.Responder.Respond(p.AccountID, "You are not looking at a grid you can save!")
		c.writeAudit(p, "save", false, protocol.ErrNotFound, err.Error())
		return nil
	}
	var pre *grids.PreconditionError
	if errors.As(err, &pre) {
		c.d.Responder.Respond(p.AccountID, pre.Reason)
		c.writeAudit(p, "save", false, protocol.ErrNotFound, pre.Reason)
		return nil
	}
	if err != nil {
		return err
	}

	factionTag := ""
	if fid, ok := c.d.Factions.FactionOf(p.AccountID); ok {
		factionTag = c.d.Factions.Tag(fid)
	}
	stamp := grids.BuildStamp(cap, factionTag, c.d.Now())

	if err := h.CheckStamp(stamp, cfg.Limits); err != nil {
		var q *hangar.QuotaError
		if errors.As(err, &q) {
			c.d.Responder.Respond(p.AccountID,
				fmt.Sprintf("Saving this grid would exceed your hangar %s limit (%d of %d)!", q.Kind, q.Have, q.Limit))
		}
		c.writeAudit(p, "save", false, protocol.ErrQuota, err.Error())
		return nil
	}

	stamp.GridName = h.UniqueName(stamp.GridName)

	blob, err := grids.CompressBlob(cap.Blob)
	if err != nil {
		return fmt.Errorf("compress grid %d: %w", stamp.GridID, err)
	}
	if err := c.d.Store.SaveBlob(p.AccountID, stamp.GridID, blob); err != nil {
		return fmt.Errorf("save blob %d: %w", stamp.GridID, err)
	}
	if err := h.Add(stamp, cfg.Limits); err != nil {
		_ = c.d.Store.DeleteBlob(p.AccountID, stamp.GridID)
		return fmt.Errorf("add stamp %d: %w", stamp.GridID, err)
	}
	h.Timer = hangar.TimeStamp{AccountID: p.AccountID, LastSave: c.d.Now()}
	if err := c.d.Store.Save(h); err != nil {
		return fmt.Errorf("persist hangar %d: %w", p.AccountID, err)
	}
	if err := c.d.Engine.Remove(cap.Bodies[0].EntityID); err != nil {
		return fmt.Errorf("remove grid %d from world: %w", cap.Bodies[0].EntityID, err)
	}

	c.d.Responder.Respond(p.AccountID, "Save Complete!")
	c.writeAudit(p, "save", true, "", stamp.GridName)
	return nil
}

func (c *Commands) doList(p PlayerContext) error {
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	if len(h.Stamps) == 0 {
		c.d.Responder.Respond(p.AccountID, "You have no grids saved in your hangar!")
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d grids in your hangar:", len(h.Stamps))
	for i, s := range h.Stamps {
		fmt.Fprintf(&b, "\n [%d] %s - %d blocks, %d PCU", i+1, s.GridName, s.NumberOfBlocks, s.GridPCU)
		if s.ForSale {
			b.WriteString(" (for sale)")
		}
	}
	c.d.Responder.Respond(p.AccountID, b.String())
	return nil
}

func (c *Commands) doLoad(p PlayerContext, id string, nearPlayer bool) error {
	cfg := c.d.Settings()
	pipe := checks.NewPipeline(cfg, c.d.Engine, c.d.Factions)
	req := checks.Request{
		AccountID:  p.AccountID,
		PlatformID: p.PlatformID,
		Pos:        p.Pos,
		Saving:     false,
	}
	if d := pipe.AdmitLocation(req); !d.Allowed {
		c.denied(p, "load", d)
		return nil
	}
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	i, err := h.Resolve(id)
	if err != nil {
		c.d.Responder.Respond(p.AccountID, fmt.Sprintf("Grid %q could not be found in your hangar!", id))
		c.writeAudit(p, "load", false, protocol.ErrNotFound, id)
		return nil
	}
	stamp := h.Stamps[i]

	req.SpawnPos = stamp.SavePos
	if nearPlayer {
		req.SpawnPos = p.Pos
	}
	if d := pipe.AdmitAccount(req, h.Timer.LastSave, c.d.Now()); !d.Allowed {
		c.denied(p, "load", d)
		return nil
	}

	blob, err := c.d.Store.LoadBlob(p.AccountID, stamp.GridID)
	if err != nil {
		return fmt.Errorf("load blob %d: %w", stamp.GridID, err)
	}
	def, err := grids.DecompressBlob(blob)
	if err != nil {
		return fmt.Errorf("decompress blob %d: %w", stamp.GridID, err)
	}
	if err := c.d.Engine.Spawn(def, req.SpawnPos); err != nil {
		c.d.Responder.Respond(p.AccountID, "Unable to spawn the grid at the target position!")
		c.writeAudit(p, "load", false, protocol.ErrInternal, err.Error())
		return nil
	}

	if _, err := h.RemoveAt(i); err != nil {
		return err
	}
	if err := c.d.Store.Save(h); err != nil {
		return fmt.Errorf("persist hangar %d: %w", p.AccountID, err)
	}
	if err := c.d.Store.DeleteBlob(p.AccountID, stamp.GridID); err != nil {
		c.d.Log.Printf("delete blob %d: %v", stamp.GridID, err)
	}

	c.d.Responder.Respond(p.AccountID, fmt.Sprintf("%s has been loaded!", stamp.GridName))
	c.writeAudit(p, "load", true, "", stamp.GridName)
	return nil
}

func (c *Commands) doRemove(p PlayerContext, id string) error {
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	i, err := h.Resolve(id)
	if err != nil {
		c.d.Responder.Respond(p.AccountID, fmt.Sprintf("Grid %q could not be found in your hangar!", id))
		c.writeAudit(p, "remove", false, protocol.ErrNotFound, id)
		return nil
	}
	stamp, err := h.RemoveAt(i)
	if err != nil {
		return err
	}
	if err := c.d.Store.Save(h); err != nil {
		return fmt.Errorf("persist hangar %d: %w", p.AccountID, err)
	}
	if err := c.d.Store.DeleteBlob(p.AccountID, stamp.GridID); err != nil {
		c.d.Log.Printf("delete blob %d: %v", stamp.GridID, err)
	}
	if stamp.ForSale && c.d.Board != nil {
		c.delist(stamp)
	}
	c.d.Responder.Respond(p.AccountID, fmt.Sprintf("%s has been removed from your hangar!", stamp.GridName))
	c.writeAudit(p, "remove", true, "", stamp.GridName)
	return nil
}

func (c *Commands) doInfo(p PlayerContext, id string) error {
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	if strings.TrimSpace(id) == "" {
		var blocks, pcu int
		for _, s := range h.Stamps {
			blocks += s.NumberOfBlocks
			pcu += s.GridPCU
		}
		c.d.Responder.Respond(p.AccountID,
			fmt.Sprintf("Hangar: %d grids, %d blocks, %d PCU total", len(h.Stamps), blocks, pcu))
		return nil
	}
	i, err := h.Resolve(id)
	if err != nil {
		c.d.Responder.Respond(p.AccountID, fmt.Sprintf("Grid %q could not be found in your hangar!", id))
		c.writeAudit(p, "info", false, protocol.ErrNotFound, id)
		return nil
	}
	s := h.Stamps[i]
	var b strings.Builder
	fmt.Fprintf(&b, "%s", s.GridName)
	fmt.Fprintf(&b, "\n Grids: %d (small %d / large %d / static %d)", s.NumberOfGrids, s.SmallGrids, s.LargeGrids, s.StaticGrids)
	fmt.Fprintf(&b, "\n Blocks: %d, PCU: %d", s.NumberOfBlocks, s.GridPCU)
	fmt.Fprintf(&b, "\n Mass: %.0f kg, Max power: %.2f MW", s.GridMass, s.MaxPowerOutput)
	fmt.Fprintf(&b, "\n Built: %.1f%%, Jump distance: %.0f m", s.BuiltPercent*100, s.JumpDistance)
	fmt.Fprintf(&b, "\n Faction: %s", s.SellerFaction)
	if s.ForSale {
		fmt.Fprintf(&b, "\n For sale at %.0f", s.MarketValue)
	}
	if len(s.BlockTypeCounts) > 0 {
		fmt.Fprintf(&b, "\n Block types: %d distinct", len(s.BlockTypeCounts))
	}
	if len(s.StoredResources) > 0 {
		fmt.Fprintf(&b, "\n Stored resources: %d kinds", len(s.StoredResources))
	}
	c.d.Responder.Respond(p.AccountID, b.String())
	return nil
}

func (c *Commands) doSell(p PlayerContext, id string, price int64, description string) error {
	if c.d.Board == nil {
		c.d.Responder.Respond(p.AccountID, "The market is not available on this server!")
		return nil
	}
	h, err := c.d.Store.Load(p.AccountID)
	if err != nil {
		return fmt.Errorf("load hangar %d: %w", p.AccountID, err)
	}
	i, err := h.Resolve(id)
	if err != nil {
		c.d.Responder.Respond(p.AccountID, fmt.Sprintf("Grid %q could not be found in your hangar!", id))
		c.writeAudit(p, "sell", false, protocol.ErrNotFound, id)
		return nil
	}
	if h.Stamps[i].ForSale {
		c.d.Responder.Respond(p.AccountID, fmt.Sprintf("%s is already listed on the market!", h.Stamps[i].GridName))
		return nil
	}
	listingID := uuid.NewString()
	if err := h.MarkForSale(i, float64(price), listingID); err != nil {
		return err
	}
	s := h.Stamps[i]

	blob, err := c.d.Store.LoadBlob(p.AccountID, s.GridID)
	if err != nil {
		return fmt.Errorf("load blob %d: %w", s.GridID, err)
	}

	listing := protocol.Listing{
		ListingID:   listingID,
		Name:        s.GridName,
		Description: description,
		Seller:      p.Name,
		SellerID:    p.PlatformID,
		Price:       price,
		MarketValue: s.MarketValue,

		SellerFaction:  s.SellerFaction,
		GridMass:       s.GridMass,
		SmallGrids:     s.SmallGrids,
		LargeGrids:     s.LargeGrids,
		StaticGrids:    s.StaticGrids,
		NumberOfGrids:  s.NumberOfGrids,
		NumberOfBlocks: s.NumberOfBlocks,
		MaxPowerOutput: s.MaxPowerOutput,
		BuiltPercent:   s.BuiltPercent,
		JumpDistance:   s.JumpDistance,
		PCU:            s.GridPCU,

		BlockTypeCounts: s.BlockTypeCounts,
		StoredResources: s.StoredResources,
	}
	c.d.Board.AddListing(listing, blob)
	if c.d.Broadcast != nil {
		c.d.Broadcast(&protocol.AddOneMsg{
			Type:            protocol.TypeAddOne,
			ProtocolVersion: protocol.Version,
			MsgID:           uuid.NewString(),
			Listing:         listing,
		})
	}
	if err := c.d.Store.Save(h); err != nil {
		return fmt.Errorf("persist hangar %d: %w", p.AccountID, err)
	}
	c.d.Responder.Respond(p.AccountID, fmt.Sprintf("%s has been listed on the market for %d!", s.GridName, price))
	c.writeAudit(p, "sell", true, "", s.GridName)
	return nil
}

// delist withdraws exactly the stamp's own listing. Names collide across
// hangars, so only the recorded listing id is trusted here.
func (c *Commands) delist(stamp hangar.GridStamp) {
	if stamp.ListingID == "" {
		return
	}
	c.d.Board.RemoveListing(stamp.ListingID)
	if c.d.Broadcast != nil {
		c.d.Broadcast(&protocol.RemoveOneMsg{
			Type:            protocol.TypeRemoveOne,
			ProtocolVersion: protocol.Version,
			MsgID:           uuid.NewString(),
			ListingID:       stamp.ListingID,
		})
	}
}
