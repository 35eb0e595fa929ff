package round

import (
	"fmt"
	"time"

	"bondquest-rounds/internal/domain"
)

const (
	LabelPlacementTimeUp = "drag_drop_time_up"

	placementFinishDelay = time.Second
)

// PlacementLabel is the answer label for a finished placement round.
func PlacementLabel(matchPercentage float64) string {
	return fmt.Sprintf("drag_drop_completed_%d%%", roundHalfUp(matchPercentage))
}

// PlacementRound asks the player to drag each option back to its own position.
// Zones keep the question's order; items are shuffled.
type PlacementRound struct {
	core
	question domain.Question
	items    []domain.Item
	zones    []domain.Zone
	itemPos  map[string]int
	zonePos  map[string]int
	dragging string
}

var _ Round = (*PlacementRound)(nil)

// NewPlacementRound lays out one item and one zone per option and starts a
// one-second countdown from timeLimit.
func NewPlacementRound(q domain.Question, timeLimit time.Duration, opts Options) *PlacementRound {
	opts = opts.withDefaults()
	r := &PlacementRound{
		question: q,
		items:    make([]domain.Item, len(q.Options)),
		zones:    make([]domain.Zone, len(q.Options)),
		itemPos:  make(map[string]int, len(q.Options)),
		zonePos:  make(map[string]int, len(q.Options)),
	}
	for i, opt := range q.Options {
		r.items[i] = domain.Item{ID: fmt.Sprintf("item-%d", i), Content: opt, Index: i}
		r.zones[i] = domain.Zone{ID: fmt.Sprintf("zone-%d", i), Label: opt, Index: i}
	}
	opts.Rand.Shuffle(len(r.items), func(i, j int) { r.items[i], r.items[j] = r.items[j], r.items[i] })
	for i, it := range r.items {
		r.itemPos[it.ID] = i
	}
	for i, z := range r.zones {
		r.zonePos[z.ID] = i
	}

	r.init(opts, timeLimit, standardInterval, standardStep, func() (string, int) {
		return LabelPlacementTimeUp, PlacementTimeoutScore(r.placedLocked(), len(r.items))
	})
	r.start()
	return r
}

func (r *PlacementRound) Kind() domain.RoundKind { return domain.KindPlacement }

// DragStart picks up an item, replacing whatever was being dragged.
func (r *PlacementRound) DragStart(itemID string) bool {
	r.mu.Lock()
	if _, known := r.itemPos[itemID]; !known {
		r.mu.Unlock()
		return false
	}
	ok, after := r.activeLocked()
	if !ok {
		r.unlock(after)
		return false
	}
	r.dragging = itemID
	r.mu.Unlock()
	return true
}

// Drop places the dragged item in a zone. An occupant is sent back to the unplaced pool.
// Placing the last item finishes the round.
func (r *PlacementRound) Drop(zoneID string) bool {
	r.mu.Lock()
	zi, known := r.zonePos[zoneID]
	if !known || r.dragging == "" {
		r.mu.Unlock()
		return false
	}
	ok, after := r.activeLocked()
	if !ok {
		r.unlock(after)
		return false
	}

	dragged := r.dragging
	r.dragging = ""
	zone := &r.zones[zi]
	if zone.ItemID == dragged {
		r.mu.Unlock()
		return true
	}
	for i := range r.zones {
		if r.zones[i].ItemID == dragged {
			r.zones[i].ItemID = ""
		}
	}
	if zone.ItemID != "" {
		r.items[r.itemPos[zone.ItemID]].IsPlaced = false
	}
	zone.ItemID = dragged
	r.items[r.itemPos[dragged]].IsPlaced = true

	if r.placedLocked() == len(r.items) {
		after = r.completeLocked()
	}
	r.unlock(after)
	return true
}

// Skip submits the round once every item is placed, otherwise gives up with timeout scoring.
func (r *PlacementRound) Skip() bool {
	r.mu.Lock()
	ok, after := r.activeLocked()
	if ok {
		if len(r.items) > 0 && r.placedLocked() == len(r.items) {
			after = r.completeLocked()
		} else {
			after = r.timeoutLocked()
		}
	}
	r.unlock(after)
	return ok
}

// completeLocked scores by position: a zone is correct when it holds the item
// created from the same option index, whatever the item's text.
func (r *PlacementRound) completeLocked() func() {
	matches := 0
	for _, z := range r.zones {
		if z.ItemID == "" {
			continue
		}
		if r.items[r.itemPos[z.ItemID]].Index == z.Index {
			matches++
		}
	}
	pct := MatchPercentage(matches, len(r.zones))
	res := Result{Label: PlacementLabel(pct), Points: PlacementScore(pct, r.cd.left)}
	return r.finishLocked(res, placementFinishDelay)
}

func (r *PlacementRound) placedLocked() int {
	n := 0
	for _, it := range r.items {
		if it.IsPlaced {
			n++
		}
	}
	return n
}

func (r *PlacementRound) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.baseSnapshotLocked(domain.KindPlacement, r.question.Text)
	s.Items = append([]domain.Item(nil), r.items...)
	s.Zones = append([]domain.Zone(nil), r.zones...)
	s.Dragging = r.dragging
	return s
}
