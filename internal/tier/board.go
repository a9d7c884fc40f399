package tier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmarks/cardrank/internal/models"
)

// BestOnRight controls board orientation for the whole application: when
// false the head of each tier's list is the best card and placements count up
// left to right; when true the visual best card is the last element, so
// placement assignment walks each list in reverse. Mutations are unaffected,
// they always operate on plain list order.
const BestOnRight = false

// DefaultTierIndex is where orphaned and unhinted cards land.
const DefaultTierIndex = 0

// Board is the in-memory tier layout of one ranking edit session: an ordered
// list of tier names, each holding an ordered list of card ids. A card id
// appears in at most one tier at a time.
type Board struct {
	names []string
	rows  map[string][]int64
}

// NewBoard creates an empty board with the given tier names. Duplicate names
// in the input are dropped; the engine itself never produces them, but a
// hand-edited tier string might.
func NewBoard(names []string) *Board {
	b := &Board{
		names: make([]string, 0, len(names)),
		rows:  make(map[string][]int64, len(names)),
	}
	for _, n := range names {
		if _, ok := b.rows[n]; ok {
			continue
		}
		b.names = append(b.names, n)
		b.rows[n] = []int64{}
	}
	return b
}

// Seed builds a board from a ranking's tier names and pivot-annotated cards.
// A card whose pivot tier is unknown falls back to the first tier; with zero
// tiers cards are dropped. Within each tier cards sort by pivot placement,
// ascending, or descending when bestOnRight.
func Seed(names []string, cards []models.RankedCard, bestOnRight bool) *Board {
	b := NewBoard(names)
	if len(b.names) == 0 {
		return b
	}
	grouped := make(map[string][]models.RankedCard, len(b.names))
	for _, c := range cards {
		name := c.Pivot.Tier
		if _, ok := b.rows[name]; !ok {
			name = b.names[DefaultTierIndex]
		}
		grouped[name] = append(grouped[name], c)
	}
	for name, group := range grouped {
		sort.SliceStable(group, func(i, j int) bool {
			if bestOnRight {
				return group[i].Pivot.Placement > group[j].Pivot.Placement
			}
			return group[i].Pivot.Placement < group[j].Pivot.Placement
		})
		row := make([]int64, len(group))
		for i, c := range group {
			row[i] = c.ID
		}
		b.rows[name] = row
	}
	return b
}

// Names returns the ordered tier names.
func (b *Board) Names() []string {
	return append([]string(nil), b.names...)
}

// Row returns the ordered card ids of the named tier.
func (b *Board) Row(name string) []int64 {
	return append([]int64(nil), b.rows[name]...)
}

// Contains reports whether cardID is placed in any tier.
func (b *Board) Contains(cardID int64) bool {
	for _, row := range b.rows {
		for _, id := range row {
			if id == cardID {
				return true
			}
		}
	}
	return false
}

// Size returns the total number of placed cards.
func (b *Board) Size() int {
	n := 0
	for _, name := range b.names {
		n += len(b.rows[name])
	}
	return n
}

// Reconcile folds a fresh server card list into the board: ids the server no
// longer knows are dropped silently, ids the board has never seen are appended
// to their pivot-hinted tier or, failing that, the first tier. Existing
// placements keep their exact order.
func (b *Board) Reconcile(cards []models.RankedCard) {
	if len(b.names) == 0 {
		return
	}
	known := make(map[int64]bool, len(cards))
	for _, c := range cards {
		known[c.ID] = true
	}
	for name, row := range b.rows {
		kept := row[:0]
		for _, id := range row {
			if known[id] {
				kept = append(kept, id)
			}
		}
		b.rows[name] = kept
	}
	for _, c := range cards {
		if b.Contains(c.ID) {
			continue
		}
		name := c.Pivot.Tier
		if _, ok := b.rows[name]; !ok {
			name = b.names[DefaultTierIndex]
		}
		b.rows[name] = append(b.rows[name], c.ID)
	}
}

// remap rebuilds the board around a new name list. Rows whose name survives
// unchanged are copied over; every other card id is an orphan and is appended
// to the new first tier, in the order the old tiers are walked. A rename must
// not go through here alone: it would orphan the renamed tier's cards (see
// RenameTier).
func (b *Board) remap(newNames []string) {
	next := NewBoard(newNames)
	for _, name := range b.names {
		if _, ok := next.rows[name]; ok {
			next.rows[name] = append([]int64(nil), b.rows[name]...)
		}
	}
	if len(next.names) > 0 {
		first := next.names[DefaultTierIndex]
		for _, name := range b.names {
			for _, id := range b.rows[name] {
				if !next.Contains(id) {
					next.rows[first] = append(next.rows[first], id)
				}
			}
		}
	}
	b.names = next.names
	b.rows = next.rows
}

// MoveTo places cardID into the named tier at insertIndex. The card is first
// removed from every tier; if it was already in the target tier left of the
// insertion point, the index shifts down one to account for the removal.
func (b *Board) MoveTo(cardID int64, targetTier string, insertIndex int) error {
	row, ok := b.rows[targetTier]
	if !ok {
		return fmt.Errorf("unknown tier %q", targetTier)
	}
	originalIndex := -1
	for i, id := range row {
		if id == cardID {
			originalIndex = i
			break
		}
	}
	b.Unplace(cardID)
	row = b.rows[targetTier]
	insertIndex = clampIndex(insertIndex, len(row))
	if originalIndex >= 0 && originalIndex < insertIndex {
		insertIndex--
	}
	row = append(row, 0)
	copy(row[insertIndex+1:], row[insertIndex:])
	row[insertIndex] = cardID
	b.rows[targetTier] = row
	return nil
}

// Unplace removes cardID from every tier, returning it to the pool.
// No-op if the card is not placed.
func (b *Board) Unplace(cardID int64) {
	for name, row := range b.rows {
		kept := row[:0]
		for _, id := range row {
			if id != cardID {
				kept = append(kept, id)
			}
		}
		b.rows[name] = kept
	}
}

// AddTier inserts a new empty tier at the given position, clamped into the
// name list. The name is disambiguated against existing tiers; the final name
// is returned.
func (b *Board) AddTier(name string, index int) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	name = Disambiguate(strings.TrimSpace(name), b.names)
	index = clampIndex(index, len(b.names))
	names := append([]string(nil), b.names[:index]...)
	names = append(names, name)
	names = append(names, b.names[index:]...)
	b.remap(names)
	return name, nil
}

// DeleteTier removes the tier at index; its cards become orphans and move to
// the remaining first tier. The last tier cannot be deleted.
func (b *Board) DeleteTier(index int) error {
	if index < 0 || index >= len(b.names) {
		return fmt.Errorf("tier index %d out of range", index)
	}
	if len(b.names) == 1 {
		return fmt.Errorf("cannot delete the only tier")
	}
	names := append([]string(nil), b.names[:index]...)
	names = append(names, b.names[index+1:]...)
	b.remap(names)
	return nil
}

// RenameTier renames the tier at index, carrying its card list over intact.
// Renaming to the same trimmed name, or to an empty one, is a no-op; any
// other invalid name is a validation error. The returned bool reports whether
// anything changed.
func (b *Board) RenameTier(index int, newName string) (string, bool, error) {
	if index < 0 || index >= len(b.names) {
		return "", false, fmt.Errorf("tier index %d out of range", index)
	}
	old := b.names[index]
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == old {
		return old, false, nil
	}
	if err := ValidateName(newName); err != nil {
		return "", false, err
	}
	newName = Disambiguate(newName, otherNames(b.names, index))
	if newName == old {
		return old, false, nil
	}
	b.rows[newName] = b.rows[old]
	delete(b.rows, old)
	b.names[index] = newName
	return newName, true, nil
}

// MoveTier swaps the tier at index with its neighbor in the given direction
// (-1 up, +1 down). Rows travel with their names; out-of-range swaps are
// rejected.
func (b *Board) MoveTier(index, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("tier move delta must be -1 or 1")
	}
	j := index + delta
	if index < 0 || index >= len(b.names) || j < 0 || j >= len(b.names) {
		return fmt.Errorf("tier index %d out of range", index)
	}
	b.names[index], b.names[j] = b.names[j], b.names[index]
	return nil
}

// Serialize flattens the board into wire records: tiers in order, each row
// walked forward (or in reverse when bestOnRight), placements counting up
// from 1 without resetting across tiers.
func (b *Board) Serialize(bestOnRight bool) []models.RankingItem {
	items := make([]models.RankingItem, 0, b.Size())
	placement := 1
	for _, name := range b.names {
		row := b.rows[name]
		if bestOnRight {
			for i := len(row) - 1; i >= 0; i-- {
				items = append(items, models.RankingItem{CardID: row[i], Placement: placement, Tier: name})
				placement++
			}
		} else {
			for _, id := range row {
				items = append(items, models.RankingItem{CardID: id, Placement: placement, Tier: name})
				placement++
			}
		}
	}
	return items
}

// Pool returns the cards that pass the ranking's filters but are not placed
// in any tier. Derived on demand, never stored.
func (b *Board) Pool(cards []models.Card, filters *models.RankingFilters) []models.Card {
	var pool []models.Card
	for _, c := range cards {
		if Matches(&c, filters) && !b.Contains(c.ID) {
			pool = append(pool, c)
		}
	}
	return pool
}

func otherNames(names []string, exclude int) []string {
	out := make([]string, 0, len(names)-1)
	for i, n := range names {
		if i != exclude {
			out = append(out, n)
		}
	}
	return out
}
