package tier

import (
	"fmt"

	"github.com/nmarks/cardrank/internal/models"
)

// SaveError wraps a persistence failure, as opposed to a validation error
// raised before the board was touched. The board has already been mutated
// when one of these comes back.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// MetadataSaver persists a ranking's tier/filter metadata.
type MetadataSaver interface {
	UpdateRanking(rankingID int64, update *models.RankingUpdate) error
}

// PlacementSaver replaces a ranking's entire card-placement set.
type PlacementSaver interface {
	ReplaceItems(rankingID int64, items []models.RankingItem) error
}

// Session owns the board for one ranking-edit session. Every mutation updates
// the board in memory first, then pushes the full state out: tier metadata
// before placements, sequentially, so the store never sees a tier string and
// an item set from different generations. A failed save leaves the board
// as-is; the caller surfaces the error and the user repeats the gesture.
type Session struct {
	rankingID int64
	board     *Board
	meta      MetadataSaver
	items     PlacementSaver
}

// NewSession seeds a session from a fetched ranking and its pivot-annotated
// cards.
func NewSession(r *models.Ranking, meta MetadataSaver, items PlacementSaver) *Session {
	return &Session{
		rankingID: r.ID,
		board:     Seed(SplitNames(r.Tiers), r.Cards, BestOnRight),
		meta:      meta,
		items:     items,
	}
}

// Board exposes the session's board, mainly for inspection and pool
// computation.
func (s *Session) Board() *Board {
	return s.board
}

// MoveCard drags a card into a tier at a position and persists the resulting
// placements.
func (s *Session) MoveCard(cardID int64, targetTier string, index int) error {
	if err := s.board.MoveTo(cardID, targetTier, index); err != nil {
		return err
	}
	return s.saveItems()
}

// UnplaceCard returns a card to the pool and persists the resulting
// placements.
func (s *Session) UnplaceCard(cardID int64) error {
	s.board.Unplace(cardID)
	return s.saveItems()
}

// AddTier inserts a new tier and persists tier metadata plus placements.
func (s *Session) AddTier(name string, index int) (string, error) {
	actual, err := s.board.AddTier(name, index)
	if err != nil {
		return "", err
	}
	return actual, s.saveAll()
}

// DeleteTier removes a tier, reassigns its orphans, and persists tier
// metadata plus placements.
func (s *Session) DeleteTier(index int) error {
	if err := s.board.DeleteTier(index); err != nil {
		return err
	}
	return s.saveAll()
}

// RenameTier renames a tier in place. A no-op rename fires no save at all.
func (s *Session) RenameTier(index int, newName string) (string, error) {
	name, changed, err := s.board.RenameTier(index, newName)
	if err != nil {
		return "", err
	}
	if !changed {
		return name, nil
	}
	return name, s.saveAll()
}

// MoveTier swaps a tier with a neighbor and persists tier metadata plus
// placements.
func (s *Session) MoveTier(index, delta int) error {
	if err := s.board.MoveTier(index, delta); err != nil {
		return err
	}
	return s.saveAll()
}

func (s *Session) saveAll() error {
	tiers := JoinNames(s.board.Names())
	if err := s.meta.UpdateRanking(s.rankingID, &models.RankingUpdate{Tiers: &tiers}); err != nil {
		return &SaveError{Op: "save tier metadata", Err: err}
	}
	return s.saveItems()
}

func (s *Session) saveItems() error {
	if err := s.items.ReplaceItems(s.rankingID, s.board.Serialize(BestOnRight)); err != nil {
		return &SaveError{Op: "save placements", Err: err}
	}
	return nil
}
