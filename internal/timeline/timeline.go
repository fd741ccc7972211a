// Package timeline validates and mutates a single player's ordered timeline.
//
// A timeline is ascending by year and positions always mirror indices. All
// functions here are pure slice operations; locking is the caller's job.
package timeline

import "beatline/internal/model"

// CheckPosition reports whether placing a card with the given year at
// position keeps the timeline ordered.
//
//   - empty timeline: only position 0 is correct
//   - position 0: year must be <= the first card's year
//   - position len: year must be >= the last card's year
//   - in between: timeline[position-1].Year <= year <= timeline[position].Year
//
// Out-of-range positions are simply wrong, never an error.
func CheckPosition(cards []model.TimelineCard, position, year int) bool {
	n := len(cards)
	switch {
	case position < 0 || position > n:
		return false
	case n == 0:
		return position == 0
	case position == 0:
		return year <= cards[0].Year
	case position == n:
		return year >= cards[n-1].Year
	default:
		return cards[position-1].Year <= year && year <= cards[position].Year
	}
}

// InsertAt inserts card at position and renumbers. The caller is expected
// to have validated the position via CheckPosition or SortedIndex.
func InsertAt(cards []model.TimelineCard, card model.TimelineCard, position int) []model.TimelineCard {
	if position < 0 {
		position = 0
	}
	if position > len(cards) {
		position = len(cards)
	}
	cards = append(cards, model.TimelineCard{})
	copy(cards[position+1:], cards[position:])
	cards[position] = card
	Renumber(cards)
	return cards
}

// RemoveAt removes the card at position and renumbers. ok is false when the
// position does not index an existing card.
func RemoveAt(cards []model.TimelineCard, position int) (model.TimelineCard, []model.TimelineCard, bool) {
	if position < 0 || position >= len(cards) {
		return model.TimelineCard{}, cards, false
	}
	removed := cards[position]
	cards = append(cards[:position], cards[position+1:]...)
	Renumber(cards)
	return removed, cards, true
}

// Append adds a card to the end of the timeline and renumbers. Stolen cards
// land here; they are deliberately not re-sorted by year.
func Append(cards []model.TimelineCard, card model.TimelineCard) []model.TimelineCard {
	cards = append(cards, card)
	Renumber(cards)
	return cards
}

// SortedIndex returns the year-sorted insertion index for a bought card:
// after the last existing card whose year is <= the new year.
func SortedIndex(cards []model.TimelineCard, year int) int {
	i := 0
	for i < len(cards) && cards[i].Year <= year {
		i++
	}
	return i
}

// Renumber rewrites every card's Position to its index.
func Renumber(cards []model.TimelineCard) {
	for i := range cards {
		cards[i].Position = i
	}
}

// Snapshot returns a copy of the timeline safe to hand to callers outside
// the session lock.
func Snapshot(cards []model.TimelineCard) []model.TimelineCard {
	out := make([]model.TimelineCard, len(cards))
	copy(out, cards)
	return out
}
