package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/logger"
	"secretsanta/internal/models"
)

// MaxDrawAttempts caps the rejection sampling loop in GenerateDerangement.
const MaxDrawAttempts = 100

var (
	ErrTooFewParticipants   = errors.New("at least two participants are required for a drawing")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrInvalidDocument      = errors.New("invalid assignment document")
)

// Shuffler is the random source used for drawings. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// GenerateDerangement pairs every participant with a different participant.
// Receivers are shuffled until no one draws themselves; if that does not
// happen within MaxDrawAttempts the list is rotated by one instead.
func GenerateDerangement(participants []string, rng Shuffler) (map[string]string, error) {
	if err := checkRoster(participants); err != nil {
		return nil, err
	}

	receivers := make([]string, len(participants))
	copy(receivers, participants)

	for attempt := 0; attempt < MaxDrawAttempts; attempt++ {
		rng.Shuffle(len(receivers), func(i, j int) {
			receivers[i], receivers[j] = receivers[j], receivers[i]
		})
		if !hasFixedPoint(participants, receivers) {
			return zipPairs(participants, receivers), nil
		}
	}

	logger.Warningf("No derangement found after %d attempts, falling back to rotation", MaxDrawAttempts)
	for i := range participants {
		receivers[i] = participants[(i+1)%len(participants)]
	}
	return zipPairs(participants, receivers), nil
}

// ResetAssignments returns the mapping for "no drawing has been performed".
func ResetAssignments() map[string]string {
	return map[string]string{}
}

func checkRoster(participants []string) error {
	if len(participants) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewParticipants, len(participants))
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			return fmt.Errorf("%w: %q", ErrDuplicateParticipant, p)
		}
		seen[p] = true
	}
	return nil
}

func hasFixedPoint(givers, receivers []string) bool {
	for i, giver := range givers {
		if giver == receivers[i] {
			return true
		}
	}
	return false
}

func zipPairs(givers, receivers []string) map[string]string {
	pairs := make(map[string]string, len(givers))
	for i, giver := range givers {
		pairs[giver] = receivers[i]
	}
	return pairs
}

// NewDocument builds the document used before anything has been saved.
func NewDocument(participants []string) models.Document {
	doc := models.Document{
		Assignments: ResetAssignments(),
		Wishlists:   make(map[string]string, len(participants)),
	}
	for _, p := range participants {
		doc.Wishlists[p] = ""
	}
	return doc
}

// Draw returns doc with a fresh drawing. Re-drawing is always allowed.
func Draw(doc models.Document, participants []string, rng Shuffler) (models.Document, error) {
	pairs, err := GenerateDerangement(participants, rng)
	if err != nil {
		return doc, err
	}
	next := doc.Clone()
	next.Assignments = pairs
	next.AssignmentDone = true
	return next, nil
}

// Reset returns doc without a drawing. Wishlists are kept.
func Reset(doc models.Document) models.Document {
	next := doc.Clone()
	next.Assignments = ResetAssignments()
	next.AssignmentDone = false
	return next
}

// SaveWishlist returns doc with the wishlist of user replaced by text.
func SaveWishlist(doc models.Document, participants []string, user, text string) (models.Document, error) {
	if !contains(participants, user) {
		return doc, fmt.Errorf("%w: %q", ErrUnknownParticipant, user)
	}
	next := doc.Clone()
	next.Wishlists[user] = text
	return next, nil
}

// RecipientOf reports whom giver has to buy a present for.
func RecipientOf(doc models.Document, giver string) (string, bool) {
	if !doc.AssignmentDone {
		return "", false
	}
	receiver, ok := doc.Assignments[giver]
	return receiver, ok
}

// Pairings lists the drawing in roster order.
func Pairings(doc models.Document, participants []string) []models.Pairing {
	var rows []models.Pairing
	for _, giver := range participants {
		if receiver, ok := doc.Assignments[giver]; ok {
			rows = append(rows, models.Pairing{Giver: giver, Receiver: receiver})
		}
	}
	return rows
}

// ValidateDocument checks the invariants of a stored document against the
// roster. Missing wishlist entries are not an error; see FillWishlists.
func ValidateDocument(doc models.Document, participants []string) error {
	if len(doc.Assignments) == 0 {
		if doc.AssignmentDone {
			return fmt.Errorf("%w: marked as drawn without assignments", ErrInvalidDocument)
		}
		return nil
	}
	if !doc.AssignmentDone {
		return fmt.Errorf("%w: assignments present but not marked as drawn", ErrInvalidDocument)
	}
	if len(doc.Assignments) != len(participants) {
		return fmt.Errorf("%w: %d assignments for %d participants", ErrInvalidDocument, len(doc.Assignments), len(participants))
	}
	received := make(map[string]bool, len(participants))
	for _, giver := range participants {
		receiver, ok := doc.Assignments[giver]
		if !ok {
			return fmt.Errorf("%w: no assignment for %q", ErrInvalidDocument, giver)
		}
		if receiver == giver {
			return fmt.Errorf("%w: %q draws themselves", ErrInvalidDocument, giver)
		}
		if !contains(participants, receiver) {
			return fmt.Errorf("%w: %q draws unknown %q", ErrInvalidDocument, giver, receiver)
		}
		if received[receiver] {
			return fmt.Errorf("%w: %q is drawn twice", ErrInvalidDocument, receiver)
		}
		received[receiver] = true
	}
	return nil
}

// FillWishlists adds an empty wishlist for every participant that has none.
func FillWishlists(doc *models.Document, participants []string) {
	if doc.Wishlists == nil {
		doc.Wishlists = make(map[string]string, len(participants))
	}
	if doc.Assignments == nil {
		doc.Assignments = ResetAssignments()
	}
	for _, p := range participants {
		if _, ok := doc.Wishlists[p]; !ok {
			doc.Wishlists[p] = ""
		}
	}
}

// DisplayName capitalises an identifier for rendering ("katrin" -> "Katrin").
func DisplayName(id string) string {
	if id == "" {
		return ""
	}
	r := []rune(id)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
