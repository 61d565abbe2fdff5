package challenges

import (
	"regexp"
	"strings"

	"github.com/confraria/backend/internal/models"
)

// Contribution text containing an email address or phone number is a
// contact referral; pattern match takes precedence over everything else.
var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(\(?\d{2}\)?\s)?(\d{4,5}-?\d{4})`)
)

// Classifier tags free-text contributions as CONTACT or ADVICE.
// It is a pure function holder: same input always yields the same tag.
type Classifier struct {
	adviceMinLength int
}

// NewClassifier creates a classifier. adviceMinLength is the length the
// trimmed text must exceed to count as advice (default behavior: 5).
func NewClassifier(adviceMinLength int) Classifier {
	return Classifier{adviceMinLength: adviceMinLength}
}

// Classify returns the contribution type for text. ok is false when the
// text matches no contact pattern and is too short to be advice; callers
// must withhold such submissions.
func (cl Classifier) Classify(text string) (tag models.ContributionType, ok bool) {
	if emailPattern.MatchString(text) || phonePattern.MatchString(text) {
		return models.ContributionContact, true
	}
	if len(strings.TrimSpace(text)) > cl.adviceMinLength {
		return models.ContributionAdvice, true
	}
	return "", false
}
