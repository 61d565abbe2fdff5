package challenges

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/confraria/backend/internal/models"
)

func TestClassify(t *testing.T) {
	cl := NewClassifier(5)

	tests := []struct {
		name string
		text string
		want models.ContributionType
		ok   bool
	}{
		{
			name: "email is contact",
			text: "contact me at jane@example.com",
			want: models.ContributionContact,
			ok:   true,
		},
		{
			name: "plain advice",
			text: "Talk to their CFO first, budget is tight",
			want: models.ContributionAdvice,
			ok:   true,
		},
		{
			name: "phone with area code is contact",
			text: "ligue para (11) 99999-8888",
			want: models.ContributionContact,
			ok:   true,
		},
		{
			name: "phone without area code is contact",
			text: "meu numero 99999-8888",
			want: models.ContributionContact,
			ok:   true,
		},
		{
			name: "phone without hyphen is contact",
			text: "call 999998888 tomorrow",
			want: models.ContributionContact,
			ok:   true,
		},
		{
			name: "email beats advice-length text",
			text: "Here is a long and thoughtful suggestion, but also reach out to bob@corp.io for details",
			want: models.ContributionContact,
			ok:   true,
		},
		{
			name: "too short is undetermined",
			text: "ok",
			ok:   false,
		},
		{
			name: "exactly at floor is undetermined",
			text: "help!",
			ok:   false,
		},
		{
			name: "one over floor is advice",
			text: "helps!",
			want: models.ContributionAdvice,
			ok:   true,
		},
		{
			name: "whitespace padding does not count toward length",
			text: "   hi    ",
			ok:   false,
		},
		{
			name: "empty is undetermined",
			text: "",
			ok:   false,
		},
		{
			name: "bare at-sign is not an email",
			text: "meet @ the office downtown",
			want: models.ContributionAdvice,
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cl.Classify(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	cl := NewClassifier(5)
	for i := 0; i < 10; i++ {
		got, ok := cl.Classify("contact me at jane@example.com")
		assert.True(t, ok)
		assert.Equal(t, models.ContributionContact, got)
	}
}
