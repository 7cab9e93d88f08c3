package notify

import (
	"strings"
	"testing"
	"time"

	"feedback-portal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmailConfig() utils.EmailConfig {
	return utils.EmailConfig{
		FromName:     "Feedback Portal",
		FromAddress:  "noreply@example.com",
		FrontendURL:  "https://app.example.com",
		CompanyName:  "Acme Support",
		SupportEmail: "help@example.com",
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
		DailyLimit:   100,
	}
}

func testTokenConfig() utils.TokenConfig {
	return utils.TokenConfig{VerificationTTL: 24 * time.Hour, ResetTTL: time.Hour}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(testEmailConfig(), testTokenConfig())
	require.NoError(t, err)
	return b
}

func TestRenderEveryKindWithEmptyPayload(t *testing.T) {
	b := newTestBuilder(t)

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			msg, err := b.Render(kind, Recipient{Email: "jane@example.com"}, Payload{})
			require.NoError(t, err)
			assert.Equal(t, kind, msg.Kind)
			assert.Equal(t, "jane@example.com", msg.To)
			assert.NotEmpty(t, msg.Subject)
			assert.Contains(t, msg.HTML, "Hello jane,")
			assert.Contains(t, msg.HTML, "Acme Support")
		})
	}
}

func TestRenderUnknownKind(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Render(Kind("newsletter"), Recipient{Email: "a@b.com"}, Payload{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRenderTokenLinks(t *testing.T) {
	b := newTestBuilder(t)
	token := "abc_DEF-123"

	msg, err := b.Render(KindVerification, Recipient{Email: "a@b.com"}, Payload{Token: token})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "https://app.example.com/verify-email/"+token)
	assert.Contains(t, msg.HTML, "24 hours")

	msg, err = b.Render(KindPasswordReset, Recipient{Email: "a@b.com"}, Payload{Token: token})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "https://app.example.com/reset-password/"+token)
	assert.Contains(t, msg.HTML, "1 hour")
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Ann", Recipient{Email: "x@y.com", FirstName: "Ann", Username: "ann1"}.DisplayName())
	assert.Equal(t, "ann1", Recipient{Email: "x@y.com", Username: "ann1"}.DisplayName())
	assert.Equal(t, "x", Recipient{Email: "x@y.com"}.DisplayName())
	assert.Equal(t, "ann1", Recipient{Email: "x@y.com", FirstName: "  ", Username: "ann1"}.DisplayName())
}

func TestFeedbackFallbacks(t *testing.T) {
	b := newTestBuilder(t)

	msg, err := b.Render(KindFeedbackAssigned, Recipient{Email: "agent@example.com"}, Payload{
		Feedback: &FeedbackInfo{ID: "42", Title: "Login broken"},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Not specified")
	assert.Contains(t, msg.HTML, notAvailable)
	assert.Contains(t, msg.HTML, "https://app.example.com/feedback/42")
	assert.Equal(t, "Feedback assigned to you: N/A", msg.Subject)
}

func TestFeedbackStatusChanged(t *testing.T) {
	b := newTestBuilder(t)

	msg, err := b.Render(KindFeedbackStatusChanged, Recipient{Email: "a@b.com", FirstName: "Ann"}, Payload{
		Feedback: &FeedbackInfo{
			ID:             "7",
			Number:         "FB-20260101-0001",
			Title:          "Slow page",
			Category:       "Bug report",
			Priority:       "urgent",
			Status:         "in_progress",
			PreviousStatus: "open",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Feedback FB-20260101-0001 status updated", msg.Subject)
	assert.Contains(t, msg.HTML, "In Progress")
	assert.Contains(t, msg.HTML, "Open")
	assert.Contains(t, msg.HTML, "#dc3545")
	assert.Contains(t, msg.HTML, "URGENT")
	assert.Contains(t, msg.HTML, "Bug report")
}

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, "#dc3545", PriorityColor("urgent"))
	assert.Equal(t, "#fd7e14", PriorityColor("HIGH"))
	assert.Equal(t, "#28a745", PriorityColor("normal"))
	assert.Equal(t, "#28a745", PriorityColor(""))
	assert.Equal(t, "#28a745", PriorityColor("whatever"))
}

func TestRenderIsDeterministic(t *testing.T) {
	b := newTestBuilder(t)
	payload := Payload{Token: "tok"}
	first, err := b.Render(KindVerification, Recipient{Email: "a@b.com"}, payload)
	require.NoError(t, err)
	second, err := b.Render(KindVerification, Recipient{Email: "a@b.com"}, payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderEscapesUserInput(t *testing.T) {
	b := newTestBuilder(t)

	msg, err := b.Render(KindFeedbackSubmitted, Recipient{Email: "a@b.com", FirstName: "<b>Eve</b>"}, Payload{
		Feedback: &FeedbackInfo{Title: "<script>alert(1)</script>"},
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(msg.HTML, "<script>"))
	assert.Contains(t, msg.HTML, "&lt;b&gt;Eve&lt;/b&gt;")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
}
