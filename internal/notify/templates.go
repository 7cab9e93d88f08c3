package notify

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"feedback-portal/pkg/utils"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownKind = errors.New("unknown email kind")

type Kind string

const (
	KindVerification          Kind = "verification"
	KindPasswordReset         Kind = "password_reset"
	KindPasswordChanged       Kind = "password_changed"
	KindWelcome               Kind = "welcome"
	KindFeedbackSubmitted     Kind = "feedback_submitted"
	KindFeedbackAssigned      Kind = "feedback_assigned"
	KindFeedbackStatusChanged Kind = "feedback_status_changed"
)

// Kinds lists every renderable kind.
var Kinds = []Kind{
	KindVerification,
	KindPasswordReset,
	KindPasswordChanged,
	KindWelcome,
	KindFeedbackSubmitted,
	KindFeedbackAssigned,
	KindFeedbackStatusChanged,
}

const notAvailable = "N/A"

// Recipient is who the email goes to. Only Email is required.
type Recipient struct {
	Email     string
	FirstName string
	Username  string
}

// DisplayName falls back from first name to username to the email local part.
func (r Recipient) DisplayName() string {
	if name := strings.TrimSpace(r.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(r.Username); name != "" {
		return name
	}
	local, _, _ := strings.Cut(r.Email, "@")
	return local
}

type FeedbackInfo struct {
	ID             string
	Number         string
	Title          string
	Category       string
	Priority       string
	Status         string
	PreviousStatus string
	Assignee       string
	Submitter      string
}

// Payload carries the kind specific data. Token is set for verification and
// password_reset, Feedback for the feedback kinds.
type Payload struct {
	Token    string
	Feedback *FeedbackInfo
}

type Message struct {
	Kind    Kind
	To      string
	Subject string
	HTML    string
}

type feedbackView struct {
	FeedbackInfo
	PriorityColor string
}

type view struct {
	Subject      string
	Company      string
	SupportEmail string
	LogoURL      string
	Name         string
	Link         string
	ExpiresIn    string
	Feedback     feedbackView
}

// Builder renders emails from the embedded templates. It is safe for
// concurrent use.
type Builder struct {
	config    utils.EmailConfig
	tokens    utils.TokenConfig
	templates map[Kind]*template.Template
}

func NewBuilder(config utils.EmailConfig, tokens utils.TokenConfig) (*Builder, error) {
	base, err := template.New("email").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	templates := make(map[Kind]*template.Template, len(Kinds))
	for _, kind := range Kinds {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", kind, err)
		}
		t, err := clone.ParseFS(templateFS, "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		templates[kind] = t
	}

	return &Builder{config: config, tokens: tokens, templates: templates}, nil
}

// Render builds the message for kind. Missing optional values fall back to
// placeholders so any known kind always renders.
func (b *Builder) Render(kind Kind, to Recipient, payload Payload) (Message, error) {
	t, ok := b.templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	v := view{
		Company:      b.config.CompanyName,
		SupportEmail: b.config.SupportEmail,
		LogoURL:      b.config.LogoURL,
		Name:         to.DisplayName(),
		Feedback:     feedbackWithFallbacks(payload.Feedback),
	}

	switch kind {
	case KindVerification:
		v.Subject = "Verify your email address"
		v.Link = b.config.FrontendURL + "/verify-email/" + payload.Token
		v.ExpiresIn = humanDuration(b.tokens.VerificationTTL)
	case KindPasswordReset:
		v.Subject = "Reset your password"
		v.Link = b.config.FrontendURL + "/reset-password/" + payload.Token
		v.ExpiresIn = humanDuration(b.tokens.ResetTTL)
	case KindPasswordChanged:
		v.Subject = "Your password has been changed"
	case KindWelcome:
		v.Subject = "Welcome to " + b.config.CompanyName
		v.Link = b.config.FrontendURL + "/dashboard"
	case KindFeedbackSubmitted:
		v.Subject = "Feedback received: " + v.Feedback.Number
		v.Link = b.feedbackLink(v.Feedback)
	case KindFeedbackAssigned:
		v.Subject = "Feedback assigned to you: " + v.Feedback.Number
		v.Link = b.feedbackLink(v.Feedback)
	case KindFeedbackStatusChanged:
		v.Subject = "Feedback " + v.Feedback.Number + " status updated"
		v.Link = b.feedbackLink(v.Feedback)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}

	return Message{
		Kind:    kind,
		To:      to.Email,
		Subject: v.Subject,
		HTML:    buf.String(),
	}, nil
}

func (b *Builder) feedbackLink(f feedbackView) string {
	if f.ID == "" {
		return b.config.FrontendURL + "/feedback"
	}
	return b.config.FrontendURL + "/feedback/" + f.ID
}

func feedbackWithFallbacks(info *FeedbackInfo) feedbackView {
	var f FeedbackInfo
	if info != nil {
		f = *info
	}
	if f.Category == "" {
		f.Category = "Not specified"
	}
	if f.Number == "" {
		f.Number = notAvailable
	}
	if f.Status == "" {
		f.Status = notAvailable
	}
	if f.PreviousStatus == "" {
		f.PreviousStatus = notAvailable
	}
	if f.Assignee == "" {
		f.Assignee = notAvailable
	}
	if f.Title == "" {
		f.Title = notAvailable
	}
	if f.Priority == "" {
		f.Priority = "normal"
	}
	return feedbackView{FeedbackInfo: f, PriorityColor: PriorityColor(f.Priority)}
}

func PriorityColor(priority string) string {
	switch strings.ToLower(priority) {
	case "urgent":
		return "#dc3545"
	case "high":
		return "#fd7e14"
	default:
		return "#28a745"
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
