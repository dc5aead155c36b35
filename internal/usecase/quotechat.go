package usecase

import (
	"fmt"
	"strings"

	"github.com/cos71n/pipe-relining-pros/internal/domain"
)

// Step is the position of a quote chat in its flow. The flow only moves
// forward: location, service, contact, final, complete.
type Step uint8

const (
	StepLocation Step = iota
	StepService
	StepContact
	StepFinal
	StepComplete
)

// Steps lists every step in flow order.
var Steps = []Step{StepLocation, StepService, StepContact, StepFinal, StepComplete}

func (s Step) String() string {
	switch s {
	case StepLocation:
		return "location"
	case StepService:
		return "service"
	case StepContact:
		return "contact"
	case StepFinal:
		return "final"
	case StepComplete:
		return "complete"
	default:
		panic(fmt.Sprintf("usecase: unknown step %d", uint8(s)))
	}
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseStep is the inverse of Step.String.
func ParseStep(v string) (Step, bool) {
	for _, s := range Steps {
		if s.String() == v {
			return s, true
		}
	}
	return 0, false
}

// Reply is what one visitor action produced.
type Reply struct {
	Accepted  bool
	Step      Step
	Messages  []domain.ChatMessage
	Options   []string
	ShowInput bool
	CanSkip   bool
}

// QuoteChat drives one visitor through the guided quote flow. It is not
// safe for concurrent use; a Panel owns exactly one.
type QuoteChat struct {
	profile  Profile
	step     Step
	draft    domain.LeadDraft
	messages []domain.ChatMessage
}

func NewQuoteChat(profile Profile) *QuoteChat {
	c := &QuoteChat{profile: profile}
	c.Reset()
	return c
}

// Reset drops the draft and transcript and starts again at the location step.
func (c *QuoteChat) Reset() {
	c.step = StepLocation
	c.draft = domain.LeadDraft{}
	c.messages = nil
	c.system(c.profile.Copy.Greeting)
	c.system(c.profile.Copy.LocationPrompt)
}

func (c *QuoteChat) Step() Step { return c.step }

func (c *QuoteChat) Draft() domain.LeadDraft { return c.draft }

func (c *QuoteChat) Profile() Profile { return c.profile }

func (c *QuoteChat) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// SubmitText handles a typed answer, recorded trimmed but otherwise as typed.
// Blank input is ignored without feedback.
func (c *QuoteChat) SubmitText(text string) Reply {
	input := strings.TrimSpace(text)
	if input == "" {
		return c.reject()
	}
	cp := c.profile.Copy

	switch c.step {
	case StepLocation:
		mark := len(c.messages)
		c.draft.Location = input
		c.user(input)
		c.system(cp.ServicePrompt)
		c.step = StepService
		return c.accept(mark)

	case StepService:
		return c.reject()

	case StepContact:
		mark := len(c.messages)
		c.user(input)
		if c.draft.Name == "" {
			c.draft.Name = input
			c.system(cp.PhonePrompt)
			return c.accept(mark)
		}
		c.draft.Phone = input
		c.system(cp.FinalPrompt)
		c.step = StepFinal
		return c.accept(mark)

	case StepFinal:
		mark := len(c.messages)
		c.draft.FinalMessage = input
		c.user(input)
		c.finish()
		return c.accept(mark)

	case StepComplete:
		return c.reject()

	default:
		panic(fmt.Sprintf("usecase: unknown step %d", uint8(c.step)))
	}
}

// SelectService records one of the profile's services. Anything outside
// that list is rejected.
func (c *QuoteChat) SelectService(name string) Reply {
	if c.step != StepService || !c.profile.hasService(name) {
		return c.reject()
	}
	mark := len(c.messages)
	c.draft.Service = name
	c.user(name)
	c.system(c.profile.Copy.ServiceAck)
	c.system(c.profile.Copy.NamePrompt)
	c.step = StepContact
	return c.accept(mark)
}

// Skip completes the chat without a final message. Only valid at the final step.
func (c *QuoteChat) Skip() Reply {
	if c.step != StepFinal {
		return c.reject()
	}
	mark := len(c.messages)
	c.user(c.profile.Copy.SkipText)
	c.finish()
	return c.accept(mark)
}

func (c *QuoteChat) finish() {
	c.system(c.profile.Copy.Done)
	c.system(c.Summary())
	c.append(c.profile.Copy.CallPrompt, domain.SenderSystem, domain.KindCallAction)
	c.step = StepComplete
}

// Summary renders the draft as the closing message.
func (c *QuoteChat) Summary() string {
	var b strings.Builder
	b.WriteString("📋 Summary:\n")
	fmt.Fprintf(&b, "📍 Location: %s\n", c.draft.Location)
	fmt.Fprintf(&b, "🔧 Service: %s\n", c.draft.Service)
	fmt.Fprintf(&b, "👤 Name: %s\n", c.draft.Name)
	fmt.Fprintf(&b, "📱 Phone: %s", c.draft.Phone)
	if c.draft.FinalMessage != "" {
		fmt.Fprintf(&b, "\n💬 Message: %s", c.draft.FinalMessage)
	}
	return b.String()
}

// CallURI is the dialer action offered once the chat is complete.
func (c *QuoteChat) CallURI() string { return c.profile.CallURI() }

// InputVisible reports whether a free-text box should be shown.
func (c *QuoteChat) InputVisible() bool { return c.step != StepComplete }

// InputEnabled is false while the visitor must pick a service button.
func (c *QuoteChat) InputEnabled() bool {
	return c.step != StepService && c.step != StepComplete
}

func (c *QuoteChat) Options() []string {
	if c.step != StepService {
		return nil
	}
	out := make([]string, len(c.profile.Services))
	copy(out, c.profile.Services)
	return out
}

func (c *QuoteChat) CanSkip() bool { return c.step == StepFinal }

func (c *QuoteChat) Placeholder() string {
	cp := c.profile.Copy
	switch c.step {
	case StepLocation:
		return cp.LocationPlaceholder
	case StepContact:
		if c.draft.Name == "" {
			return cp.NamePlaceholder
		}
		return cp.PhonePlaceholder
	case StepFinal:
		return cp.FinalPlaceholder
	case StepService, StepComplete:
		return cp.DefaultPlaceholder
	default:
		panic(fmt.Sprintf("usecase: unknown step %d", uint8(c.step)))
	}
}

// Stage is one entry of the four-part progress indicator.
type Stage struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Progress reports the active stage number and the state of every stage.
func (c *QuoteChat) Progress() (int, []Stage) {
	var current int
	switch c.step {
	case StepLocation:
		current = 1
	case StepService:
		current = 2
	case StepContact:
		current = 3
	case StepFinal, StepComplete:
		current = 4
	default:
		panic(fmt.Sprintf("usecase: unknown step %d", uint8(c.step)))
	}
	return current, []Stage{
		{Number: 1, Title: "Location", Description: "Where are you?", Completed: c.draft.Location != ""},
		{Number: 2, Title: "Service", Description: "What do you need?", Completed: c.draft.Service != ""},
		{Number: 3, Title: "Contact", Description: "Your details", Completed: c.draft.Phone != ""},
		{Number: 4, Title: "Complete", Description: "Get your quote", Completed: c.step == StepComplete},
	}
}

func (c *QuoteChat) user(text string) {
	c.append(text, domain.SenderUser, domain.KindText)
}

func (c *QuoteChat) system(text string) {
	c.append(text, domain.SenderSystem, domain.KindText)
}

func (c *QuoteChat) append(text string, from domain.Sender, kind domain.MessageKind) {
	c.messages = append(c.messages, domain.ChatMessage{
		ID:     len(c.messages) + 1,
		Text:   text,
		Sender: from,
		Kind:   kind,
	})
}

func (c *QuoteChat) accept(mark int) Reply {
	r := c.view()
	r.Accepted = true
	r.Messages = make([]domain.ChatMessage, len(c.messages)-mark)
	copy(r.Messages, c.messages[mark:])
	return r
}

func (c *QuoteChat) reject() Reply {
	return c.view()
}

func (c *QuoteChat) view() Reply {
	return Reply{
		Step:      c.step,
		Options:   c.Options(),
		ShowInput: c.InputVisible(),
		CanSkip:   c.CanSkip(),
	}
}
