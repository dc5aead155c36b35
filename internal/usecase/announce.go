package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Audience picks which Telegram chats an announcement goes to, based on how
// far each chat got through the quote chat.
type Audience uint8

const (
	AudienceEveryone Audience = iota
	AudienceUnfinished
	AudienceCompleted
)

var Audiences = []Audience{AudienceEveryone, AudienceUnfinished, AudienceCompleted}

func (a Audience) String() string {
	switch a {
	case AudienceEveryone:
		return "everyone"
	case AudienceUnfinished:
		return "unfinished"
	case AudienceCompleted:
		return "completed"
	default:
		panic(fmt.Sprintf("usecase: unknown audience %d", uint8(a)))
	}
}

// Label is the button text shown to admins.
func (a Audience) Label() string {
	switch a {
	case AudienceEveryone:
		return "Everyone"
	case AudienceUnfinished:
		return "Started, not finished"
	case AudienceCompleted:
		return "Finished a quote"
	default:
		panic(fmt.Sprintf("usecase: unknown audience %d", uint8(a)))
	}
}

func ParseAudience(v string) (Audience, bool) {
	for _, a := range Audiences {
		if a.String() == v {
			return a, true
		}
	}
	return 0, false
}

func audienceByLabel(label string) (Audience, bool) {
	for _, a := range Audiences {
		if a.Label() == label {
			return a, true
		}
	}
	return 0, false
}

type AnnounceState uint8

const (
	AnnounceIdle AnnounceState = iota
	AnnouncePickAudience
	AnnounceCompose
	AnnounceConfirm
)

const (
	AnnounceSend   = "Send"
	AnnounceCancel = "Cancel"
)

var ErrEmptyAnnouncement = errors.New("announcement text is empty")

// Announcement is one admin's draft, kept between their messages.
type Announcement struct {
	State    AnnounceState
	Audience Audience
	Text     string
	PhotoID  string
	Caption  string
}

func (a *Announcement) clear() {
	*a = Announcement{}
}

// ChatDirectory lists every chat that has talked to the bot, oldest first.
type ChatDirectory interface {
	ListChatIDs() ([]int64, error)
}

type AnnounceSender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID string, caption string) error
}

// AnnounceReport is the outcome of one sent announcement.
type AnnounceReport struct {
	Audience  Audience
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type AnnounceReportRepository interface {
	Save(r AnnounceReport) error
	ListRecent(n int) ([]AnnounceReport, error)
}

// ChatResolver maps a funnel conversation key back to a Telegram chat id.
// Keys from other channels (the website widget) resolve to false.
type ChatResolver func(key string) (int64, bool)

// AnnounceUsecase lets admins send a seasonal special or a closure notice to
// every chat, or only to chats that stalled or finished the quote chat.
type AnnounceUsecase struct {
	chats   ChatDirectory
	funnel  FunnelRepository
	chatOf  ChatResolver
	sender  AnnounceSender
	reports AnnounceReportRepository
}

func NewAnnounceUsecase(chats ChatDirectory, funnel FunnelRepository, chatOf ChatResolver, sender AnnounceSender, reports AnnounceReportRepository) *AnnounceUsecase {
	return &AnnounceUsecase{chats: chats, funnel: funnel, chatOf: chatOf, sender: sender, reports: reports}
}

// Begin starts a new draft and asks who it is for.
func (u *AnnounceUsecase) Begin(a *Announcement) (string, []string) {
	a.clear()
	a.State = AnnouncePickAudience
	var b strings.Builder
	b.WriteString("Who should get the announcement?\n")
	opts := make([]string, 0, len(Audiences)+1)
	for _, aud := range Audiences {
		n := "?"
		if ids, err := u.Recipients(aud); err == nil {
			n = fmt.Sprint(len(ids))
		}
		fmt.Fprintf(&b, "- %s: %s chats\n", aud.Label(), n)
		opts = append(opts, aud.Label())
	}
	return b.String(), append(opts, AnnounceCancel)
}

func (u *AnnounceUsecase) PickAudience(a *Announcement, label string) (string, []string) {
	if label == AnnounceCancel {
		a.clear()
		return "Announcement cancelled.", nil
	}
	aud, ok := audienceByLabel(label)
	if !ok {
		return "Pick one of the audiences.", u.audienceOptions()
	}
	a.Audience = aud
	a.State = AnnounceCompose
	return fmt.Sprintf("Send the text for %q, or a photo with a caption.", aud.Label()), []string{AnnounceCancel}
}

func (u *AnnounceUsecase) Compose(a *Announcement, text string) (string, []string, error) {
	if text == AnnounceCancel {
		a.clear()
		return "Announcement cancelled.", nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return "The announcement can't be empty. Send the text:", []string{AnnounceCancel}, ErrEmptyAnnouncement
	}
	a.Text, a.PhotoID, a.Caption = text, "", ""
	a.State = AnnounceConfirm
	return u.confirmPrompt(a), []string{AnnounceSend, AnnounceCancel}, nil
}

func (u *AnnounceUsecase) ComposePhoto(a *Announcement, fileID, caption string) (string, []string) {
	if strings.TrimSpace(fileID) == "" {
		return "Couldn't read the image. Send the photo again.", []string{AnnounceCancel}
	}
	a.Text, a.PhotoID, a.Caption = "", fileID, caption
	a.State = AnnounceConfirm
	return u.confirmPrompt(a), []string{AnnounceSend, AnnounceCancel}
}

func (u *AnnounceUsecase) confirmPrompt(a *Announcement) string {
	kind := "text"
	if a.PhotoID != "" {
		kind = "photo"
	}
	return fmt.Sprintf("Send this %s to %q?", kind, a.Audience.Label())
}

// Confirm sends the draft on AnnounceSend. Recipients are resolved at send
// time so chats that finished in the meantime are not nagged.
func (u *AnnounceUsecase) Confirm(a *Announcement, cmd string) (string, error) {
	switch cmd {
	case AnnounceCancel:
		a.clear()
		return "Announcement cancelled.", nil
	case AnnounceSend:
	default:
		return "Choose: Send or Cancel", nil
	}
	ids, err := u.Recipients(a.Audience)
	if err != nil {
		return "Couldn't load the chat list", err
	}
	report := AnnounceReport{Audience: a.Audience, Total: len(ids)}
	for _, id := range ids {
		var sendErr error
		if a.PhotoID != "" {
			sendErr = u.sender.SendPhoto(id, a.PhotoID, a.Caption)
		} else {
			sendErr = u.sender.SendText(id, a.Text)
		}
		if sendErr != nil {
			report.Failed++
			continue
		}
		report.Sent++
	}
	a.clear()
	msg := fmt.Sprintf("Announcement sent to %q: %d delivered, %d failed.", report.Audience.Label(), report.Sent, report.Failed)
	if err := u.reports.Save(report); err != nil {
		return msg, fmt.Errorf("save announce report: %w", err)
	}
	return msg, nil
}

// Recipients lists the chat ids in aud, in first-contact order. Admins are
// never in the chat directory, so they never receive their own announcements.
func (u *AnnounceUsecase) Recipients(aud Audience) ([]int64, error) {
	ids, err := u.chats.ListChatIDs()
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	switch aud {
	case AudienceEveryone:
		return ids, nil
	case AudienceUnfinished:
		started, err := u.reached(StepLocation)
		if err != nil {
			return nil, err
		}
		done, err := u.reached(StepComplete)
		if err != nil {
			return nil, err
		}
		return filterChats(ids, func(id int64) bool { return started[id] && !done[id] }), nil
	case AudienceCompleted:
		done, err := u.reached(StepComplete)
		if err != nil {
			return nil, err
		}
		return filterChats(ids, func(id int64) bool { return done[id] }), nil
	default:
		panic(fmt.Sprintf("usecase: unknown audience %d", uint8(aud)))
	}
}

func (u *AnnounceUsecase) reached(step Step) (map[int64]bool, error) {
	keys, err := u.funnel.Keys(step)
	if err != nil {
		return nil, fmt.Errorf("funnel keys for %s: %w", step, err)
	}
	out := make(map[int64]bool, len(keys))
	for _, k := range keys {
		if id, ok := u.chatOf(k); ok {
			out[id] = true
		}
	}
	return out, nil
}

func (u *AnnounceUsecase) audienceOptions() []string {
	opts := make([]string, 0, len(Audiences)+1)
	for _, aud := range Audiences {
		opts = append(opts, aud.Label())
	}
	return append(opts, AnnounceCancel)
}

func filterChats(ids []int64, keep func(int64) bool) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

// ReportSummary lists the last n announcements, newest first.
func (u *AnnounceUsecase) ReportSummary(n int) string {
	reports, err := u.reports.ListRecent(n)
	if err != nil || len(reports) == 0 {
		return "No announcements sent yet"
	}
	var b strings.Builder
	b.WriteString("Recent announcements:\n")
	for i, r := range reports {
		fmt.Fprintf(&b, "%d) %s to %s: %d chats, %d delivered, %d failed\n",
			i+1, r.CreatedAt.Format("2006-01-02 15:04"), r.Audience.Label(), r.Total, r.Sent, r.Failed)
	}
	return b.String()
}
