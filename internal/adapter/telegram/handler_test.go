package telegram

import (
	"bytes"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cos71n/pipe-relining-pros/internal/infra/memory"
	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) texts() []string {
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) reset() { b.sent = nil }

const (
	customerID = int64(42)
	adminID    = int64(7)
)

type fixture struct {
	bot    *fakeBot
	h      *Handler
	users  *memory.UserRepo
	funnel *memory.FunnelRepo
}

func newFixture() fixture {
	bot := &fakeBot{}
	profile := usecase.DefaultProfile()
	users := memory.NewUserRepo()
	funnelRepo := memory.NewFunnelRepo()
	announce := usecase.NewAnnounceUsecase(users, funnelRepo, ChatIDFromKey, NewSender(bot), memory.NewAnnounceReportRepo())
	h := NewHandler(bot, usecase.NewPanelStore(profile), profile, users, announce,
		map[int64]struct{}{adminID: {}}, usecase.NewFunnelUsecase(funnelRepo), nil)
	return fixture{bot: bot, h: h, users: users, funnel: funnelRepo}
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestQuoteChatOverTelegram(t *testing.T) {
	f := newFixture()
	copyText := usecase.DefaultCopy()

	f.h.HandleUpdate(textUpdate(customerID, cmdStart))
	texts := f.bot.texts()
	if len(texts) != 2 || texts[0] != copyText.Greeting || texts[1] != copyText.LocationPrompt {
		t.Fatalf("opening messages = %q", texts)
	}
	if _, ok := f.bot.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Fatalf("first message should remove the reply keyboard")
	}

	f.bot.reset()
	f.h.HandleUpdate(textUpdate(customerID, "   "))
	if len(f.bot.sent) != 0 {
		t.Fatalf("blank text produced %d messages", len(f.bot.sent))
	}

	f.h.HandleUpdate(textUpdate(customerID, "Burleigh Heads"))
	last := f.bot.sent[len(f.bot.sent)-1].(tgbotapi.MessageConfig)
	kb, ok := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != len(usecase.DefaultServices()) {
		t.Fatalf("service keyboard missing: %#v", last.ReplyMarkup)
	}

	f.h.HandleUpdate(callbackUpdate(customerID, callbackService+"3"))
	if len(f.bot.requests) == 0 {
		t.Fatalf("callback was not answered")
	}
	f.h.HandleUpdate(textUpdate(customerID, "Jane Doe"))
	f.h.HandleUpdate(textUpdate(customerID, "0400 000 000"))
	last = f.bot.sent[len(f.bot.sent)-1].(tgbotapi.MessageConfig)
	kb, ok = last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || kb.InlineKeyboard[0][0].Text != SkipBtn {
		t.Fatalf("final step should offer skip: %#v", last.ReplyMarkup)
	}

	f.bot.reset()
	f.h.HandleUpdate(callbackUpdate(customerID, callbackSkip))
	var summary string
	var contact *tgbotapi.ContactConfig
	for _, c := range f.bot.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if strings.HasPrefix(m.Text, "📋 Summary:") {
				summary = m.Text
			}
		case tgbotapi.ContactConfig:
			contact = &m
		}
	}
	if !strings.Contains(summary, "🔧 Service: "+usecase.ServiceBattery) || !strings.Contains(summary, "👤 Name: Jane Doe") {
		t.Fatalf("summary = %q", summary)
	}
	if contact == nil || contact.PhoneNumber != usecase.DefaultPhone {
		t.Fatalf("contact card = %#v", contact)
	}

	f.bot.reset()
	f.h.HandleUpdate(textUpdate(customerID, "anything else"))
	if len(f.bot.sent) != 0 {
		t.Fatalf("completed chat accepted more input: %q", f.bot.texts())
	}

	counts := f.funnel.Counts()
	for _, s := range usecase.Steps {
		if counts[s] != 1 {
			t.Fatalf("funnel %s = %d, want 1", s, counts[s])
		}
	}
	ids, _ := f.users.ListChatIDs()
	if len(ids) != 1 || ids[0] != customerID {
		t.Fatalf("users = %v", ids)
	}
}

func TestMessageWithoutChatPromptsToOpen(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(textUpdate(customerID, "hello"))
	texts := f.bot.texts()
	if len(texts) != 1 || !strings.Contains(texts[0], usecase.DefaultBusinessName) {
		t.Fatalf("prompt = %q", texts)
	}
	if _, ok := f.bot.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatalf("prompt should carry the open button")
	}
}

func TestCancelClosesChat(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(textUpdate(customerID, OpenQuoteBtn))
	f.h.HandleUpdate(textUpdate(customerID, cmdCancel))
	f.bot.reset()
	f.h.HandleUpdate(textUpdate(customerID, "Burleigh"))
	texts := f.bot.texts()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "Tap the button") {
		t.Fatalf("after cancel = %q", texts)
	}
}

func TestAdminMenuAccess(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(textUpdate(customerID, cmdAdmin))
	if texts := f.bot.texts(); len(texts) != 1 || texts[0] != "Access denied" {
		t.Fatalf("non-admin = %q", texts)
	}

	f.bot.reset()
	f.h.HandleUpdate(textUpdate(adminID, cmdAdmin))
	if texts := f.bot.texts(); len(texts) != 1 || texts[0] != "Admin menu" {
		t.Fatalf("admin = %q", texts)
	}
	if ids, _ := f.users.ListChatIDs(); len(ids) != 1 || ids[0] != customerID {
		t.Fatalf("admin should not be saved as customer: %v", ids)
	}
}

func (f fixture) completeQuote(chatID int64) {
	f.h.HandleUpdate(textUpdate(chatID, cmdStart))
	f.h.HandleUpdate(textUpdate(chatID, "Tweed Heads"))
	f.h.HandleUpdate(callbackUpdate(chatID, callbackService+"0"))
	f.h.HandleUpdate(textUpdate(chatID, "Sam"))
	f.h.HandleUpdate(textUpdate(chatID, "0411 111 111"))
	f.h.HandleUpdate(callbackUpdate(chatID, callbackSkip))
}

func TestAnnouncementToUnfinishedChats(t *testing.T) {
	f := newFixture()
	const finisherID = int64(43)
	f.h.HandleUpdate(textUpdate(customerID, cmdStart))
	f.completeQuote(finisherID)
	f.completeQuote(adminID)

	f.h.HandleUpdate(callbackUpdate(adminID, adminAnnounce))
	f.h.HandleUpdate(callbackUpdate(adminID, usecase.AudienceUnfinished.Label()))
	f.h.HandleUpdate(textUpdate(adminID, "Still keen on that car check?"))
	f.bot.reset()
	f.h.HandleUpdate(callbackUpdate(adminID, usecase.AnnounceSend))

	got := map[int64][]string{}
	for _, c := range f.bot.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			got[m.ChatID] = append(got[m.ChatID], m.Text)
		}
	}
	if len(got[customerID]) != 1 || got[customerID][0] != "Still keen on that car check?" {
		t.Fatalf("unfinished chat got %q", got[customerID])
	}
	if len(got[finisherID]) != 0 {
		t.Fatalf("finished chat was messaged: %q", got[finisherID])
	}
	want := `Announcement sent to "Started, not finished": 1 delivered, 0 failed.`
	if len(got[adminID]) != 1 || got[adminID][0] != want {
		t.Fatalf("admin report = %q", got[adminID])
	}

	f.bot.reset()
	f.h.HandleUpdate(textUpdate(adminID, adminReports))
	if texts := f.bot.texts(); len(texts) != 1 || !strings.Contains(texts[0], "to Started, not finished: 1 chats") {
		t.Fatalf("reports = %q", texts)
	}
}

func TestAnnouncementPhotoToEveryone(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(textUpdate(customerID, cmdStart))
	f.h.HandleUpdate(callbackUpdate(adminID, adminAnnounce))
	f.h.HandleUpdate(callbackUpdate(adminID, usecase.AudienceEveryone.Label()))
	f.h.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: adminID},
		Photo:   []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
		Caption: "New van on the road",
	}})
	f.bot.reset()
	f.h.HandleUpdate(callbackUpdate(adminID, usecase.AnnounceSend))

	var photo *tgbotapi.PhotoConfig
	for _, c := range f.bot.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok && p.ChatID == customerID {
			photo = &p
		}
	}
	if photo == nil || photo.File != tgbotapi.FileID("large") || photo.Caption != "New van on the road" {
		t.Fatalf("photo = %#v", photo)
	}
}

func TestCancelledAnnouncementReturnsAdminToQuoteChat(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(callbackUpdate(adminID, adminAnnounce))
	f.h.HandleUpdate(callbackUpdate(adminID, usecase.AnnounceCancel))
	f.bot.reset()
	f.h.HandleUpdate(textUpdate(adminID, cmdStart))
	if texts := f.bot.texts(); len(texts) != 2 || texts[0] != usecase.DefaultCopy().Greeting {
		t.Fatalf("after cancel = %q", texts)
	}
}

func TestChatIDFromKey(t *testing.T) {
	if id, ok := ChatIDFromKey(panelKey(customerID)); !ok || id != customerID {
		t.Fatalf("round trip = %d, %v", id, ok)
	}
	for _, k := range []string{"web:abc", "tg:", "tg:x", ""} {
		if _, ok := ChatIDFromKey(k); ok {
			t.Fatalf("key %q resolved", k)
		}
	}
}

func TestAdminFunnelSendsChart(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(textUpdate(customerID, cmdStart))
	f.bot.reset()
	f.h.HandleUpdate(callbackUpdate(adminID, adminFunnel))
	if len(f.bot.sent) != 1 {
		t.Fatalf("sent %d items", len(f.bot.sent))
	}
	if _, ok := f.bot.sent[0].(tgbotapi.PhotoConfig); !ok {
		t.Fatalf("funnel reply = %T", f.bot.sent[0])
	}
}

func TestRenderFunnelPNG(t *testing.T) {
	png, err := renderFunnelPNG([]string{"Chat opened", "Completed"}, []int{0, 0})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("not a png")
	}
}

func TestServiceByIndex(t *testing.T) {
	p := usecase.DefaultProfile()
	if got := serviceByIndex(p, "0"); got != p.Services[0] {
		t.Fatalf("index 0 = %q", got)
	}
	for _, raw := range []string{"-1", "99", "x"} {
		if got := serviceByIndex(p, raw); got != "" {
			t.Fatalf("index %q = %q", raw, got)
		}
	}
}
