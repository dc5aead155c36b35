package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cos71n/pipe-relining-pros/internal/domain"
	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

const (
	OpenQuoteBtn = "Get Quick Quote"
	SkipBtn      = "Skip"

	cmdStart  = "/start"
	cmdCancel = "/cancel"
	cmdAdmin  = "/admin"

	adminAnnounce = "Send announcement"
	adminReports  = "Announcement reports"
	adminFunnel   = "Funnel"

	callbackService = "svc:"
	callbackSkip    = "skip"
)

// BotAPI is the part of tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Handler struct {
	bot      BotAPI
	panels   *usecase.PanelStore
	profile  usecase.Profile
	userRepo domain.UserRepository
	announce *usecase.AnnounceUsecase
	adminIDs map[int64]struct{}

	drafts map[int64]*usecase.Announcement
	funnel *usecase.FunnelUsecase
	logger *slog.Logger
}

func NewHandler(bot BotAPI, panels *usecase.PanelStore, profile usecase.Profile, userRepo domain.UserRepository, announce *usecase.AnnounceUsecase, adminIDs map[int64]struct{}, funnel *usecase.FunnelUsecase, logger *slog.Logger) *Handler {
	return &Handler{
		bot:      bot,
		panels:   panels,
		profile:  profile,
		userRepo: userRepo,
		announce: announce,
		adminIDs: adminIDs,
		drafts:   make(map[int64]*usecase.Announcement),
		funnel:   funnel,
		logger:   logger,
	}
}

// trackFunnel keeps nil checks out of the update loop
func (h *Handler) trackFunnel(chatID int64, step usecase.Step) {
	if h.funnel == nil {
		return
	}
	if err := h.funnel.Reach(panelKey(chatID), step); err != nil && h.logger != nil {
		h.logger.Warn("funnel hit failed", "chat_id", chatID, "step", step.String(), "error", err)
	}
}

const keyPrefix = "tg:"

func panelKey(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// ChatIDFromKey reverses panelKey. Keys of other channels report false.
func ChatIDFromKey(key string) (int64, bool) {
	raw, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Run long-polls Telegram until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(update)
		}
	}
}

// HandleUpdate processes one Telegram update.
func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	var chatID int64
	var text string
	var callback bool
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		text = update.Message.Text
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
		text = update.CallbackQuery.Data
		callback = true
		_, _ = h.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, ""))
	default:
		return
	}

	// admins are not announcement recipients
	if !h.isAdmin(chatID) {
		if err := h.userRepo.SaveUser(chatID); err != nil && h.logger != nil {
			h.logger.Error("save user failed", "chat_id", chatID, "error", err)
		}
	}

	if text == cmdAdmin {
		h.openAdminMenu(chatID)
		return
	}
	if h.isAdmin(chatID) && h.handleAdmin(chatID, text, update.Message) {
		return
	}
	h.handleQuote(chatID, text, callback)
}

func (h *Handler) handleQuote(chatID int64, text string, callback bool) {
	key := panelKey(chatID)
	switch {
	case text == cmdStart || text == OpenQuoteBtn:
		var msgs []domain.ChatMessage
		h.panels.Open(key, func(p *usecase.Panel) {
			msgs = p.Chat().Messages()
		})
		h.trackFunnel(chatID, usecase.StepLocation)
		h.sendMessages(chatID, usecase.Reply{Step: usecase.StepLocation, Messages: msgs, ShowInput: true})
		if h.logger != nil {
			h.logger.Info("quote chat opened", "chat_id", chatID)
		}
		return
	case text == cmdCancel:
		if err := h.panels.Close(key); err == nil && h.logger != nil {
			h.logger.Info("quote chat closed", "chat_id", chatID)
		}
		h.sendWithKeyboard(chatID, "Chat closed. Tap the button whenever you want a quote.", openQuoteKeyboard())
		return
	}

	var reply usecase.Reply
	err := h.panels.Do(key, func(p *usecase.Panel) error {
		var err error
		switch {
		case callback && text == callbackSkip:
			reply, err = p.Skip()
		case callback && strings.HasPrefix(text, callbackService):
			reply, err = p.SelectService(serviceByIndex(p.Chat().Profile(), strings.TrimPrefix(text, callbackService)))
		case callback:
			reply = usecase.Reply{Step: p.Chat().Step()}
		default:
			reply, err = p.SubmitText(text)
		}
		return err
	})
	if errors.Is(err, usecase.ErrSessionNotFound) || errors.Is(err, usecase.ErrPanelClosed) {
		h.sendWithKeyboard(chatID, "Tap the button to get a quick quote from "+h.profile.BusinessName+".", openQuoteKeyboard())
		return
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Error("quote chat action failed", "chat_id", chatID, "error", err)
		}
		return
	}
	if !reply.Accepted {
		return
	}
	h.trackFunnel(chatID, reply.Step)
	h.sendMessages(chatID, reply)
	if reply.Step == usecase.StepComplete && h.logger != nil {
		h.logger.Info("quote chat completed", "chat_id", chatID)
	}
}

func serviceByIndex(p usecase.Profile, raw string) string {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(p.Services) {
		return ""
	}
	return p.Services[i]
}

// sendMessages relays the system side of a reply. The visitor's own text is
// already visible in their chat.
func (h *Handler) sendMessages(chatID int64, r usecase.Reply) {
	var system []domain.ChatMessage
	for _, m := range r.Messages {
		if m.Sender == domain.SenderSystem {
			system = append(system, m)
		}
	}
	for i, m := range system {
		last := i == len(system)-1
		if m.Kind == domain.KindCallAction {
			h.sendCallAction(chatID, m.Text)
			continue
		}
		var markup interface{}
		switch {
		case last && len(r.Options) > 0:
			markup = serviceKeyboard(r.Options)
		case last && r.CanSkip:
			markup = inlineKeyboard([][2]string{{SkipBtn, callbackSkip}})
		case i == 0:
			markup = tgbotapi.NewRemoveKeyboard(true)
		}
		h.sendWithKeyboard(chatID, m.Text, markup)
	}
}

// sendCallAction offers the business number as a contact card, which
// Telegram lets the visitor dial with one tap. tel: links are not allowed
// on inline buttons.
func (h *Handler) sendCallAction(chatID int64, prompt string) {
	h.sendText(chatID, prompt+"\n"+h.profile.Phone+"\n"+h.profile.CallURI())
	contact := tgbotapi.NewContact(chatID, h.profile.Phone, h.profile.BusinessName)
	if _, err := h.bot.Send(contact); err != nil && h.logger != nil {
		h.logger.Error("send contact failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) isAdmin(chatID int64) bool {
	if len(h.adminIDs) == 0 {
		return false
	}
	_, ok := h.adminIDs[chatID]
	return ok
}

func (h *Handler) sendText(chatID int64, text string) {
	h.sendWithKeyboard(chatID, text, nil)
}

func (h *Handler) sendWithKeyboard(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := h.bot.Send(msg); err != nil && h.logger != nil {
		h.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func openQuoteKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(OpenQuoteBtn)))
	kb.ResizeKeyboard = true
	return kb
}

func serviceKeyboard(services []string) tgbotapi.InlineKeyboardMarkup {
	buttons := make([][2]string, 0, len(services))
	for i, s := range services {
		buttons = append(buttons, [2]string{s, callbackService + strconv.Itoa(i)})
	}
	return inlineKeyboard(buttons)
}

// inlineKeyboard builds one button per row from {label, data} pairs.
func inlineKeyboard(buttons [][2]string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b[0], b[1]),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Sender delivers announcements.
type Sender struct{ bot BotAPI }

func NewSender(bot BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) SendPhoto(chatID int64, fileID string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.bot.Send(photo)
	return err
}
