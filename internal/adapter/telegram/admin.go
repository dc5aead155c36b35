package telegram

import (
	"bytes"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

func (h *Handler) openAdminMenu(chatID int64) {
	if !h.isAdmin(chatID) {
		h.sendText(chatID, "Access denied")
		if h.logger != nil {
			h.logger.Warn("admin denied", "chat_id", chatID)
		}
		return
	}
	h.sendWithKeyboard(chatID, "Admin menu", inlineKeyboard([][2]string{
		{adminAnnounce, adminAnnounce},
		{adminReports, adminReports},
		{adminFunnel, adminFunnel},
	}))
	if h.logger != nil {
		h.logger.Info("admin opened menu", "chat_id", chatID)
	}
}

// handleAdmin reports whether text was consumed by the admin flows. Anything
// else falls through to the quote chat so admins can try it themselves.
func (h *Handler) handleAdmin(chatID int64, text string, m *tgbotapi.Message) bool {
	switch text {
	case adminAnnounce:
		msg, opts := h.announce.Begin(h.draft(chatID))
		h.sendWithKeyboard(chatID, msg, optionsKeyboard(opts))
		if h.logger != nil {
			h.logger.Info("announcement started", "chat_id", chatID)
		}
		return true
	case adminReports:
		h.sendText(chatID, h.announce.ReportSummary(5))
		return true
	case adminFunnel:
		if h.funnel == nil {
			h.sendText(chatID, "Funnel is not available")
			return true
		}
		labels, values := h.funnel.GraphData()
		if err := h.sendFunnelChart(chatID, labels, values); err != nil {
			if h.logger != nil {
				h.logger.Error("funnel chart failed", "error", err)
			}
			h.sendText(chatID, h.funnel.Chart())
		}
		return true
	}

	a := h.drafts[chatID]
	if a == nil {
		return false
	}
	switch a.State {
	case usecase.AnnouncePickAudience:
		msg, opts := h.announce.PickAudience(a, text)
		h.sendWithKeyboard(chatID, msg, optionsKeyboard(opts))
		return true
	case usecase.AnnounceCompose:
		var msg string
		var opts []string
		if m != nil && len(m.Photo) > 0 {
			ph := m.Photo[len(m.Photo)-1]
			msg, opts = h.announce.ComposePhoto(a, ph.FileID, m.Caption)
		} else {
			msg, opts, _ = h.announce.Compose(a, text)
		}
		h.sendWithKeyboard(chatID, msg, optionsKeyboard(opts))
		return true
	case usecase.AnnounceConfirm:
		audience := a.Audience
		msg, err := h.announce.Confirm(a, text)
		if err != nil && h.logger != nil {
			h.logger.Error("announcement failed", "chat_id", chatID, "audience", audience.String(), "error", err)
		}
		h.sendText(chatID, msg)
		if a.State == usecase.AnnounceIdle && h.logger != nil {
			h.logger.Info("announcement finished", "chat_id", chatID, "audience", audience.String())
		}
		return true
	}
	return false
}

func (h *Handler) draft(chatID int64) *usecase.Announcement {
	if a, ok := h.drafts[chatID]; ok {
		return a
	}
	a := &usecase.Announcement{}
	h.drafts[chatID] = a
	return a
}

func optionsKeyboard(opts []string) interface{} {
	if len(opts) == 0 {
		return nil
	}
	buttons := make([][2]string, 0, len(opts))
	for _, o := range opts {
		buttons = append(buttons, [2]string{o, o})
	}
	return inlineKeyboard(buttons)
}

func (h *Handler) sendFunnelChart(chatID int64, labels []string, values []int) error {
	png, err := renderFunnelPNG(labels, values)
	if err != nil {
		return err
	}
	fname := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: png})
	_, err = h.bot.Send(photo)
	return err
}

func renderFunnelPNG(labels []string, values []int) ([]byte, error) {
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// an all-zero range makes go-chart fail with "invalid data range"
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1000,
		Height:   600,
		BarWidth: 64,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
