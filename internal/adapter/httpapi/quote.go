package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cos71n/pipe-relining-pros/internal/domain"
	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

// SessionView is everything the widget needs to redraw itself.
type SessionView struct {
	ID           string               `json:"id"`
	Accepted     bool                 `json:"accepted"`
	Open         bool                 `json:"open"`
	Step         usecase.Step         `json:"step"`
	Messages     []domain.ChatMessage `json:"messages"`
	Options      []string             `json:"options,omitempty"`
	InputVisible bool                 `json:"input_visible"`
	InputEnabled bool                 `json:"input_enabled"`
	CanSkip      bool                 `json:"can_skip"`
	Placeholder  string               `json:"placeholder,omitempty"`
	CurrentStage int                  `json:"current_stage"`
	Stages       []usecase.Stage      `json:"stages"`
	Summary      string               `json:"summary,omitempty"`
	CallURI      string               `json:"call_uri,omitempty"`
}

type QuoteHandler struct {
	panels *usecase.PanelStore
	funnel *usecase.FunnelUsecase
	logger *slog.Logger
}

func NewQuoteHandler(panels *usecase.PanelStore, funnel *usecase.FunnelUsecase, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{panels: panels, funnel: funnel, logger: logger}
}

type submitTextReq struct {
	Text string `json:"text"`
}

type selectServiceReq struct {
	Service string `json:"service"`
}

func viewOf(id string, p *usecase.Panel, accepted bool) SessionView {
	chat := p.Chat()
	current, stages := chat.Progress()
	v := SessionView{
		ID:           id,
		Accepted:     accepted,
		Open:         p.IsOpen(),
		Step:         chat.Step(),
		Messages:     chat.Messages(),
		Options:      chat.Options(),
		InputVisible: chat.InputVisible(),
		InputEnabled: chat.InputEnabled(),
		CanSkip:      chat.CanSkip(),
		Placeholder:  chat.Placeholder(),
		CurrentStage: current,
		Stages:       stages,
	}
	if chat.Step() == usecase.StepComplete {
		v.Summary = chat.Summary()
		v.CallURI = chat.CallURI()
		v.Placeholder = ""
	}
	return v
}

// POST /api/quote/sessions
func (h *QuoteHandler) Open(c *gin.Context) {
	id := uuid.NewString()
	var view SessionView
	h.panels.Open(id, func(p *usecase.Panel) {
		view = viewOf(id, p, true)
	})
	h.track(id, usecase.StepLocation)
	if h.logger != nil {
		h.logger.Info("quote chat opened", "session_id", id)
	}
	c.JSON(http.StatusCreated, view)
}

// GET /api/quote/sessions/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	var view SessionView
	err := h.panels.Do(id, func(p *usecase.Panel) error {
		view = viewOf(id, p, true)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, view)
}

// POST /api/quote/sessions/:id/messages
func (h *QuoteHandler) SubmitText(c *gin.Context) {
	var req submitTextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.act(c, func(p *usecase.Panel) (usecase.Reply, error) {
		return p.SubmitText(req.Text)
	})
}

// POST /api/quote/sessions/:id/service
func (h *QuoteHandler) SelectService(c *gin.Context) {
	var req selectServiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.act(c, func(p *usecase.Panel) (usecase.Reply, error) {
		return p.SelectService(req.Service)
	})
}

// POST /api/quote/sessions/:id/skip
func (h *QuoteHandler) Skip(c *gin.Context) {
	h.act(c, func(p *usecase.Panel) (usecase.Reply, error) {
		return p.Skip()
	})
}

// DELETE /api/quote/sessions/:id
func (h *QuoteHandler) Close(c *gin.Context) {
	if err := h.panels.Close(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// act applies one visitor action. A rejected action is not an error: the
// widget gets the unchanged view with accepted=false.
func (h *QuoteHandler) act(c *gin.Context, fn func(*usecase.Panel) (usecase.Reply, error)) {
	id := c.Param("id")
	var view SessionView
	var reply usecase.Reply
	err := h.panels.Do(id, func(p *usecase.Panel) error {
		var err error
		reply, err = fn(p)
		if err != nil {
			return err
		}
		view = viewOf(id, p, reply.Accepted)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if reply.Accepted {
		h.track(id, reply.Step)
		if reply.Step == usecase.StepComplete && h.logger != nil {
			h.logger.Info("quote chat completed", "session_id", id)
		}
	}
	respondOK(c, view)
}

func (h *QuoteHandler) track(id string, step usecase.Step) {
	if h.funnel == nil {
		return
	}
	if err := h.funnel.Reach("web:"+id, step); err != nil && h.logger != nil {
		h.logger.Warn("funnel hit failed", "session_id", id, "step", step.String(), "error", err)
	}
}

func (h *QuoteHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, usecase.ErrPanelClosed):
		respondError(c, http.StatusConflict, "session_closed", err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}
