// Package http provides the REST surface of the desktop backend.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agencyrpg/backend/internal/domain/chat"
	"github.com/agencyrpg/backend/internal/domain/conduct"
	"github.com/agencyrpg/backend/internal/domain/ending"
	"github.com/agencyrpg/backend/internal/domain/ledger"
	"github.com/agencyrpg/backend/internal/domain/mail"
	"github.com/agencyrpg/backend/internal/domain/notify"
	"github.com/agencyrpg/backend/internal/domain/window"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/providers/ai"
	"github.com/agencyrpg/backend/internal/providers/catalog"
	"github.com/agencyrpg/backend/internal/shared/types"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	windows *window.Manager
	toasts  *notify.Queue
	conduct *conduct.Machine
	endings *ending.Orchestrator
	chat    *chat.Service
	mail    *mail.Service
	funds   *ledger.Ledger
	aiProxy *ai.Proxy
	catalog *catalog.Catalog
	store   persist.Store
}

// NewHandlers creates a new handler set.
func NewHandlers(
	windows *window.Manager,
	toasts *notify.Queue,
	conductMachine *conduct.Machine,
	endings *ending.Orchestrator,
	chatSvc *chat.Service,
	mailSvc *mail.Service,
	funds *ledger.Ledger,
	aiProxy *ai.Proxy,
	appCatalog *catalog.Catalog,
	store persist.Store,
) *Handlers {
	return &Handlers{
		windows: windows,
		toasts:  toasts,
		conduct: conductMachine,
		endings: endings,
		chat:    chatSvc,
		mail:    mailSvc,
		funds:   funds,
		aiProxy: aiProxy,
		catalog: appCatalog,
		store:   store,
	}
}

// Root handles the basic liveness check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Agency Desktop Backend",
		"version": "1.0.0",
	})
}

// Health handles the detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	wins, active := h.windows.List()
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"windows_open":  len(wins),
		"active_window": active,
		"warning_level": h.conduct.Snapshot().WarningLevel,
		"is_ending":     h.endings.Snapshot().IsEnding,
		"funds":         h.funds.Funds(),
	})
}

// ---------------------------------------------------------------------------
// Windows

type openWindowRequest struct {
	AppID    string          `json:"app_id" binding:"required"`
	Title    string          `json:"title"`
	Viewport *types.Viewport `json:"viewport"`
}

// ListWindows returns all windows and the active window id.
func (h *Handlers) ListWindows(c *gin.Context) {
	wins, active := h.windows.List()
	c.JSON(http.StatusOK, gin.H{
		"windows":   wins,
		"active_id": active,
	})
}

// OpenWindow always creates a new window.
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req openWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Viewport != nil {
		h.windows.SetViewport(*req.Viewport)
	}
	win := h.windows.Open(req.AppID, req.Title)
	c.JSON(http.StatusOK, gin.H{"window": win})
}

// FocusOrOpenWindow raises an existing window of the app type or opens
// a new one.
func (h *Handlers) FocusOrOpenWindow(c *gin.Context) {
	var req openWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Viewport != nil {
		h.windows.SetViewport(*req.Viewport)
	}
	win := h.windows.FocusOrOpen(req.AppID, req.Title)
	c.JSON(http.StatusOK, gin.H{"window": win})
}

// CloseWindow removes a window by id or app id.
func (h *Handlers) CloseWindow(c *gin.Context) {
	h.commandResult(c, h.windows.Close(c.Param("id")))
}

// FocusWindow brings a window to the front.
func (h *Handlers) FocusWindow(c *gin.Context) {
	h.commandResult(c, h.windows.Focus(c.Param("id")))
}

// MinimizeWindow hides a window into the taskbar.
func (h *Handlers) MinimizeWindow(c *gin.Context) {
	h.commandResult(c, h.windows.Minimize(c.Param("id")))
}

// MaximizeWindow toggles the maximized state.
func (h *Handlers) MaximizeWindow(c *gin.Context) {
	h.commandResult(c, h.windows.Maximize(c.Param("id")))
}

// RestoreWindow un-minimizes a window.
func (h *Handlers) RestoreWindow(c *gin.Context) {
	h.commandResult(c, h.windows.Restore(c.Param("id")))
}

// UpdateWindowPosition moves a window.
func (h *Handlers) UpdateWindowPosition(c *gin.Context) {
	var pos types.Position
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.commandResult(c, h.windows.UpdatePosition(c.Param("id"), pos))
}

// UpdateWindowSize resizes a window and updates the app's size memory.
func (h *Handlers) UpdateWindowSize(c *gin.Context) {
	var size types.Size
	if err := c.ShouldBindJSON(&size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.commandResult(c, h.windows.UpdateSize(c.Param("id"), size))
}

// ListApps returns the launchable app catalog.
func (h *Handlers) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": h.catalog.List()})
}

// commandResult reports a lifecycle command's outcome. Stale ids are
// not errors; the client learns "no such window" and moves on.
func (h *Handlers) commandResult(c *gin.Context, ok bool) {
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// ---------------------------------------------------------------------------
// Notifications

type pushNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Icon    string `json:"icon"`
}

// ListNotifications returns the current toasts.
func (h *Handlers) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.toasts.List()})
}

// PushNotification appends a toast.
func (h *Handlers) PushNotification(c *gin.Context) {
	var req pushNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := h.toasts.Push(req.Title, req.Message, req.Icon)
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

// RemoveNotification dismisses a toast.
func (h *Handlers) RemoveNotification(c *gin.Context) {
	h.toasts.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------------------------------------------------------------------------
// Conduct

type incidentRequest struct {
	Flag        string `json:"flag" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type lawsuitRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// GetConduct returns the conduct state and roster.
func (h *Handlers) GetConduct(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"conduct": h.conduct.Snapshot(),
		"roster":  h.conduct.Roster(),
	})
}

// ReportIncident feeds a flagged incident into the escalation ladder.
func (h *Handlers) ReportIncident(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state := h.conduct.ReportIncident(req.Flag, req.Description)
	c.JSON(http.StatusOK, gin.H{"conduct": state})
}

// ReportPositive credits the positive accumulator.
func (h *Handlers) ReportPositive(c *gin.Context) {
	state := h.conduct.ReportPositive()
	c.JSON(http.StatusOK, gin.H{"conduct": state})
}

// ResolveLawsuit ingests the litigation mini-game's outcome.
func (h *Handlers) ResolveLawsuit(c *gin.Context) {
	var req lawsuitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state := h.conduct.ResolveLawsuit(req.Outcome)
	c.JSON(http.StatusOK, gin.H{"conduct": state})
}

// CompleteTraining records that the training mini-app finished.
func (h *Handlers) CompleteTraining(c *gin.Context) {
	h.conduct.CompleteTraining()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------------------------------------------------------------------------
// Ending

type startEndingRequest struct {
	Type string `json:"type" binding:"required"`
}

type acquisitionRequest struct {
	State     string `json:"state" binding:"required"`
	Campaigns int    `json:"campaigns"`
}

// GetEnding returns ending state and the current phase, if any.
func (h *Handlers) GetEnding(c *gin.Context) {
	resp := gin.H{"ending": h.endings.Snapshot()}
	if phase, ok := h.endings.Current(); ok {
		resp["current_phase"] = phase
	}
	c.JSON(http.StatusOK, resp)
}

// StartEnding begins an ending sequence.
func (h *Handlers) StartEnding(c *gin.Context) {
	var req startEndingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.endings.Start(ending.Type(req.Type)); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ending.ErrAlreadyEnding) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.GetEnding(c)
}

// AdvanceEnding steps to the next phase.
func (h *Handlers) AdvanceEnding(c *gin.Context) {
	h.endings.Advance()
	h.GetEnding(c)
}

// AdvanceAcquisition moves the acquisition branch forward.
func (h *Handlers) AdvanceAcquisition(c *gin.Context) {
	var req acquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next := ending.AcquisitionState(req.State)
	var err error
	if next == ending.AcquisitionRejected {
		err = h.endings.RecordRejection(req.Campaigns)
	} else {
		err = h.endings.AdvanceAcquisition(next)
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ending": h.endings.Snapshot()})
}

// ---------------------------------------------------------------------------
// Chat, mail, funds

// GetTranscript returns delivered chat messages, optionally by channel.
func (h *Handlers) GetTranscript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages": h.chat.Transcript(c.Query("channel")),
	})
}

// GetInbox returns the email inbox.
func (h *Handlers) GetInbox(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"emails": h.mail.List()})
}

// MarkEmailRead flags an email as read.
func (h *Handlers) MarkEmailRead(c *gin.Context) {
	h.commandResult(c, h.mail.MarkRead(c.Param("id")))
}

// GetFunds returns the current balance.
func (h *Handlers) GetFunds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"funds": h.funds.Funds()})
}

// ---------------------------------------------------------------------------
// Game

// ResetGame wipes the persisted store and resets every subsystem: the
// explicit "new game" action, the only path out of a terminal state.
func (h *Handlers) ResetGame(c *gin.Context) {
	h.conduct.Reset()
	h.endings.Reset()
	h.chat.Reset()
	h.mail.Reset()
	h.windows.Reset()
	h.toasts.Reset()
	h.funds.Reset()
	h.store.Wipe()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------------------------------------------------------------------------
// AI proxies

type sentimentRequest struct {
	Text string `json:"text" binding:"required"`
}

type memeRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Template string `json:"template"`
}

// AnalyzeSentiment proxies player text to the sentiment upstream.
func (h *Handlers) AnalyzeSentiment(c *gin.Context) {
	var req sentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.aiProxy.AnalyzeSentiment(c.Request.Context(), req.Text)
	if err != nil {
		h.aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateMeme proxies a meme prompt to the generation upstream.
func (h *Handlers) GenerateMeme(c *gin.Context) {
	var req memeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.aiProxy.GenerateMeme(c.Request.Context(), req.Prompt, req.Template)
	if err != nil {
		h.aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) aiError(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai features are not configured"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
