package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dougsko/rigd/pkg/logging"
	"github.com/dougsko/rigd/pkg/profile"
)

// setupRouter builds the HTTP API. Rig operations go through the unix
// socket like any other client.
func (d *RigDaemon) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", d.handleWebSocket)

	api := router.Group("/api/v1")
	{
		api.GET("/rig", d.handleGetStatus)
		api.POST("/rig/open", d.handleOpen)
		api.POST("/rig/close", d.handleClose)
		api.POST("/rig/resend", d.handleResend)
		api.PUT("/rig/frequency", d.handleSetFrequency)
		api.PUT("/rig/mode", d.handleSetMode)
		api.PUT("/rig/ptt", d.handleSetPTT)
		api.PUT("/rig/keyspeed", d.handleSetKeySpeed)
		api.POST("/rig/morse", d.handleSendMorse)
		api.DELETE("/rig/morse", d.handleStopMorse)
		api.GET("/rig/modes", d.handleGetModes)

		api.GET("/profiles", d.handleGetProfiles)
		api.PUT("/profiles/current", d.handleSelectProfile)
		api.POST("/profiles", d.handleSaveProfile)
		api.DELETE("/profiles/:name", d.handleDeleteProfile)
	}

	return router
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
	})
}

// queued reports a rig command that was accepted. The outcome arrives as
// events on /ws.
func queued(c *gin.Context, err error) {
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// handleGetStatus returns the rig status via socket
func (d *RigDaemon) handleGetStatus(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (d *RigDaemon) handleOpen(c *gin.Context)      { queued(c, d.socketClient.Open()) }
func (d *RigDaemon) handleClose(c *gin.Context)     { queued(c, d.socketClient.Close()) }
func (d *RigDaemon) handleResend(c *gin.Context)    { queued(c, d.socketClient.Resend()) }
func (d *RigDaemon) handleStopMorse(c *gin.Context) { queued(c, d.socketClient.StopMorse()) }

// handleSetFrequency sets the dial frequency in Hz
func (d *RigDaemon) handleSetFrequency(c *gin.Context) {
	var req struct {
		Frequency float64 `json:"frequency" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	queued(c, d.socketClient.SetFrequency(req.Frequency))
}

// handleSetMode takes either a normalized mode and submode or a raw
// hamlib mode name
func (d *RigDaemon) handleSetMode(c *gin.Context) {
	var req struct {
		Mode    string `json:"mode"`
		Submode string `json:"submode"`
		Raw     string `json:"raw"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch {
	case req.Raw != "":
		queued(c, d.socketClient.SetRawMode(req.Raw))
	case req.Mode != "":
		queued(c, d.socketClient.SetMode(req.Mode, req.Submode))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode or raw is required"})
	}
}

func (d *RigDaemon) handleSetPTT(c *gin.Context) {
	var req struct {
		PTT *bool `json:"ptt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	queued(c, d.socketClient.SetPTT(*req.PTT))
}

// handleSetKeySpeed sets the CW speed. With sync the request comes from
// an external keyer and bypasses the get_keyspeed profile flag.
func (d *RigDaemon) handleSetKeySpeed(c *gin.Context) {
	var req struct {
		WPM  *int `json:"wpm" binding:"required,gte=0"`
		Sync bool `json:"sync"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sync {
		queued(c, d.socketClient.SyncKeySpeed(*req.WPM))
		return
	}
	queued(c, d.socketClient.SetKeySpeed(*req.WPM))
}

func (d *RigDaemon) handleSendMorse(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	queued(c, d.socketClient.SendMorse(req.Text))
}

func (d *RigDaemon) handleGetModes(c *gin.Context) {
	modes, err := d.socketClient.Modes()
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modes": modes})
}

func (d *RigDaemon) handleGetProfiles(c *gin.Context) {
	profiles, err := d.profiles()
	if err != nil {
		internalError(c, err)
		return
	}
	current := ""
	if p, ok := d.engine.Connected(); ok {
		current = p.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles":  profiles,
		"connected": current,
	})
}

// errReadOnly is returned for profile edits when profiles come from a file
var errReadOnly = errors.New("profiles are read from a file, edit it instead")

func (d *RigDaemon) handleSelectProfile(c *gin.Context) {
	if d.store == nil {
		c.JSON(http.StatusConflict, gin.H{"error": errReadOnly.Error()})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := d.store.Select(strings.TrimSpace(req.Name)); err != nil {
		profileError(c, err)
		return
	}
	// the engine reconnects on its next poll if the rig was open
	c.JSON(http.StatusOK, gin.H{"current": d.store.Current().Name})
}

func (d *RigDaemon) handleSaveProfile(c *gin.Context) {
	if d.store == nil {
		c.JSON(http.StatusConflict, gin.H{"error": errReadOnly.Error()})
		return
	}
	var p profile.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := d.store.Save(p); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (d *RigDaemon) handleDeleteProfile(c *gin.Context) {
	if d.store == nil {
		c.JSON(http.StatusConflict, gin.H{"error": errReadOnly.Error()})
		return
	}
	if err := d.store.Delete(c.Param("name")); err != nil {
		profileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func profileError(c *gin.Context, err error) {
	if errors.Is(err, profile.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	internalError(c, err)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket streams engine events until the client goes away
func (d *RigDaemon) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnf("main", "WebSocket upgrade failed: %v", err)
		return
	}
	d.hub.Handle(conn)
}
