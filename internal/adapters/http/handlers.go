package http

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkeye/noteroom/internal/app"
	"github.com/dkeye/noteroom/internal/auth"
	"github.com/dkeye/noteroom/internal/domain"
	"github.com/dkeye/noteroom/internal/store"
)

type Handlers struct {
	hub      *app.Hub
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	_, err := h.store.FindUserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Str("module", "adapters.http").Msg("email lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	user, err := domain.NewUser(req.Name, req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	user.PasswordHash = string(hash)

	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := auth.GenerateToken(user, h.secret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.store.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user, h.secret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handlers) ListWorkspaces(c *gin.Context) {
	user := identity(c)
	list, err := h.store.ListWorkspacesFor(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if list == nil {
		list = []*domain.Workspace{}
	}
	c.JSON(http.StatusOK, list)
}

type createWorkspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handlers) CreateWorkspace(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user := identity(c)
	ws := domain.NewWorkspace(req.Name, req.Description, user.ID)
	if err := h.store.CreateWorkspace(c.Request.Context(), ws); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// memberWorkspace resolves the :id workspace and gates on membership,
// writing the error response itself when the check fails.
func (h *Handlers) memberWorkspace(c *gin.Context) (*domain.Workspace, bool) {
	user := identity(c)
	wsID := domain.WorkspaceID(c.Param("id"))

	ws, err := h.store.FindWorkspaceByID(c.Request.Context(), wsID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Workspace not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return nil, false
	}
	if !ws.IsMember(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied - You are not a member of this workspace"})
		return nil, false
	}
	return ws, true
}

// GetWorkspace returns the workspace with its notes; non-members get
// 403 regardless of whether the workspace exists for them elsewhere.
func (h *Handlers) GetWorkspace(c *gin.Context) {
	ws, ok := h.memberWorkspace(c)
	if !ok {
		return
	}

	notes, err := h.store.ListNotes(c.Request.Context(), ws.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws, "notes": notes})
}

// ListNotes returns the workspace's notes, most recently edited first.
func (h *Handlers) ListNotes(c *gin.Context) {
	ws, ok := h.memberWorkspace(c)
	if !ok {
		return
	}

	notes, err := h.store.ListNotes(c.Request.Context(), ws.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].LastEditedAt.After(notes[j].LastEditedAt)
	})
	c.JSON(http.StatusOK, notes)
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateNote goes through the hub, so every connection in the
// workspace room sees the note the moment it is created over REST.
func (h *Handlers) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user := identity(c)
	note, err := h.hub.CreateNote(c.Request.Context(), user.ID, domain.WorkspaceID(c.Param("id")), req.Title, req.Content)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *Handlers) DeleteNote(c *gin.Context) {
	user := identity(c)
	err := h.hub.DeleteNote(c.Request.Context(), user.ID, domain.WorkspaceID(c.Param("id")), domain.NoteID(c.Param("noteId")))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

type inviteRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handlers) InviteMember(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user := identity(c)
	wsID := domain.WorkspaceID(c.Param("id"))

	invited, err := h.hub.InviteMember(c.Request.Context(), user, wsID, req.Email)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Invitation sent successfully",
		"invitedUser": invited,
	})
}

func (h *Handlers) AcceptInvitation(c *gin.Context) {
	user := identity(c)
	wsID := domain.WorkspaceID(c.Param("id"))

	ws, alreadyMember, err := h.hub.AcceptInvitation(c.Request.Context(), user, wsID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	if alreadyMember {
		c.JSON(http.StatusOK, gin.H{
			"message":       "You are already a member of this workspace",
			"alreadyMember": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Successfully joined the workspace",
		"workspace": ws,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrWorkspaceNotFound), errors.Is(err, app.ErrNoteNotFound), errors.Is(err, app.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, app.ErrAlreadyMember):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
