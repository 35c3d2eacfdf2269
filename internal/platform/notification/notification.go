// Package notification provides in-app notifications with role fanout,
// persistent storage, and Echo HTTP handlers.
package notification

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/platform/auth"
)

// ---------------------------------------------------------------------------
// Notification Types
// ---------------------------------------------------------------------------

// Scope selects who a notification is addressed to.
type Scope string

const (
	ScopeUser      Scope = "user"
	ScopeAllStaff  Scope = "allStaff"
	ScopeAllAdmins Scope = "allAdmins"
)

// Target addresses a notification to a single user or to every user holding
// a role. For ScopeUser both Role and UserID identify the recipient.
type Target struct {
	Scope  Scope
	Role   string
	UserID uuid.UUID
}

// User targets a single user by role and ID.
func User(role string, id uuid.UUID) Target {
	return Target{Scope: ScopeUser, Role: role, UserID: id}
}

// AllStaff targets every staff user.
func AllStaff() Target { return Target{Scope: ScopeAllStaff} }

// AllAdmins targets every admin user.
func AllAdmins() Target { return Target{Scope: ScopeAllAdmins} }

// Notification is a single in-app notification row.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// ---------------------------------------------------------------------------
// Publisher
// ---------------------------------------------------------------------------

// Publisher delivers a notification to a target. Implementations fan role
// scopes out to individual user rows.
type Publisher interface {
	Publish(ctx context.Context, target Target, title, message, link string) error
}

// Store persists notification rows.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// Directory resolves role scopes to concrete user IDs.
type Directory interface {
	UserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
}

// Fanout is the standard Publisher: it expands the target into user IDs and
// inserts one notification row per recipient.
type Fanout struct {
	store     Store
	directory Directory
	logger    zerolog.Logger
}

// NewFanout constructs a Fanout publisher.
func NewFanout(store Store, directory Directory, logger zerolog.Logger) *Fanout {
	return &Fanout{store: store, directory: directory, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, target Target, title, message, link string) error {
	recipients, err := f.resolve(ctx, target)
	if err != nil {
		return fmt.Errorf("resolve notification target: %w", err)
	}

	for _, userID := range recipients {
		n := &Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     title,
			Message:   message,
			Link:      link,
			CreatedAt: time.Now().UTC(),
		}
		if err := f.store.Insert(ctx, n); err != nil {
			// Keep delivering to the remaining recipients
			f.logger.Error().Err(err).
				Str("user_id", userID.String()).
				Str("title", title).
				Msg("insert notification failed")
		}
	}
	return nil
}

func (f *Fanout) resolve(ctx context.Context, target Target) ([]uuid.UUID, error) {
	switch target.Scope {
	case ScopeUser:
		if target.UserID == uuid.Nil {
			return nil, fmt.Errorf("user target missing id")
		}
		return []uuid.UUID{target.UserID}, nil
	case ScopeAllStaff:
		return f.directory.UserIDsByRole(ctx, auth.RoleStaff)
	case ScopeAllAdmins:
		return f.directory.UserIDsByRole(ctx, auth.RoleAdmin)
	default:
		return nil, fmt.Errorf("unknown notification scope %q", target.Scope)
	}
}

// ---------------------------------------------------------------------------
// Memory Store (test double and single-process fallback)
// ---------------------------------------------------------------------------

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*Notification
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notifications: make(map[uuid.UUID]*Notification)}
}

func (s *MemoryStore) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification %s not found", id)
	}
	n.IsRead = true
	return nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// Handler exposes a user's notification feed over HTTP via Echo.
type Handler struct {
	store Store
}

// NewHandler creates a new notification Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers all notification routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.HandleList)
	g.GET("/notifications/unread-count", h.HandleUnreadCount)
	g.POST("/notifications/:id/read", h.HandleMarkRead)
	g.POST("/notifications/read-all", h.HandleMarkAllRead)
}

// HandleList handles GET /notifications for the authenticated user.
func (h *Handler) HandleList(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	list, err := h.store.ListByUser(c.Request().Context(), userID, 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
	}
	if list == nil {
		list = []*Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleUnreadCount handles GET /notifications/unread-count.
func (h *Handler) HandleUnreadCount(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	count, err := h.store.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to count notifications"})
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

// HandleMarkRead handles POST /notifications/:id/read.
func (h *Handler) HandleMarkRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
	}

	if err := h.store.MarkRead(c.Request().Context(), id, userID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notification not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /notifications/read-all.
func (h *Handler) HandleMarkAllRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	count, err := h.store.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to mark notifications read"})
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": count})
}

func callerID(c echo.Context) (uuid.UUID, error) {
	ident := auth.IdentityFromContext(c.Request().Context())
	userID, err := uuid.Parse(ident.ID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return userID, nil
}
