package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yourusername/namecheck/middleware"
	"github.com/yourusername/namecheck/models"
	"github.com/yourusername/namecheck/services"
)

var checkAdmin = func(c *fiber.Ctx, repo models.UserRepositoryInterface) bool { return isAdmin(c, repo) }

func isAdmin(c *fiber.Ctx, repo models.UserRepositoryInterface) bool {
	uid := middleware.GetUserID(c)
	if uid == uuid.Nil {
		return false
	}
	u, err := repo.GetByID(uid)
	if err != nil {
		return false
	}
	return u.IsAdmin && !u.IsDisabled
}

// PreservedExplainer reports how each preserved entry treats a username.
type PreservedExplainer interface {
	Explain(ctx context.Context, username string) ([]services.PreservedMatch, error)
}

// Invalidator drops a cached preserved list.
type Invalidator interface {
	Invalidate()
}

type AdminHandler struct {
	userRepo  models.UserRepositoryInterface
	explainer PreservedExplainer
	preserved Invalidator
	matcher   *services.PreservedMatcher
}

func NewAdminHandler(userRepo models.UserRepositoryInterface, explainer PreservedExplainer) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, explainer: explainer}
}

// WithCache lets RefreshPreserved drop the list snapshot and the compiled entries.
func (h *AdminHandler) WithCache(preserved Invalidator, matcher *services.PreservedMatcher) *AdminHandler {
	h.preserved = preserved
	h.matcher = matcher
	return h
}

// CheckPreserved lists every preserved entry with whether it blocks the given
// username and, for patterns that never match, why they failed to compile.
func (h *AdminHandler) CheckPreserved(c *fiber.Ctx) error {
	if !checkAdmin(c, h.userRepo) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	username := c.Query("username")
	if strings.TrimSpace(username) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username required"})
	}
	matches, err := h.explainer.Explain(c.UserContext(), username)
	if err != nil {
		log.Printf("Preserved usernames check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load preserved usernames"})
	}
	preserved := false
	invalid := 0
	for _, m := range matches {
		preserved = preserved || m.Matched
		if m.Error != "" {
			invalid++
		}
	}
	return c.JSON(fiber.Map{
		"username":  username,
		"preserved": preserved,
		"invalid":   invalid,
		"entries":   matches,
	})
}

func (h *AdminHandler) RefreshPreserved(c *fiber.Ctx) error {
	if !checkAdmin(c, h.userRepo) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.preserved != nil {
		h.preserved.Invalidate()
	}
	h.matcher.Flush()
	log.Printf("Preserved usernames cache invalidated by %s", middleware.GetUserID(c))
	return c.SendStatus(fiber.StatusNoContent)
}
