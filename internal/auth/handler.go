package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"mdm-backend/internal/store"
	"mdm-backend/internal/validation"
)

// Handler serves the login, refresh and logout endpoints.
type Handler struct {
	store  *store.Store
	secret string
}

func NewHandler(s *store.Store, jwtSecret string) *Handler {
	return &Handler{store: s, secret: jwtSecret}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/auth")
	grp.Post("/login", h.Login)
	grp.Post("/refresh", h.Refresh)
	grp.Post("/logout", h.Logout)
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return validation.InvalidPayloadError("Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return validation.UnauthorizedError("Email and password are required")
	}

	ctx := c.Context()
	user, err := store.QueryRow(ctx, h.store.Pool,
		"SELECT id, password_hash, roles, active FROM _users WHERE email = $1", body.Email)
	if err != nil {
		return validation.UnauthorizedError("Invalid email or password")
	}
	if active, _ := user["active"].(bool); !active {
		return validation.UnauthorizedError("Account is disabled")
	}
	hash, _ := user["password_hash"].(string)
	if !CheckPassword(body.Password, hash) {
		return validation.UnauthorizedError("Invalid email or password")
	}

	userID, _ := user["id"].(string)
	pair, err := h.issueTokens(ctx, userID, toRoles(user["roles"]))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pair})
}

// Refresh rotates a refresh token and issues a fresh pair.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	token, err := refreshTokenFromBody(c)
	if err != nil {
		return err
	}

	ctx := c.Context()
	row, err := store.QueryRow(ctx, h.store.Pool,
		`SELECT rt.id, rt.user_id, rt.expires_at, u.roles, u.active
		 FROM _refresh_tokens rt
		 JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = $1`, token)
	if err != nil {
		return validation.UnauthorizedError("Invalid refresh token")
	}

	if expiresAt, _ := row["expires_at"].(time.Time); time.Now().After(expiresAt) {
		_, _ = store.Exec(ctx, h.store.Pool,
			"DELETE FROM _refresh_tokens WHERE token = $1", token)
		return validation.UnauthorizedError("Refresh token expired")
	}
	if active, _ := row["active"].(bool); !active {
		return validation.UnauthorizedError("Account is disabled")
	}

	// Single-use tokens: drop the presented one before issuing a new pair.
	tokenID, _ := row["id"].(string)
	_, _ = store.Exec(ctx, h.store.Pool,
		"DELETE FROM _refresh_tokens WHERE id = $1", tokenID)

	userID, _ := row["user_id"].(string)
	pair, err := h.issueTokens(ctx, userID, toRoles(row["roles"]))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pair})
}

// Logout revokes a refresh token.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, err := refreshTokenFromBody(c)
	if err != nil {
		return err
	}
	_, _ = store.Exec(c.Context(), h.store.Pool,
		"DELETE FROM _refresh_tokens WHERE token = $1", token)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func refreshTokenFromBody(c *fiber.Ctx) (string, error) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return "", validation.InvalidPayloadError("Invalid request body")
	}
	if body.RefreshToken == "" {
		return "", validation.UnauthorizedError("Refresh token is required")
	}
	return body.RefreshToken, nil
}

func (h *Handler) issueTokens(ctx context.Context, userID string, roles []string) (*TokenPair, error) {
	access, err := GenerateAccessToken(userID, roles, h.secret)
	if err != nil {
		return nil, validation.NewAppError("INTERNAL_ERROR", 500, "Failed to generate access token")
	}

	refresh := GenerateRefreshToken()
	_, err = store.Exec(ctx, h.store.Pool,
		"INSERT INTO _refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)",
		userID, refresh, time.Now().Add(RefreshTokenTTL))
	if err != nil {
		return nil, validation.NewAppError("INTERNAL_ERROR", 500, "Failed to store refresh token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func toRoles(v any) []string {
	switch roles := v.(type) {
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
