// User HTTP handlers.
//
//   - POST /users       (register; public)
//   - GET  /me          (the authenticated user)
//   - GET  /users/{id}  (profile: posts, liked posts, follow counts)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// RegisterRequest is the JSON payload for creating a user. The address is
// trimmed, lower-cased and format-checked by the user service.
type RegisterRequest struct {
	Email string `json:"email" binding:"required" example:"jane@example.com"`
}

// RegisterResponse is the created user plus, when token issuance is enabled,
// a bearer token for it.
type RegisterResponse struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// ProfileResponse is the public profile of a user.
type ProfileResponse struct {
	User           PublicUser    `json:"user"`
	Posts          []domain.Post `json:"posts"`
	LikedPosts     []domain.Post `json:"liked_posts"`
	FollowersCount int64         `json:"followers_count"`
	FollowingCount int64         `json:"following_count"`
}

// Register godoc
// @ID          registerUser
// @Summary     Register a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Registration payload"
// @Success     201   {object}  handlers.RegisterResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409   {object}  handlers.ErrorResponse  "Email already registered"
// @Router      /users [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Email)
	if err != nil {
		failErr(c, err)
		return
	}
	resp := RegisterResponse{User: *u}
	if h.tokens != nil {
		tok, exp, err := h.tokens.Issue(u.ID)
		if err != nil {
			failErr(c, err)
			return
		}
		resp.Token, resp.ExpiresAt = tok, &exp
	}
	ok(c, http.StatusCreated, resp)
}

// Me godoc
// @ID          me
// @Summary     The authenticated user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Token for an unknown user"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), actor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetProfile godoc
// @ID          getProfile
// @Summary     User profile
// @Description Posts, liked posts, and follower/following counts.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.users.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		User:           PublicUser{ID: p.User.ID, CreatedAt: p.User.CreatedAt},
		Posts:          nonNil(p.Posts),
		LikedPosts:     nonNil(p.LikedPosts),
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
	})
}
