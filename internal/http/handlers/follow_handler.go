// Follow graph HTTP handlers.
//
//   - POST   /users/{id}/follow        (follow; idempotent)
//   - DELETE /users/{id}/follow        (unfollow; idempotent)
//   - GET    /users/{id}/followers
//   - GET    /users/{id}/followings
//   - GET    /users/{id}/relationship  (caller's follow state toward {id})
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RelationshipResponse describes the follow state between the caller and a user.
type RelationshipResponse struct {
	UserID     string `json:"user_id"`
	Following  bool   `json:"following"`
	FollowedBy bool   `json:"followed_by"`
}

// UserListResponse is a list of users.
type UserListResponse struct {
	Users []PublicUser `json:"users"`
}

// Follow godoc
// @ID          followUser
// @Summary     Follow a user
// @Description Following an already-followed user succeeds without change.
// @Tags        Follows
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User to follow (UUID)"  format(uuid)
// @Success     200  {object}  handlers.RelationshipResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Cannot follow yourself"
// @Router      /users/{id}/follow [post]
func (h *Handlers) Follow(c *gin.Context) {
	target := c.Param("id")
	if _, err := h.follows.Follow(c.Request.Context(), actor(c), target); err != nil {
		failErr(c, err)
		return
	}
	h.relationship(c, target)
}

// Unfollow godoc
// @ID          unfollowUser
// @Summary     Unfollow a user
// @Tags        Follows
// @Security    BearerAuth
// @Param       id   path  string  true  "User to unfollow (UUID)"  format(uuid)
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /users/{id}/follow [delete]
func (h *Handlers) Unfollow(c *gin.Context) {
	if err := h.follows.Unfollow(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListFollowers godoc
// @ID          listFollowers
// @Summary     Users following {id}
// @Tags        Follows
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.UserListResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/followers [get]
func (h *Handlers) ListFollowers(c *gin.Context) {
	us, err := h.follows.ListFollowers(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserListResponse{Users: publicUsers(us)})
}

// ListFollowings godoc
// @ID          listFollowings
// @Summary     Users {id} follows
// @Tags        Follows
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.UserListResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/followings [get]
func (h *Handlers) ListFollowings(c *gin.Context) {
	us, err := h.follows.ListFollowings(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserListResponse{Users: publicUsers(us)})
}

// GetRelationship godoc
// @ID          getRelationship
// @Summary     Caller's follow state toward a user
// @Tags        Follows
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "User ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.RelationshipResponse
// @Router      /users/{id}/relationship [get]
func (h *Handlers) GetRelationship(c *gin.Context) {
	h.relationship(c, c.Param("id"))
}

func (h *Handlers) relationship(c *gin.Context, target string) {
	st, err := h.follows.Status(c.Request.Context(), actor(c), target)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RelationshipResponse{UserID: target, Following: st.Following, FollowedBy: st.FollowedBy})
}
