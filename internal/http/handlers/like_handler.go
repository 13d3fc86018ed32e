// Like HTTP handlers.
//
//   - POST   /posts/{id}/like   (idempotent)
//   - DELETE /posts/{id}/like   (idempotent)
//   - GET    /posts/{id}/likes  (count plus whether the caller liked it)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LikeSummaryResponse is the like state of a post for the caller.
type LikeSummaryResponse struct {
	PostID string `json:"post_id"`
	Count  int64  `json:"count"`
	Liked  bool   `json:"liked"`
}

// LikePost godoc
// @ID          likePost
// @Summary     Like a post
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.LikeSummaryResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/like [post]
func (h *Handlers) LikePost(c *gin.Context) {
	if _, err := h.likes.Like(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	h.likeSummary(c)
}

// UnlikePost godoc
// @ID          unlikePost
// @Summary     Remove a like
// @Tags        Likes
// @Security    BearerAuth
// @Param       id   path  string  true  "Post ID (UUID)"  format(uuid)
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /posts/{id}/like [delete]
func (h *Handlers) UnlikePost(c *gin.Context) {
	if err := h.likes.Unlike(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// GetLikes godoc
// @ID          getLikes
// @Summary     Like count of a post
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.LikeSummaryResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /posts/{id}/likes [get]
func (h *Handlers) GetLikes(c *gin.Context) {
	h.likeSummary(c)
}

func (h *Handlers) likeSummary(c *gin.Context) {
	s, err := h.likes.Summary(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LikeSummaryResponse{PostID: s.PostID, Count: s.Count, Liked: s.Liked})
}
