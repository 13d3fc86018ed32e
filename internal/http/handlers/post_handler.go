// Post and comment HTTP handlers.
//
//   - POST   /posts                (create)
//   - GET    /posts                (paged, newest first, with like counts)
//   - GET    /posts/{id}
//   - PUT    /posts/{id}           (author only)
//   - DELETE /posts/{id}           (author only; likes and comments go with it)
//   - POST   /posts/{id}/comments
//   - GET    /posts/{id}/comments  (oldest first)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/utils"
)

// PostRequest is the JSON payload for creating or replacing a post.
type PostRequest struct {
	Title   string `json:"title"   binding:"required,notblank,max=255" example:"Weekend hike"`
	Content string `json:"content" binding:"required,notblank"         example:"Photos from the ridge trail."`
}

// CommentRequest is the JSON payload for commenting on a post.
type CommentRequest struct {
	Content string `json:"content" binding:"required,notblank" example:"Looks great!"`
}

// PostResponse is a post with its like count.
type PostResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPostsResponse is a page of posts.
type ListPostsResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination Pagination     `json:"pagination"`
}

// ListCommentsResponse wraps a post's comments.
type ListCommentsResponse struct {
	Comments []domain.Comment `json:"comments"`
}

func postResponse(p domain.Post, likes int64) PostResponse {
	return PostResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		Likes:     likes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.PostRequest  true  "Post"
// @Success     201   {object}  handlers.PostResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	p, err := h.posts.Create(c.Request.Context(), actor(c), req.Title, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, postResponse(*p, 0))
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListPostsResponse
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))
	items, total, err := h.posts.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]PostResponse, len(items))
	for i, it := range items {
		out[i] = postResponse(it.Post, it.Likes)
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: out, Pagination: newPagination(page, pageSize, total)})
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.PostResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, postResponse(p.Post, p.Likes))
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Replace a post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                true  "Post ID (UUID)"  format(uuid)
// @Param       body  body      handlers.PostRequest  true  "Post"
// @Success     200   {object}  handlers.PostResponse
// @Failure     403   {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	ctx := c.Request.Context()
	p, err := h.posts.Update(ctx, actor(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	var likes int64
	if full, err := h.posts.Get(ctx, p.ID); err == nil {
		likes = full.Likes
	}
	ok(c, http.StatusOK, postResponse(*p, likes))
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Tags        Posts
// @Security    BearerAuth
// @Param       id   path  string  true  "Post ID (UUID)"  format(uuid)
// @Success     204
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a post
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                   true  "Post ID (UUID)"  format(uuid)
// @Param       body  body      handlers.CommentRequest  true  "Comment"
// @Success     201   {object}  domain.Comment
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	cm, err := h.comments.Create(c.Request.Context(), actor(c), c.Param("id"), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     Comments on a post
// @Tags        Comments
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	cs, err := h.comments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: nonNil(cs)})
}
