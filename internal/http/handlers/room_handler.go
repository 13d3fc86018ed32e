// Direct-message room HTTP handlers.
//
// Endpoints:
//   - POST /rooms                 (open the room with a peer; 201 new, 200 reused)
//   - GET  /rooms                 (caller's rooms, most recent activity first)
//   - GET  /rooms/{id}            (participants and full log)
//   - POST /rooms/{id}/messages   (append; Idempotency-Key aware)
//   - GET  /rooms/{id}/messages   (paged log, weak ETag)
//
// Idempotency:
// When the client sends an Idempotency-Key and a message was already stored
// under it for the same (user, room), the stored message is returned with
// `Idempotency-Replayed: true` and status 200 instead of 201.
//
// Non-members and unknown rooms both get 403, so room ids cannot be probed.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/utils"
)

// OpenRoomRequest is the JSON payload for POST /rooms.
type OpenRoomRequest struct {
	PeerID string `json:"peer_id" binding:"required,uuid" example:"3f1d7a52-8c4e-4d8b-9a53-0c9b6d2f1e77"`
}

// PostMessageRequest is the JSON payload for POST /rooms/{id}/messages.
type PostMessageRequest struct {
	Content string `json:"content" binding:"required,notblank" example:"hey, are you around tomorrow?"`
}

// RoomResponse is a room with its participants and ordered log.
type RoomResponse struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Participants []PublicUser     `json:"participants"`
	Messages     []domain.Message `json:"messages"`
}

// RoomSummaryResponse is one element of GET /rooms.
type RoomSummaryResponse struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Participants []PublicUser    `json:"participants"`
	LastMessage  *domain.Message `json:"last_message,omitempty"`
	MessageCount int64           `json:"message_count"`
	LastActivity time.Time       `json:"last_activity"`
}

// ListRoomsResponse wraps the caller's rooms.
type ListRoomsResponse struct {
	Rooms []RoomSummaryResponse `json:"rooms"`
}

// ListMessagesResponse is a page of a room log.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

func roomResponse(d *services.RoomDetail) RoomResponse {
	return RoomResponse{
		ID:           d.Room.ID,
		CreatedAt:    d.Room.CreatedAt,
		Participants: publicUsers(d.Participants),
		Messages:     nonNil(d.Messages),
	}
}

// OpenRoom godoc
// @ID          openRoom
// @Summary     Open a direct-message room
// @Description Returns the single room shared with peer_id, creating it on first use.
// @Tags        Rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.OpenRoomRequest  true  "Peer"
// @Success     201   {object}  handlers.RoomResponse  "Created"
// @Success     200   {object}  handlers.RoomResponse  "Existing room"
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Peer not found"
// @Failure     422   {object}  handlers.ErrorResponse  "Room with yourself"
// @Failure     503   {object}  handlers.ErrorResponse  "Room could not be created; retry"
// @Router      /rooms [post]
func (h *Handlers) OpenRoom(c *gin.Context) {
	var req OpenRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	d, created, err := h.rooms.Open(c.Request.Context(), actor(c), req.PeerID)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, roomResponse(d))
}

// ListRooms godoc
// @ID          listRooms
// @Summary     Caller's rooms
// @Tags        Rooms
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListRoomsResponse
// @Router      /rooms [get]
func (h *Handlers) ListRooms(c *gin.Context) {
	rs, err := h.rooms.ListFor(c.Request.Context(), actor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]RoomSummaryResponse, len(rs))
	for i, r := range rs {
		out[i] = RoomSummaryResponse{
			ID:           r.Room.ID,
			CreatedAt:    r.Room.CreatedAt,
			Participants: publicUsers(r.Participants),
			LastMessage:  r.LastMessage,
			MessageCount: r.MessageCount,
			LastActivity: r.LastActivity,
		}
	}
	ok(c, http.StatusOK, ListRoomsResponse{Rooms: out})
}

// GetRoom godoc
// @ID          getRoom
// @Summary     Get a room
// @Tags        Rooms
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Room ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.RoomResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Router      /rooms/{id} [get]
func (h *Handlers) GetRoom(c *gin.Context) {
	d, err := h.rooms.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, roomResponse(d))
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Post a message to a room
// @Description Supports idempotency via the Idempotency-Key header (same key → same message).
// @Tags        Rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id               path    string                       true   "Room ID (UUID)"  format(uuid)
// @Param       Idempotency-Key  header  string                       false  "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.PostMessageRequest  true   "Message"
// @Success     201  {object}  domain.Message  "Appended"
// @Success     200  {object}  domain.Message  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     503  {object}  handlers.ErrorResponse  "Append contention; retry"
// @Router      /rooms/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindMessage(err))
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	m, replayed, err := h.rooms.PostMessageOnce(c.Request.Context(), actor(c), c.Param("id"), key, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, m)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     Page through a room log
// @Description Oldest first. Responses carry a weak ETag; send it back in If-None-Match to get 304 when nothing changed.
// @Tags        Rooms
// @Produce     json
// @Security    BearerAuth
// @Param       id         path   string  true   "Room ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  "Not modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Router      /rooms/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	count, lastSeq, err := h.rooms.LogVersion(ctx, actor(c), roomID)
	if err != nil {
		failErr(c, err)
		return
	}
	etag := fmt.Sprintf(`W/"room:%s:%d:%d:p%d:s%d"`, roomID, count, lastSeq, page, pageSize)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, total, err := h.rooms.ListMessages(ctx, actor(c), roomID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   nonNil(items),
		Pagination: newPagination(page, pageSize, total),
	})
}
