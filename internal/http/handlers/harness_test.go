package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ---------- test plumbing ----------

const testSecret = "handlers-test-secret-0123456789"

type apiHarness struct {
	t      *testing.T
	r      *gin.Engine
	db     *gorm.DB
	tokens *auth.Manager
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newAPI mounts every handler on real services over an in-memory database,
// with the same authentication the router installs.
func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db := newTestDB(t)
	var pub events.Noop
	msgs := services.NewMessageService(db, 200)
	rooms := services.NewRoomService(db, msgs, pub)
	tokens := auth.NewManager(testSecret, time.Hour)

	h := New(Services{
		Users:    services.NewUserService(db, pub),
		Follows:  services.NewFollowService(db, pub),
		Likes:    services.NewLikeService(db, pub),
		Rooms:    rooms,
		Posts:    services.NewPostService(db, repo.PostStore{}),
		Comments: services.NewCommentService(db, 500),
		Tokens:   tokens,
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/users", h.Register)

	api := r.Group("/", middleware.Authenticate(tokens, middleware.AuthOptions{AllowHeader: true}))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, rooms.HasReplay))
	api.GET("/me", h.Me)
	api.GET("/users/:id", h.GetProfile)
	api.POST("/users/:id/follow", h.Follow)
	api.DELETE("/users/:id/follow", h.Unfollow)
	api.GET("/users/:id/followers", h.ListFollowers)
	api.GET("/users/:id/followings", h.ListFollowings)
	api.GET("/users/:id/relationship", h.GetRelationship)
	api.POST("/posts", h.CreatePost)
	api.GET("/posts", h.ListPosts)
	api.GET("/posts/:id", h.GetPost)
	api.PUT("/posts/:id", h.UpdatePost)
	api.DELETE("/posts/:id", h.DeletePost)
	api.POST("/posts/:id/comments", h.CreateComment)
	api.GET("/posts/:id/comments", h.ListComments)
	api.POST("/posts/:id/like", h.LikePost)
	api.DELETE("/posts/:id/like", h.UnlikePost)
	api.GET("/posts/:id/likes", h.GetLikes)
	api.POST("/rooms", h.OpenRoom)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)
	api.POST("/rooms/:id/messages", h.PostMessage)
	api.GET("/rooms/:id/messages", h.ListMessages)

	return &apiHarness{t: t, r: r, db: db, tokens: tokens}
}

// do sends a request as userID ("" for anonymous) and returns the recorder.
func (a *apiHarness) do(method, path, userID string, body any, hdr ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// user registers a fresh user and returns its id.
func (a *apiHarness) user() string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/users", "", map[string]string{"email": uuid.NewString() + "@example.com"})
	if w.Code != http.StatusCreated {
		a.t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var resp RegisterResponse
	decode(a.t, w, &resp)
	return resp.User.ID
}

func (a *apiHarness) post(author string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/posts", author, PostRequest{Title: "hello", Content: "world"})
	if w.Code != http.StatusCreated {
		a.t.Fatalf("create post: %d %s", w.Code, w.Body.String())
	}
	var p PostResponse
	decode(a.t, w, &p)
	return p.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var e ErrorResponse
	decode(t, w, &e)
	if e.Code != code {
		t.Fatalf("code = %q, want %q", e.Code, code)
	}
}
