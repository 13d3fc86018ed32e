package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&User{}, &Post{}, &Comment{}, &Like{},
		&Relationship{}, &Room{}, &Entry{}, &Message{}, &Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():         "users",
		Relationship{}.TableName(): "relationships",
		Post{}.TableName():         "posts",
		Comment{}.TableName():      "comments",
		Like{}.TableName():         "likes",
		Room{}.TableName():         "rooms",
		Entry{}.TableName():        "entries",
		Message{}.TableName():      "messages",
		Idempotency{}.TableName():  "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("table name %q, want %q", got, want)
		}
	}
}

func TestPairKey_IsOrderIndependent(t *testing.T) {
	a, b := "b-user", "a-user"
	if PairKey(a, b) != PairKey(b, a) {
		t.Fatalf("PairKey not symmetric: %q vs %q", PairKey(a, b), PairKey(b, a))
	}
	if got := PairKey(a, b); got != "a-user:b-user" {
		t.Fatalf("unexpected key %q", got)
	}
	if PairKey("u1", "u2") == PairKey("u1", "u3") {
		t.Fatalf("distinct pairs must produce distinct keys")
	}
}

func TestRelationship_UniquePair_AndNoSelfFollow(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	if err := db.Create(&Relationship{ID: "r1", FollowerID: "a", FolloweeID: "b", CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert edge: %v", err)
	}
	// reverse direction is a different edge
	if err := db.Create(&Relationship{ID: "r2", FollowerID: "b", FolloweeID: "a", CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert reverse edge: %v", err)
	}
	if err := db.Create(&Relationship{ID: "r3", FollowerID: "a", FolloweeID: "b", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected unique violation on (follower_id, followee_id)")
	}
	if err := db.Create(&Relationship{ID: "r4", FollowerID: "a", FolloweeID: "a", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected check violation for self-follow")
	}
}

func TestLike_UniquePerUserAndPost_CascadeOnPostDelete(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	if err := db.Create(&Post{ID: "p1", UserID: "u3", Title: "t", Content: "c", CreatedAt: now}).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	if err := db.Create(&Like{ID: "l1", UserID: "u1", PostID: "p1", CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert like: %v", err)
	}
	if err := db.Create(&Like{ID: "l2", UserID: "u1", PostID: "p1", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, post_id)")
	}

	if err := db.Delete(&Post{}, "id = ?", "p1").Error; err != nil {
		t.Fatalf("delete post: %v", err)
	}
	var n int64
	db.Model(&Like{}).Where("post_id = ?", "p1").Count(&n)
	if n != 0 {
		t.Fatalf("likes should cascade with their post, %d left", n)
	}
}

func TestRoom_PairKeyUnique_EntryAndSeqUnique(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()
	key := PairKey("u1", "u2")

	if err := db.Create(&Room{ID: "room1", PairKey: key, CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert room: %v", err)
	}
	if err := db.Create(&Room{ID: "room2", PairKey: PairKey("u2", "u1"), CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected unique violation on pair_key")
	}

	if err := db.Create(&Entry{ID: "e1", RoomID: "room1", UserID: "u1", CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if err := db.Create(&Entry{ID: "e2", RoomID: "room1", UserID: "u1", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected unique violation on (room_id, user_id)")
	}

	if err := db.Create(&Message{ID: "m1", RoomID: "room1", UserID: "u1", Seq: 1, Content: "hi", CreatedAt: now}).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if err := db.Create(&Message{ID: "m2", RoomID: "room1", UserID: "u1", Seq: 1, Content: "again", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected unique violation on (room_id, seq)")
	}
	// entries must reference an existing room
	if err := db.Create(&Entry{ID: "e3", RoomID: "missing", UserID: "u1", CreatedAt: now}).Error; err == nil {
		t.Fatalf("expected foreign key violation for unknown room")
	}
}

func TestIdempotency_UniqueUserRoomKey(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	rec := &Idempotency{ID: "i1", UserID: "u1", RoomID: "r1", Key: "k1", MessageID: "m1", Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_room_key") {
		t.Fatalf("expected composite index ux_user_room_key")
	}
	dup := &Idempotency{ID: "i2", UserID: "u1", RoomID: "r1", Key: "k1", MessageID: "m2", Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, room_id, key)")
	}
}
