// Package domain defines the persistence models for users, the follow graph,
// likes, direct-message rooms and their messages, plus the post/comment
// records that likes and comments hang off. These types are mapped with GORM
// and form the core data layer of the social backend.
package domain

import (
	"time"
)

// User is an identity record. The core references users by ID and never
// mutates them after registration.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: lower-cased address, unique across users.
//   - CreatedAt: registration time (UTC).
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Relationship is a directed follow edge: FollowerID follows FolloweeID.
// At most one edge exists per ordered pair (unique index) and a user can
// never follow themselves (check constraint). Edges are created and deleted,
// never updated.
type Relationship struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	FollowerID string    `json:"follower_id" gorm:"type:char(36);not null;index:idx_rel_follower;uniqueIndex:ux_relationship_pair,priority:1"`
	FolloweeID string    `json:"followee_id" gorm:"type:char(36);not null;index:idx_rel_followee;uniqueIndex:ux_relationship_pair,priority:2;check:follower_id <> followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Relationship.
func (Relationship) TableName() string { return "relationships" }

// Post is a piece of user-authored content. Likes and comments reference it
// and are cascade-deleted with it.
type Post struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_posts"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_posts_created"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Comment is a reply attached to a post.
type Comment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	PostID    string    `json:"post_id"    gorm:"type:char(36);not null;index:idx_post_comments,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_comments,priority:2"`

	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Like records that UserID liked PostID. A user can like a post at most once
// (enforced by unique index), so the like count of a post is the number of
// rows referencing it.
type Like struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_like_user_post,priority:1"`
	PostID    string    `json:"post_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_like_user_post,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }

// Room is an opaque two-party conversation container.
//
// PairKey is the canonical form of the unordered participant pair
// (see PairKey). Its unique index is what guarantees a single room per pair,
// so it is never exposed over the API.
type Room struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	PairKey   string    `json:"-"          gorm:"type:varchar(80);not null;uniqueIndex:ux_rooms_pair"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "rooms" }

// Entry is a room membership. It is also the only authorization token for a
// room: a user may read or write a room's messages iff an Entry exists for
// (RoomID, UserID). A room owns exactly two entries, written in the same
// transaction as the room itself.
type Entry struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RoomID    string    `json:"room_id"    gorm:"type:char(36);not null;uniqueIndex:ux_entry_room_user,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_entry_user;uniqueIndex:ux_entry_room_user,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// Message is an immutable, append-only utterance inside a room.
//
// Seq is assigned by the server, starts at 1 and strictly increases within a
// room; (RoomID, Seq) is unique and defines the total order of the room log.
type Message struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RoomID    string    `json:"room_id"    gorm:"type:char(36);not null;uniqueIndex:ux_room_msg_seq,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index"`
	Seq       int64     `json:"seq"        gorm:"not null;uniqueIndex:ux_room_msg_seq,priority:2"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
