package repo

import (
	"context"
	"testing"
	"time"
)

func TestUserRepo_CreateGetExists(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "ada@example.com")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}

	got, err := GetUser(ctx, db, u.ID)
	if err != nil || got.Email != "ada@example.com" {
		t.Fatalf("GetUser: got=%+v err=%v", got, err)
	}
	byEmail, err := GetUserByEmail(ctx, db, "ada@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail: got=%+v err=%v", byEmail, err)
	}
	if _, err := GetUser(ctx, db, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ok, err := UserExists(ctx, db, u.ID)
	if err != nil || !ok {
		t.Fatalf("UserExists(existing) = %v, %v", ok, err)
	}
	ok, err = UserExists(ctx, db, "nope")
	if err != nil || ok {
		t.Fatalf("UserExists(missing) = %v, %v", ok, err)
	}

	list, err := ListUsersByIDs(ctx, db, []string{u.ID, "nope"})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListUsersByIDs: %v %v", list, err)
	}
	empty, err := ListUsersByIDs(ctx, db, nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListUsersByIDs(nil) should be empty non-nil, got %v %v", empty, err)
	}
}

func TestRelationshipRepo_CreateDuplicateDeleteAndLists(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		seedUser(t, db, id)
	}

	r1, err := CreateRelationship(ctx, db, "b", "a")
	if err != nil {
		t.Fatalf("CreateRelationship b->a: %v", err)
	}
	// ensure a later created_at for the second follower
	time.Sleep(2 * time.Millisecond)
	if _, err := CreateRelationship(ctx, db, "c", "a"); err != nil {
		t.Fatalf("CreateRelationship c->a: %v", err)
	}
	if _, err := CreateRelationship(ctx, db, "b", "a"); !IsDuplicate(err) {
		t.Fatalf("expected duplicate for second b->a, got %v", err)
	}

	got, err := GetRelationship(ctx, db, "b", "a")
	if err != nil || got.ID != r1.ID {
		t.Fatalf("GetRelationship: got=%+v err=%v", got, err)
	}
	if _, err := GetRelationship(ctx, db, "a", "b"); err != ErrNotFound {
		t.Fatalf("edges are directed; expected ErrNotFound for a->b, got %v", err)
	}

	followers, err := ListFollowers(ctx, db, "a")
	if err != nil {
		t.Fatalf("ListFollowers: %v", err)
	}
	if len(followers) != 2 || followers[0].ID != "b" || followers[1].ID != "c" {
		t.Fatalf("unexpected followers order: %+v", followers)
	}
	followings, err := ListFollowings(ctx, db, "b")
	if err != nil || len(followings) != 1 || followings[0].ID != "a" {
		t.Fatalf("ListFollowings: %+v %v", followings, err)
	}

	if n, _ := CountFollowers(ctx, db, "a"); n != 2 {
		t.Fatalf("CountFollowers = %d, want 2", n)
	}
	if n, _ := CountFollowings(ctx, db, "a"); n != 0 {
		t.Fatalf("CountFollowings = %d, want 0", n)
	}

	n, err := DeleteRelationship(ctx, db, "b", "a")
	if err != nil || n != 1 {
		t.Fatalf("DeleteRelationship = %d, %v", n, err)
	}
	n, err = DeleteRelationship(ctx, db, "b", "a")
	if err != nil || n != 0 {
		t.Fatalf("second DeleteRelationship = %d, %v", n, err)
	}
}

func TestRelationshipRepo_SelfFollowRejectedByCheck(t *testing.T) {
	db := newRepoDB(t)
	seedUser(t, db, "a")
	if _, err := CreateRelationship(context.Background(), db, "a", "a"); err == nil {
		t.Fatalf("expected check constraint to reject self-follow")
	}
}

func TestPostRepo_CRUDAndOwnership(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	p, err := CreatePost(ctx, db, "u1", "hello", "world")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if ok, _ := PostExists(ctx, db, p.ID); !ok {
		t.Fatalf("PostExists should be true")
	}

	if err := UpdatePost(ctx, db, p.ID, "u2", "x", "y"); err != ErrNotFound {
		t.Fatalf("update by non-owner should be ErrNotFound, got %v", err)
	}
	if err := UpdatePost(ctx, db, p.ID, "u1", "hello2", "world2"); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	got, err := GetPost(ctx, db, p.ID)
	if err != nil || got.Title != "hello2" || got.Content != "world2" {
		t.Fatalf("GetPost after update: %+v %v", got, err)
	}

	if _, err := CreateLike(ctx, db, "u2", p.ID); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if _, err := CreateComment(ctx, db, p.ID, "u2", "nice"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := DeletePost(ctx, db, p.ID, "u2"); err != ErrNotFound {
		t.Fatalf("delete by non-owner should be ErrNotFound, got %v", err)
	}
	if err := DeletePost(ctx, db, p.ID, "u1"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if n, _ := CountLikes(ctx, db, p.ID); n != 0 {
		t.Fatalf("likes should be gone with the post, got %d", n)
	}
	if cs, _ := ListComments(ctx, db, p.ID); len(cs) != 0 {
		t.Fatalf("comments should be gone with the post, got %d", len(cs))
	}
}

func TestPostRepo_PagingNewestFirst(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	seedPost(t, db, "p1", "u1", t0)
	seedPost(t, db, "p2", "u1", t0.Add(time.Minute))
	seedPost(t, db, "p3", "u2", t0.Add(2*time.Minute))

	page, err := ListPostsPage(ctx, db, 0, 2)
	if err != nil || len(page) != 2 || page[0].ID != "p3" || page[1].ID != "p2" {
		t.Fatalf("ListPostsPage first page: %+v %v", page, err)
	}
	page, err = ListPostsPage(ctx, db, 2, 2)
	if err != nil || len(page) != 1 || page[0].ID != "p1" {
		t.Fatalf("ListPostsPage second page: %+v %v", page, err)
	}
	if n, _ := CountPosts(ctx, db); n != 3 {
		t.Fatalf("CountPosts = %d", n)
	}
	mine, err := ListPostsByUser(ctx, db, "u1")
	if err != nil || len(mine) != 2 || mine[0].ID != "p2" {
		t.Fatalf("ListPostsByUser: %+v %v", mine, err)
	}
}

func TestLikeRepo_UniqueCountsAndLikedPosts(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	t0 := time.Now().UTC()
	seedPost(t, db, "p1", "u3", t0)
	seedPost(t, db, "p2", "u3", t0)

	if _, err := CreateLike(ctx, db, "u1", "p1"); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if _, err := CreateLike(ctx, db, "u1", "p1"); !IsDuplicate(err) {
		t.Fatalf("expected duplicate like, got %v", err)
	}
	if _, err := CreateLike(ctx, db, "u2", "p1"); err != nil {
		t.Fatalf("CreateLike u2: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := CreateLike(ctx, db, "u1", "p2"); err != nil {
		t.Fatalf("CreateLike p2: %v", err)
	}
	if _, err := CreateLike(ctx, db, "u1", "missing-post"); !IsForeignKey(err) {
		t.Fatalf("expected foreign key violation for unknown post, got %v", err)
	}

	if n, _ := CountLikes(ctx, db, "p1"); n != 2 {
		t.Fatalf("CountLikes(p1) = %d, want 2", n)
	}
	counts, err := LikeCounts(ctx, db, []string{"p1", "p2", "p3"})
	if err != nil || counts["p1"] != 2 || counts["p2"] != 1 || counts["p3"] != 0 {
		t.Fatalf("LikeCounts: %v %v", counts, err)
	}

	liked, err := ListLikedPosts(ctx, db, "u1")
	if err != nil || len(liked) != 2 || liked[0].ID != "p2" {
		t.Fatalf("ListLikedPosts: %+v %v", liked, err)
	}

	if _, err := GetLike(ctx, db, "u2", "p1"); err != nil {
		t.Fatalf("GetLike: %v", err)
	}
	if n, err := DeleteLike(ctx, db, "u2", "p1"); err != nil || n != 1 {
		t.Fatalf("DeleteLike = %d, %v", n, err)
	}
	if n, err := DeleteLike(ctx, db, "u2", "p1"); err != nil || n != 0 {
		t.Fatalf("second DeleteLike = %d, %v", n, err)
	}
}

func TestCommentRepo_OrderedOldestFirst(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedPost(t, db, "p1", "u1", time.Now().UTC())

	first, err := CreateComment(ctx, db, "p1", "u2", "first")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := CreateComment(ctx, db, "p1", "u3", "second"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	cs, err := ListComments(ctx, db, "p1")
	if err != nil || len(cs) != 2 || cs[0].ID != first.ID {
		t.Fatalf("ListComments: %+v %v", cs, err)
	}
}

func TestPostStore_Proxies(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	var store PostStore

	p1, err := store.CreatePost(ctx, db, "u1", "t1", "c1")
	if err != nil || p1.ID == "" || p1.UserID != "u1" {
		t.Fatalf("CreatePost: %+v %v", p1, err)
	}
	if err := store.UpdatePost(ctx, db, p1.ID, "u1", "t1-renamed", "c1"); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	got, err := store.GetPost(ctx, db, p1.ID)
	if err != nil || got.Title != "t1-renamed" {
		t.Fatalf("GetPost: %+v %v", got, err)
	}
	for _, title := range []string{"t2", "t3"} {
		if _, err := store.CreatePost(ctx, db, "u1", title, "c"); err != nil {
			t.Fatalf("CreatePost %s: %v", title, err)
		}
	}
	if n, err := store.CountPosts(ctx, db); err != nil || n != 3 {
		t.Fatalf("CountPosts = %d, %v", n, err)
	}
	if page, err := store.ListPostsPage(ctx, db, 0, 2); err != nil || len(page) != 2 {
		t.Fatalf("ListPostsPage: %d %v", len(page), err)
	}
	if _, err := CreateLike(ctx, db, "u2", p1.ID); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	counts, err := store.LikeCounts(ctx, db, []string{p1.ID})
	if err != nil || counts[p1.ID] != 1 {
		t.Fatalf("LikeCounts: %v %v", counts, err)
	}
	if err := store.DeletePost(ctx, db, p1.ID, "u1"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
}
