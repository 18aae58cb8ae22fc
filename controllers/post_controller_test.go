package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehouse/forum/models"
)

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "topic")

	w, resp := doForm(t, r, http.MethodPost, "/api/posts", authToken(t, bob), map[string]string{
		"thread_id": fmt.Sprint(thread.ID),
		"content":   "a direct reply",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "bob", data["author"])
	assert.Nil(t, data["replying_to"])

	// Content is mandatory when there is no attachment.
	w, resp = doForm(t, r, http.MethodPost, "/api/posts", authToken(t, bob), map[string]string{
		"thread_id": fmt.Sprint(thread.ID),
		"content":   "   ",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Errors, "content")
}

func TestCreatePostNestedReply(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "topic")
	parent := seedPost(t, db, thread, alice.ID, "parent", nil)

	w, resp := doForm(t, r, http.MethodPost, "/api/posts", authToken(t, bob), map[string]string{
		"thread_id":   fmt.Sprint(thread.ID),
		"replying_to": fmt.Sprint(parent.ID),
		"content":     "nested",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, parent.ID, dataMap(t, resp)["replying_to"])
}

func TestCreatePostRejectsBadParents(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "here")
	elsewhere := seedThread(t, db, category.ID, alice.ID, "elsewhere")
	foreign := seedPost(t, db, elsewhere, alice.ID, "other thread", nil)

	deleted := seedPost(t, db, thread, alice.ID, "soon gone", nil)
	deleted.MarkDeleted()
	require.NoError(t, db.Save(&deleted).Error)

	token := authToken(t, alice)

	// Parent in another thread.
	w, _ := doForm(t, r, http.MethodPost, "/api/posts", token, map[string]string{
		"thread_id":   fmt.Sprint(thread.ID),
		"replying_to": fmt.Sprint(foreign.ID),
		"content":     "cross-thread",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleted parent.
	w, _ = doForm(t, r, http.MethodPost, "/api/posts", token, map[string]string{
		"thread_id":   fmt.Sprint(thread.ID),
		"replying_to": fmt.Sprint(deleted.ID),
		"content":     "too late",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Nonexistent parent.
	w, _ = doForm(t, r, http.MethodPost, "/api/posts", token, map[string]string{
		"thread_id":   fmt.Sprint(thread.ID),
		"replying_to": "99999",
		"content":     "into the void",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostInDeletedThread(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "closing")
	thread.MarkDeleted()
	require.NoError(t, db.Save(&thread).Error)

	w, _ := doForm(t, r, http.MethodPost, "/api/posts", authToken(t, alice), map[string]string{
		"thread_id": fmt.Sprint(thread.ID),
		"content":   "anyone here?",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "topic")
	post := seedPost(t, db, thread, alice.ID, "original", nil)

	path := fmt.Sprintf("/api/posts/%d", post.ID)
	w, _ := doForm(t, r, http.MethodPut, path, authToken(t, bob), map[string]string{"content": "edited by bob"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := doForm(t, r, http.MethodPut, path, authToken(t, alice), map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edited", dataMap(t, resp)["content"])

	// Content cannot be emptied when there is nothing else to show.
	w, resp = doForm(t, r, http.MethodPut, path, authToken(t, alice), map[string]string{"content": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Errors, "content")
}

func TestDeletePostModeration(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)
	mod := seedUser(t, db, "mod", models.RoleModerator)
	category := seedCategory(t, db, "general")
	thread := seedThread(t, db, category.ID, alice.ID, "topic")

	own := seedPost(t, db, thread, alice.ID, "mine", nil)
	byUser := seedPost(t, db, thread, bob.ID, "bob's", nil)
	byMod := seedPost(t, db, thread, mod.ID, "mod's", nil)

	// Authors may delete their own posts.
	w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", own.ID), authToken(t, alice), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Moderators may delete a plain user's post.
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", byUser.ID), authToken(t, mod), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A plain user may not delete a moderator's post.
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", byMod.ID), authToken(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Deleting a tombstone reports not found.
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", own.ID), authToken(t, alice), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
