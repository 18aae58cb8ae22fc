package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/forum"
	"github.com/thehouse/forum/middleware"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// currentUser resolves the acting user from the request token. Deleted
// accounts do not authenticate: their tokens identify nobody.
func currentUser(db *gorm.DB, ctx *gin.Context) (*models.User, bool) {
	id, ok := getUserID(ctx)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, false
	}
	if user.Deleted {
		return nil, false
	}
	return &user, true
}

// canModerate is the shared ownership/role predicate for destructive
// actions on threads and posts: admins always, moderators over plain
// users, owners over their own content.
func canModerate(actor *models.User, ownerRole string, ownerID uint) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role == models.RoleModerator && ownerRole == models.RoleUser {
		return true
	}
	return actor.ID == ownerID
}

// usersByID batch-loads the given user ids into a map. Ids that do not
// resolve are simply absent.
func usersByID(db *gorm.DB, ids []uint) (map[uint]models.User, error) {
	byID := make(map[uint]models.User, len(ids))
	ids = utils.UniqueUint(ids)
	if len(ids) == 0 {
		return byID, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// actorDeletedFunc adapts a loaded user map to the visibility callbacks the
// forum package takes. Unknown ids count as deleted.
func actorDeletedFunc(users map[uint]models.User) func(uint) bool {
	return func(id uint) bool {
		u, ok := users[id]
		return !ok || u.Deleted
	}
}

func attachmentURL(filename string) interface{} {
	if filename == "" {
		return nil
	}
	return "/up/" + filename
}

// threadJSON mirrors the API's thread shape: creator replaced by username
// (null when the account is deleted), attachment_filename replaced by
// attachment_url, plus the ids of every post under the thread.
func threadJSON(thread models.Thread, creator *models.User, postIDs []uint) gin.H {
	var creatorField interface{}
	if creator != nil && !creator.Deleted {
		creatorField = creator.Username
	}
	return gin.H{
		"id":             thread.ID,
		"cat_id":         thread.CatID,
		"title":          thread.Title,
		"creator":        creatorField,
		"content":        thread.Content,
		"creation_date":  thread.CreatedAt,
		"views":          thread.Views,
		"deleted":        thread.Deleted,
		"attachment_url": attachmentURL(thread.AttachmentFilename),
		"posts":          postIDs,
	}
}

// postJSON mirrors the API's post shape, author shaped like thread creator.
func postJSON(post models.Post, author *models.User) gin.H {
	var authorField interface{}
	if author != nil && !author.Deleted {
		authorField = author.Username
	}
	return gin.H{
		"id":             post.ID,
		"cat_id":         post.CatID,
		"thread_id":      post.ThreadID,
		"author":         authorField,
		"content":        post.Content,
		"creation_date":  post.CreatedAt,
		"replying_to":    post.ReplyingTo,
		"attachment_url": attachmentURL(post.AttachmentFilename),
		"deleted":        post.Deleted,
	}
}

// activityRefs shapes an activity feed into the {type, id} pairs the API
// exposes.
func activityRefs(activities []forum.Activity) []gin.H {
	refs := make([]gin.H, 0, len(activities))
	for _, a := range activities {
		refs = append(refs, gin.H{"type": string(a.Type), "id": a.EntityID()})
	}
	return refs
}

func hasSpace(s string) bool {
	return strings.ContainsRune(s, ' ')
}
