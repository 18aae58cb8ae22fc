package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/forum"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

// ThreadController manages topics: creation, listing, the detail view with
// its nested reply tree, updates, and cascading deletion.
type ThreadController struct {
	db *gorm.DB
}

// NewThreadController creates a new ThreadController instance.
func NewThreadController(db *gorm.DB) *ThreadController {
	return &ThreadController{db: db}
}

// CreateThread opens a topic in a category. Multipart so an attachment can
// ride along.
func (t *ThreadController) CreateThread(ctx *gin.Context) {
	actor, ok := currentUser(t.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	catID, err := strconv.ParseUint(ctx.PostForm("cat_id"), 10, 32)
	if err != nil {
		utils.FieldErrors(ctx, 40030, map[string]string{"cat_id": "must be a category id"})
		return
	}
	title := strings.TrimSpace(ctx.PostForm("title"))
	if len(title) < 2 || len(title) > 255 {
		utils.FieldErrors(ctx, 40031, map[string]string{"title": "must be 2-255 characters"})
		return
	}
	content := strings.TrimSpace(ctx.PostForm("content"))

	var category models.Category
	if err := t.db.First(&category, uint(catID)).Error; err != nil || category.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40420, "category not found")
		return
	}

	thread := models.Thread{
		CatID:     category.ID,
		Title:     title,
		CreatorID: actor.ID,
		Content:   content,
	}

	if file, header, err := ctx.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		filename := utils.GenerateUploadsFilename(header.Filename)
		if err := utils.SaveToUploads(file, filename); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store attachment")
			return
		}
		thread.AttachmentFilename = filename
	}

	if err := t.db.Create(&thread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create thread")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Success(ctx, threadJSON(thread, actor, nil))
}

// ListThreads returns all non-deleted threads, newest first.
func (t *ThreadController) ListThreads(ctx *gin.Context) {
	var threads []models.Thread
	if err := t.db.Where("deleted = ?", false).Order("id DESC").Find(&threads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load threads")
		return
	}

	creatorIDs := make([]uint, 0, len(threads))
	for _, thread := range threads {
		creatorIDs = append(creatorIDs, thread.CreatorID)
	}
	creators, err := usersByID(t.db, creatorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load creators")
		return
	}

	items := make([]gin.H, 0, len(threads))
	for _, thread := range threads {
		items = append(items, threadJSON(thread, userPtr(creators, thread.CreatorID), nil))
	}
	utils.Success(ctx, items)
}

// GetThread returns the detail view: the thread plus its nested reply
// tree. Every fetch bumps the raw view counter; the increment runs as a
// SQL expression so racing requests at worst lose a count, never corrupt
// one.
func (t *ThreadController) GetThread(ctx *gin.Context) {
	thread, ok := t.load(ctx)
	if !ok {
		return
	}

	if err := t.db.Model(thread).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		utils.Sugar.Warnf("view count increment failed for thread %d: %v", thread.ID, err)
	}
	thread.Views++

	var posts []models.Post
	if err := t.db.Where("thread_id = ?", thread.ID).Order("id").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load posts")
		return
	}

	actorIDs := make([]uint, 0, len(posts)+1)
	actorIDs = append(actorIDs, thread.CreatorID)
	for _, p := range posts {
		actorIDs = append(actorIDs, p.AuthorID)
	}
	users, err := usersByID(t.db, actorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load authors")
		return
	}

	postIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
	}

	tree := forum.BuildReplyTree(posts, actorDeletedFunc(users))

	payload := threadJSON(*thread, userPtr(users, thread.CreatorID), postIDs)
	payload["content"] = utils.RenderContent(thread.Content)
	payload["replies"] = renderNodes(tree, users)
	utils.Success(ctx, payload)
}

// renderNodes shapes the reply forest for the API: tombstoned content
// becomes a literal "[deleted]" marker, tombstoned authors become null,
// children nest under "replies".
func renderNodes(nodes []forum.ReplyNode, users map[uint]models.User) []gin.H {
	out := make([]gin.H, 0, len(nodes))
	for _, node := range nodes {
		var author interface{}
		if node.Author == forum.Full {
			if u, ok := users[node.Post.AuthorID]; ok {
				author = u.Username
			}
		}

		content := "[deleted]"
		var attachment interface{}
		if node.Content == forum.Full {
			content = utils.RenderContent(node.Post.Content)
			attachment = attachmentURL(node.Post.AttachmentFilename)
		}

		out = append(out, gin.H{
			"id":             node.Post.ID,
			"author":         author,
			"content":        content,
			"creation_date":  node.Post.CreatedAt,
			"deleted":        node.Post.Deleted,
			"attachment_url": attachment,
			"replies":        renderNodes(node.Children, users),
		})
	}
	return out
}

// UpdateThread alters title, content, or attachment. Creator only.
func (t *ThreadController) UpdateThread(ctx *gin.Context) {
	actor, ok := currentUser(t.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	thread, ok := t.load(ctx)
	if !ok {
		return
	}
	if thread.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40430, "thread not found")
		return
	}
	if actor.ID != thread.CreatorID {
		utils.Error(ctx, http.StatusForbidden, 40330, "only the creator may update a thread")
		return
	}

	updated := false
	if title, present := formValue(ctx, "title"); present {
		title = strings.TrimSpace(title)
		if len(title) < 2 || len(title) > 255 {
			utils.FieldErrors(ctx, 40031, map[string]string{"title": "must be 2-255 characters"})
			return
		}
		thread.Title = title
		updated = true
	}
	if content, present := formValue(ctx, "content"); present {
		thread.Content = strings.TrimSpace(content)
		updated = true
	}
	if file, header, err := ctx.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		if thread.AttachmentFilename != "" {
			utils.DeleteUpload(thread.AttachmentFilename)
		}
		filename := utils.GenerateUploadsFilename(header.Filename)
		if err := utils.SaveToUploads(file, filename); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to store attachment")
			return
		}
		thread.AttachmentFilename = filename
		updated = true
	}

	if !updated {
		utils.Success(ctx, gin.H{"message": "no changes were made"})
		return
	}

	if err := t.db.Save(thread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to update thread")
		return
	}
	utils.Success(ctx, threadJSON(*thread, actor, nil))
}

// DeleteThread cascades a soft delete over the thread and its posts.
// Admins, moderators over plain users, or the creator.
func (t *ThreadController) DeleteThread(ctx *gin.Context) {
	actor, ok := currentUser(t.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	thread, ok := t.load(ctx)
	if !ok {
		return
	}
	if thread.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40430, "thread not found")
		return
	}

	var creator models.User
	if err := t.db.First(&creator, thread.CreatorID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load creator")
		return
	}
	if !canModerate(actor, creator.Role, creator.ID) {
		utils.Error(ctx, http.StatusForbidden, 40331, "not allowed to delete this thread")
		return
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		return forum.DeleteThread(tx, thread, utils.DeleteUpload)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to delete thread")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Sugar.Infow("thread deleted", "thread_id", thread.ID, "by", actor.Username)
	utils.Success(ctx, gin.H{"message": "thread deleted successfully"})
}

func (t *ThreadController) load(ctx *gin.Context) (*models.Thread, bool) {
	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "thread not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to load thread")
		}
		return nil, false
	}
	return &thread, true
}

func userPtr(users map[uint]models.User, id uint) *models.User {
	if u, ok := users[id]; ok {
		return &u
	}
	return nil
}
