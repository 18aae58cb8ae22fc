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

// PostController manages replies inside threads.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost adds a reply to a thread, optionally nested under another
// post. Multipart so an attachment can ride along; content may be empty
// only when an attachment is present.
func (p *PostController) CreatePost(ctx *gin.Context) {
	actor, ok := currentUser(p.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	threadID, err := strconv.ParseUint(ctx.PostForm("thread_id"), 10, 32)
	if err != nil {
		utils.FieldErrors(ctx, 40040, map[string]string{"thread_id": "must be a thread id"})
		return
	}

	var thread models.Thread
	if err := p.db.First(&thread, uint(threadID)).Error; err != nil || thread.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40430, "thread not found")
		return
	}

	content := strings.TrimSpace(ctx.PostForm("content"))

	var replyingTo *uint
	if raw := ctx.PostForm("replying_to"); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.FieldErrors(ctx, 40041, map[string]string{"replying_to": "must be a post id"})
			return
		}
		var parent models.Post
		if err := p.db.First(&parent, uint(parentID)).Error; err != nil {
			utils.Error(ctx, http.StatusNotFound, 40440, "post not found")
			return
		}
		// The parent must live in the same category and thread and still be
		// undeleted; this is the only place reply edges are validated, which
		// keeps the tree builder free of cross-thread references.
		if parent.CatID != thread.CatID || parent.ThreadID != thread.ID || parent.Deleted {
			utils.Error(ctx, http.StatusNotFound, 40440, "post not found")
			return
		}
		id := parent.ID
		replyingTo = &id
	}

	post := models.Post{
		CatID:      thread.CatID,
		ThreadID:   thread.ID,
		AuthorID:   actor.ID,
		Content:    content,
		ReplyingTo: replyingTo,
	}

	if file, header, err := ctx.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		filename := utils.GenerateUploadsFilename(header.Filename)
		if err := utils.SaveToUploads(file, filename); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to store attachment")
			return
		}
		post.AttachmentFilename = filename
	}

	if post.Content == "" && post.AttachmentFilename == "" {
		utils.FieldErrors(ctx, 40042, map[string]string{"content": "required unless an attachment is present"})
		return
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create post")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Success(ctx, postJSON(post, actor))
}

// ListPosts returns all non-deleted posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	var posts []models.Post
	if err := p.db.Where("deleted = ?", false).Order("id DESC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load posts")
		return
	}

	authorIDs := make([]uint, 0, len(posts))
	for _, post := range posts {
		authorIDs = append(authorIDs, post.AuthorID)
	}
	authors, err := usersByID(p.db, authorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load authors")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		items = append(items, postJSON(post, userPtr(authors, post.AuthorID)))
	}
	utils.Success(ctx, items)
}

// GetPost returns one post by id, deleted or not.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.load(ctx)
	if !ok {
		return
	}

	var author models.User
	var authorPtr *models.User
	if err := p.db.First(&author, post.AuthorID).Error; err == nil {
		authorPtr = &author
	}
	utils.Success(ctx, postJSON(*post, authorPtr))
}

// UpdatePost alters content or attachment. Author only.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	actor, ok := currentUser(p.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, ok := p.load(ctx)
	if !ok {
		return
	}
	if post.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40440, "post not found")
		return
	}
	if actor.ID != post.AuthorID {
		utils.Error(ctx, http.StatusForbidden, 40340, "only the author may update a post")
		return
	}

	updated := false
	if content, present := formValue(ctx, "content"); present {
		content = strings.TrimSpace(content)
		if content == "" && post.AttachmentFilename == "" {
			utils.FieldErrors(ctx, 40042, map[string]string{"content": "required unless an attachment is present"})
			return
		}
		post.Content = content
		updated = true
	}
	if file, header, err := ctx.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		if post.AttachmentFilename != "" {
			utils.DeleteUpload(post.AttachmentFilename)
		}
		filename := utils.GenerateUploadsFilename(header.Filename)
		if err := utils.SaveToUploads(file, filename); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to store attachment")
			return
		}
		post.AttachmentFilename = filename
		updated = true
	}

	if !updated {
		utils.Success(ctx, gin.H{"message": "no changes were made"})
		return
	}

	if err := p.db.Save(post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to update post")
		return
	}
	utils.Success(ctx, postJSON(*post, actor))
}

// DeletePost soft-deletes one post. Admins, moderators over plain users,
// or the author. The post's replies stay reachable under its tombstone.
func (p *PostController) DeletePost(ctx *gin.Context) {
	actor, ok := currentUser(p.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, ok := p.load(ctx)
	if !ok {
		return
	}
	if post.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40440, "post not found")
		return
	}

	var author models.User
	if err := p.db.First(&author, post.AuthorID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load author")
		return
	}
	if !canModerate(actor, author.Role, author.ID) {
		utils.Error(ctx, http.StatusForbidden, 40341, "not allowed to delete this post")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		return forum.DeletePost(tx, post, utils.DeleteUpload)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Success(ctx, gin.H{"message": "post deleted successfully"})
}

func (p *PostController) load(ctx *gin.Context) (*models.Post, bool) {
	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "post not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load post")
		}
		return nil, false
	}
	return &post, true
}
