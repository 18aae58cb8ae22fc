package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/forum"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

const categoryListCacheKey = "cache:categories:list"

// CategoryController manages boards and their activity feeds.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// CreateCategory adds a board. Admin only.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	actor, ok := currentUser(c.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if actor.Role != models.RoleAdmin {
		utils.Error(ctx, http.StatusForbidden, 40320, "only admins may create categories")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	fields := map[string]string{}
	title := strings.TrimSpace(req.Title)
	if len(title) < 2 || len(title) > 20 {
		fields["title"] = "must be 2-20 characters"
	} else if hasSpace(title) {
		fields["title"] = "must not contain spaces"
	}
	description := strings.TrimSpace(req.Description)
	if len(description) < 2 || len(description) > 150 {
		fields["description"] = "must be 2-150 characters"
	}
	if len(fields) == 0 {
		var count int64
		if err := c.db.Model(&models.Category{}).Where("title = ?", title).Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to check title")
			return
		}
		if count > 0 {
			// Titles stay reserved even after the category is deleted.
			fields["title"] = "must be unique"
		}
	}
	if len(fields) > 0 {
		utils.FieldErrors(ctx, 40021, fields)
		return
	}

	category := models.Category{Title: title, Description: description}
	if err := c.db.Create(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create category")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Success(ctx, category)
}

// ListCategories returns all non-deleted boards with thread lists and last
// activity. Cached until a write invalidates it.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(categoryListCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var categories []models.Category
	if err := c.db.Where("deleted = ?", false).Order("id").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load categories")
		return
	}

	items := make([]gin.H, 0, len(categories))
	for _, category := range categories {
		item, err := c.categoryJSON(category)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load category feed")
			return
		}
		items = append(items, item)
	}

	payload := utils.JSONResponse{Code: 0, Message: "success", Data: items}
	utils.CacheSetJSON(categoryListCacheKey, payload, 0)
	ctx.JSON(http.StatusOK, payload)
}

// GetCategory returns one board by id, deleted or not, with its feed.
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	category, ok := c.load(ctx)
	if !ok {
		return
	}

	item, err := c.categoryJSON(*category)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load category feed")
		return
	}
	utils.Success(ctx, item)
}

// UpdateCategory alters title or description. Admin only.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	actor, ok := currentUser(c.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if actor.Role != models.RoleAdmin {
		utils.Error(ctx, http.StatusForbidden, 40321, "only admins may update categories")
		return
	}

	category, ok := c.load(ctx)
	if !ok {
		return
	}
	if category.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40420, "category not found")
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	updated := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 2 || len(title) > 20 || hasSpace(title) {
			utils.FieldErrors(ctx, 40023, map[string]string{"title": "must be 2-20 characters with no spaces"})
			return
		}
		category.Title = title
		updated = true
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if len(description) < 2 || len(description) > 150 {
			utils.FieldErrors(ctx, 40024, map[string]string{"description": "must be 2-150 characters"})
			return
		}
		category.Description = description
		updated = true
	}

	if !updated {
		utils.Success(ctx, gin.H{"message": "no changes were made"})
		return
	}

	if err := c.db.Save(category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to update category")
		return
	}
	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Success(ctx, category)
}

// DeleteCategory cascades a soft delete over the board, its threads, and
// their posts. Admin only. Deleting an already-deleted board reports not
// found but leaves state untouched.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	actor, ok := currentUser(c.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if actor.Role != models.RoleAdmin {
		utils.Error(ctx, http.StatusForbidden, 40322, "only admins may delete categories")
		return
	}

	category, ok := c.load(ctx)
	if !ok {
		return
	}
	if category.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40420, "category not found")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		return forum.DeleteCategory(tx, category, utils.DeleteUpload)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to delete category")
		return
	}

	utils.InvalidateByPrefix(categoryListCacheKey)
	utils.Sugar.Infow("category deleted", "title", category.Title, "by", actor.Username)
	utils.Success(ctx, gin.H{"message": "category deleted successfully"})
}

func (c *CategoryController) load(ctx *gin.Context) (*models.Category, bool) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "category not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load category")
		}
		return nil, false
	}
	return &category, true
}

// categoryJSON shapes a board with its non-deleted thread ids and the last
// activity reference ({type, id} or null).
func (c *CategoryController) categoryJSON(category models.Category) (gin.H, error) {
	var threads []models.Thread
	if err := c.db.Where("cat_id = ?", category.ID).Order("id").Find(&threads).Error; err != nil {
		return nil, err
	}
	var posts []models.Post
	if err := c.db.Where("cat_id = ?", category.ID).Order("id").Find(&posts).Error; err != nil {
		return nil, err
	}

	actorIDs := make([]uint, 0, len(threads)+len(posts))
	for _, t := range threads {
		actorIDs = append(actorIDs, t.CreatorID)
	}
	for _, p := range posts {
		actorIDs = append(actorIDs, p.AuthorID)
	}
	users, err := usersByID(c.db, actorIDs)
	if err != nil {
		return nil, err
	}

	threadIDs := make([]uint, 0, len(threads))
	for _, t := range threads {
		if !t.Deleted {
			threadIDs = append(threadIDs, t.ID)
		}
	}

	feed := forum.CategoryActivity(threads, posts, actorDeletedFunc(users))
	var lastActivity interface{}
	if last := forum.LastActivity(feed); last != nil {
		lastActivity = gin.H{"type": string(last.Type), "id": last.EntityID()}
	}

	return gin.H{
		"id":            category.ID,
		"title":         category.Title,
		"description":   category.Description,
		"deleted":       category.Deleted,
		"threads":       threadIDs,
		"last_activity": lastActivity,
	}, nil
}
