package forum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thehouse/forum/models"
)

func cascadeDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Thread{}, &models.Post{}))
	return db
}

type removerSpy struct {
	removed []string
}

func (r *removerSpy) remove(filename string) {
	r.removed = append(r.removed, filename)
}

func TestDeletePostScrubsAndRemovesAttachment(t *testing.T) {
	db := cascadeDB(t)
	post := models.Post{CatID: 1, ThreadID: 1, AuthorID: 1, Content: "hello", AttachmentFilename: "ab12cd34.png"}
	require.NoError(t, db.Create(&post).Error)

	spy := &removerSpy{}
	require.NoError(t, DeletePost(db, &post, spy.remove))

	var row models.Post
	require.NoError(t, db.First(&row, post.ID).Error)
	assert.True(t, row.Deleted)
	assert.Empty(t, row.Content)
	assert.Empty(t, row.AttachmentFilename)
	assert.Equal(t, []string{"ab12cd34.png"}, spy.removed)
}

func TestDeletePostIdempotent(t *testing.T) {
	db := cascadeDB(t)
	post := models.Post{CatID: 1, ThreadID: 1, AuthorID: 1, Content: "hello", AttachmentFilename: "ab12cd34.png"}
	require.NoError(t, db.Create(&post).Error)

	spy := &removerSpy{}
	require.NoError(t, DeletePost(db, &post, spy.remove))
	require.NoError(t, DeletePost(db, &post, spy.remove))

	// Second call is a no-op: no second removal, state unchanged.
	assert.Len(t, spy.removed, 1)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	require.NoError(t, DeletePost(db, &reloaded, spy.remove))
	assert.Len(t, spy.removed, 1)
}

func TestDeleteThreadCascadesToPosts(t *testing.T) {
	db := cascadeDB(t)
	thread := models.Thread{CatID: 1, Title: "topic", CreatorID: 1, AttachmentFilename: "thread.png"}
	require.NoError(t, db.Create(&thread).Error)
	posts := []models.Post{
		{CatID: 1, ThreadID: thread.ID, AuthorID: 2, Content: "a", AttachmentFilename: "a.png"},
		{CatID: 1, ThreadID: thread.ID, AuthorID: 3, Content: "b"},
	}
	require.NoError(t, db.Create(&posts).Error)
	other := models.Post{CatID: 1, ThreadID: thread.ID + 1, AuthorID: 2, Content: "elsewhere"}
	require.NoError(t, db.Create(&other).Error)

	spy := &removerSpy{}
	require.NoError(t, DeleteThread(db, &thread, spy.remove))

	var rows []models.Post
	require.NoError(t, db.Where("thread_id = ?", thread.ID).Find(&rows).Error)
	for _, row := range rows {
		assert.True(t, row.Deleted)
		assert.Empty(t, row.Content)
	}

	var reloaded models.Thread
	require.NoError(t, db.First(&reloaded, thread.ID).Error)
	assert.True(t, reloaded.Deleted)
	assert.Empty(t, reloaded.Title)

	// Post attachments drop before the thread's own.
	assert.Equal(t, []string{"a.png", "thread.png"}, spy.removed)

	var untouched models.Post
	require.NoError(t, db.First(&untouched, other.ID).Error)
	assert.False(t, untouched.Deleted)
}

func TestDeleteCategoryCascadesTransitively(t *testing.T) {
	db := cascadeDB(t)
	category := models.Category{Title: "general", Description: "talk"}
	require.NoError(t, db.Create(&category).Error)
	threads := []models.Thread{
		{CatID: category.ID, Title: "one", CreatorID: 1},
		{CatID: category.ID, Title: "two", CreatorID: 2},
	}
	require.NoError(t, db.Create(&threads).Error)
	posts := []models.Post{
		{CatID: category.ID, ThreadID: threads[0].ID, AuthorID: 2, Content: "x"},
		{CatID: category.ID, ThreadID: threads[1].ID, AuthorID: 1, Content: "y"},
	}
	require.NoError(t, db.Create(&posts).Error)

	require.NoError(t, DeleteCategory(db, &category, nil))

	var postCount, threadCount int64
	db.Model(&models.Post{}).Where("cat_id = ? AND deleted = ?", category.ID, false).Count(&postCount)
	db.Model(&models.Thread{}).Where("cat_id = ? AND deleted = ?", category.ID, false).Count(&threadCount)
	assert.Zero(t, postCount)
	assert.Zero(t, threadCount)

	var reloaded models.Category
	require.NoError(t, db.First(&reloaded, category.ID).Error)
	assert.True(t, reloaded.Deleted)
	assert.Empty(t, reloaded.Description)
	// Title stays reserved.
	assert.Equal(t, "general", reloaded.Title)
}

func TestDeleteUserCascadesAndScrubsAccount(t *testing.T) {
	db := cascadeDB(t)
	user := models.User{Username: "mallory", PasswordHash: "x", Role: models.RoleModerator, Bio: "hi", PictureFilename: "face.png"}
	require.NoError(t, db.Create(&user).Error)
	thread := models.Thread{CatID: 1, Title: "mine", CreatorID: user.ID}
	require.NoError(t, db.Create(&thread).Error)
	post := models.Post{CatID: 1, ThreadID: thread.ID, AuthorID: user.ID, Content: "me"}
	require.NoError(t, db.Create(&post).Error)

	spy := &removerSpy{}
	require.NoError(t, DeleteUser(db, &user, spy.remove))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.Deleted)
	assert.Equal(t, models.RoleUser, reloaded.Role)
	assert.Empty(t, reloaded.PictureFilename)
	// Username stays reserved so it can never be re-registered.
	assert.Equal(t, "mallory", reloaded.Username)

	var threadRow models.Thread
	require.NoError(t, db.First(&threadRow, thread.ID).Error)
	assert.True(t, threadRow.Deleted)
	var postRow models.Post
	require.NoError(t, db.First(&postRow, post.ID).Error)
	assert.True(t, postRow.Deleted)

	assert.Equal(t, []string{"face.png"}, spy.removed)

	// Deleting again touches nothing.
	require.NoError(t, DeleteUser(db, &reloaded, spy.remove))
	assert.Len(t, spy.removed, 1)
}
