package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

// StatsController provides forum statistics: entity counts and today's
// page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the forum. Individual count
// failures fall back to zero instead of failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount, threadCount, postCount, todayViews int64

	if err := s.db.Model(&models.User{}).Where("deleted = ?", false).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Thread{}).Where("deleted = ?", false).Count(&threadCount).Error; err != nil {
		threadCount = 0
	}
	if err := s.db.Model(&models.Post{}).Where("deleted = ?", false).Count(&postCount).Error; err != nil {
		postCount = 0
	}

	// Same local midnight the recorder writes, so equality holds on the DATE
	// column.
	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		todayViews = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":   userCount,
		"thread_count": threadCount,
		"post_count":   postCount,
		"views_today":  todayViews,
	})
}
