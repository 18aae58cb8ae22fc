package forum

import (
	"sort"
	"time"

	"github.com/thehouse/forum/models"
)

// ActivityType tags an entry in an activity feed.
type ActivityType string

const (
	// ActivityThreadCreation marks a thread being opened.
	ActivityThreadCreation ActivityType = "thread_creation"
	// ActivityNewPost marks a reply being posted.
	ActivityNewPost ActivityType = "new_post"
)

// Activity is a tagged union of the two event kinds. Exactly one of Thread
// and Post is set, matching Type.
type Activity struct {
	Type   ActivityType
	Thread *models.Thread
	Post   *models.Post
}

// CreatedAt returns the event timestamp regardless of kind.
func (a Activity) CreatedAt() time.Time {
	if a.Type == ActivityThreadCreation {
		return a.Thread.CreatedAt
	}
	return a.Post.CreatedAt
}

// EntityID returns the id of the underlying thread or post.
func (a Activity) EntityID() uint {
	if a.Type == ActivityThreadCreation {
		return a.Thread.ID
	}
	return a.Post.ID
}

// CategoryActivity merges a category's threads and posts into one feed
// sorted ascending by creation time. Entries whose item or owning actor is
// deleted are hidden. Equal timestamps fall back to ascending entity id so
// repeated runs over the same rows produce identical output.
//
// actorDeleted reports whether a user id belongs to a deleted account;
// unknown ids should report true.
func CategoryActivity(threads []models.Thread, posts []models.Post, actorDeleted func(id uint) bool) []Activity {
	activities := make([]Activity, 0, len(threads)+len(posts))

	for i := range threads {
		if FeedVisibility(threads[i].Deleted, actorDeleted(threads[i].CreatorID)) == Hidden {
			continue
		}
		activities = append(activities, Activity{Type: ActivityThreadCreation, Thread: &threads[i]})
	}
	for i := range posts {
		if FeedVisibility(posts[i].Deleted, actorDeleted(posts[i].AuthorID)) == Hidden {
			continue
		}
		activities = append(activities, Activity{Type: ActivityNewPost, Post: &posts[i]})
	}

	sortActivities(activities, false)
	return activities
}

// LastActivity returns the newest entry of an ascending feed, or nil when
// the feed is empty.
func LastActivity(activities []Activity) *Activity {
	if len(activities) == 0 {
		return nil
	}
	return &activities[len(activities)-1]
}

// UserActivity merges the threads and posts a user created into one feed
// sorted descending by creation time (most recent first). The caller is
// expected to pass only rows belonging to a known non-deleted user, so no
// actor filter applies; deleted items are still hidden. Ties break on
// ascending entity id, same as CategoryActivity.
func UserActivity(threads []models.Thread, posts []models.Post) []Activity {
	activities := make([]Activity, 0, len(threads)+len(posts))

	for i := range threads {
		if threads[i].Deleted {
			continue
		}
		activities = append(activities, Activity{Type: ActivityThreadCreation, Thread: &threads[i]})
	}
	for i := range posts {
		if posts[i].Deleted {
			continue
		}
		activities = append(activities, Activity{Type: ActivityNewPost, Post: &posts[i]})
	}

	sortActivities(activities, true)
	return activities
}

func sortActivities(activities []Activity, descending bool) {
	sort.SliceStable(activities, func(i, j int) bool {
		ti, tj := activities[i].CreatedAt(), activities[j].CreatedAt()
		if !ti.Equal(tj) {
			if descending {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		return activities[i].EntityID() < activities[j].EntityID()
	})
}
