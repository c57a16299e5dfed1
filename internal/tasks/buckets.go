package tasks

import (
	"time"

	"loanpipe-backend/internal/crm"
)

// Bucket names the dashboard's task panes. Buckets overlap (an overdue
// assigned task lands in both overdue and mine) and membership is
// recomputed on every fetch, never stored.
const (
	BucketToday        = "today"
	BucketOverdue      = "overdue"
	BucketUpcoming     = "upcoming"
	BucketCompleted    = "completed"
	BucketMine         = "mine"
	BucketHighPriority = "highPriority"
)

var bucketOrder = []string{
	BucketToday,
	BucketOverdue,
	BucketUpcoming,
	BucketCompleted,
	BucketMine,
	BucketHighPriority,
}

type Buckets map[string][]crm.Task

// Classify sorts tasks into the dashboard buckets relative to now in
// loc. userID scopes the "mine" bucket.
func Classify(list []crm.Task, userID string, now time.Time, loc *time.Location) Buckets {
	buckets := make(Buckets, len(bucketOrder))
	for _, name := range bucketOrder {
		buckets[name] = []crm.Task{}
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, task := range list {
		if task.Completed {
			buckets[BucketCompleted] = append(buckets[BucketCompleted], task)
		}
		if userID != "" && task.AssignedTo == userID {
			buckets[BucketMine] = append(buckets[BucketMine], task)
		}
		if task.Priority == "high" || task.Priority == "urgent" {
			buckets[BucketHighPriority] = append(buckets[BucketHighPriority], task)
		}

		if task.Completed {
			continue
		}
		due, ok := parseDue(task.DueDate, loc)
		if !ok {
			continue
		}
		switch {
		case due.Before(dayStart):
			buckets[BucketOverdue] = append(buckets[BucketOverdue], task)
		case due.Before(dayEnd):
			buckets[BucketToday] = append(buckets[BucketToday], task)
		default:
			buckets[BucketUpcoming] = append(buckets[BucketUpcoming], task)
		}
	}
	return buckets
}

func parseDue(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if due, err := time.Parse(time.RFC3339, raw); err == nil {
		return due.In(loc), true
	}
	if due, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return due, true
	}
	return time.Time{}, false
}
