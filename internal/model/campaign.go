package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CampaignStatus string

const (
	CampaignUpcoming  CampaignStatus = "upcoming"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
)

type Campaign struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Category     string
	Status       CampaignStatus
	Reward       decimal.Decimal
	DurationDays int
	StartDate    time.Time
	EndDate      time.Time
	CO2Impact    decimal.Decimal
	CreatedAt    time.Time

	// Aggregates computed by the repository, not stored on the row.
	Participants   int
	TaskCount      int
	CompletedTasks int

	Tasks []CampaignTask
}

type TaskType string

const (
	TaskSocialFollow TaskType = "social-follow"
	TaskSocialPost   TaskType = "social-post"
	TaskVideoWatch   TaskType = "video-watch"
	TaskArticleRead  TaskType = "article-read"
	TaskDiscordJoin  TaskType = "discord-join"
	TaskProofUpload  TaskType = "proof-upload"
)

// RequiresProof reports whether the task must go through proof submission
// and admin review instead of the immediate completion path.
func (t TaskType) RequiresProof() bool {
	return t == TaskProofUpload || t == TaskSocialPost
}

func (t TaskType) Valid() bool {
	switch t {
	case TaskSocialFollow, TaskSocialPost, TaskVideoWatch,
		TaskArticleRead, TaskDiscordJoin, TaskProofUpload:
		return true
	}
	return false
}

type CampaignTask struct {
	ID           uuid.UUID
	CampaignID   uuid.UUID
	Day          int
	Title        string
	Description  string
	Type         TaskType
	Reward       decimal.Decimal
	Requirements []string
	CO2Impact    decimal.Decimal
}
