package api

import (
	"errors"
	"net/http"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type campaignRoutes struct {
	cs service.CampaignServiceI
	ts service.TaskServiceI
}

func NewCampaignRoutes(handler *gin.RouterGroup, cs service.CampaignServiceI, ts service.TaskServiceI, session *auth.SessionAuth) {
	r := &campaignRoutes{cs: cs, ts: ts}

	h := handler.Group("/campaigns")
	h.Use(session.SessionMiddleware())
	{
		h.GET("", r.ListCampaigns)
		h.GET("/:campaign_id", r.GetCampaign)
		h.POST("/:campaign_id/join", r.JoinCampaign)
		h.POST("/:campaign_id/tasks/:task_id/proof", r.SubmitProof)
		h.POST("/:campaign_id/tasks/:task_id/complete", r.CompleteTask)
	}
}

type campaignResponse struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Status       string         `json:"status"`
	Reward       string         `json:"reward"`
	DurationDays int            `json:"duration_days"`
	StartDate    int64          `json:"start_date"`
	EndDate      int64          `json:"end_date"`
	CO2Impact    string         `json:"co2_impact"`
	Participants int            `json:"participants"`
	TaskCount    int            `json:"task_count"`
	Progress     float64        `json:"progress"`
	Tasks        []taskResponse `json:"tasks,omitempty"`
}

type taskResponse struct {
	ID            string   `json:"id"`
	Day           int      `json:"day"`
	Daily         bool     `json:"daily"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	Reward        string   `json:"reward"`
	Requirements  []string `json:"requirements"`
	CO2Impact     string   `json:"co2_impact"`
	RequiresProof bool     `json:"requires_proof"`
	Status        string   `json:"status,omitempty"`
	ProofURL      string   `json:"proof_url,omitempty"`
	PaidAmount    string   `json:"paid_amount,omitempty"`
}

func (r *campaignRoutes) ListCampaigns(c *gin.Context) {
	log := logger.Logger()

	campaigns, err := r.cs.ListActive(c.Request.Context())
	if err != nil {
		log.Error("failed to list campaigns", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list campaigns"})
		return
	}

	now := time.Now().UTC()
	out := make([]campaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		out[i] = toCampaignResponse(campaign, nil,
			service.CurrentDay(campaign.StartDate, campaign.DurationDays, now))
	}

	c.JSON(http.StatusOK, out)
}

func (r *campaignRoutes) GetCampaign(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	view, err := r.cs.GetForUser(c.Request.Context(), campaignID, session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		log.Error("failed to get campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign":    toCampaignResponse(view.Campaign, view.TaskStates, view.CurrentDay),
		"progress":    view.Progress,
		"current_day": view.CurrentDay,
		"joined":      view.Joined,
	})
}

func (r *campaignRoutes) JoinCampaign(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	err = r.cs.Join(c.Request.Context(), session.UserID, campaignID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, service.ErrCampaignNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "campaign is not active"})
		case errors.Is(err, service.ErrAlreadyJoined):
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already joined"})
		default:
			log.Error("failed to join campaign", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join campaign"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"joined": true})
}

type SubmitProofRequest struct {
	ProofURL string `json:"proof_url" binding:"required"`
}

func (r *campaignRoutes) SubmitProof(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	campaignID, taskID, ok := parseTaskPath(c)
	if !ok {
		return
	}

	var req SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof_url is required"})
		return
	}

	err := r.ts.SubmitProof(c.Request.Context(), session.UserID, campaignID, taskID, req.ProofURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrNotJoined):
			c.JSON(http.StatusForbidden, gin.H{"error": "join the campaign first"})
		case errors.Is(err, service.ErrProofNotExpected):
			c.JSON(http.StatusBadRequest, gin.H{"error": "this task does not take a proof"})
		case errors.Is(err, service.ErrProofRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "proof_url is required"})
		case errors.Is(err, service.ErrTaskAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "task already completed"})
		default:
			log.Error("failed to submit proof", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit proof"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(model.TaskPending)})
}

func (r *campaignRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	campaignID, taskID, ok := parseTaskPath(c)
	if !ok {
		return
	}

	paid, err := r.ts.CompleteTask(c.Request.Context(), session.UserID, campaignID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, service.ErrNotJoined):
			c.JSON(http.StatusForbidden, gin.H{"error": "join the campaign first"})
		case errors.Is(err, service.ErrProofRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "this task requires a proof submission"})
		case errors.Is(err, service.ErrTaskAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "task already completed"})
		default:
			log.Error("failed to complete task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": string(model.TaskCompleted),
		"reward": paid.String(),
	})
}

func parseTaskPath(c *gin.Context) (campaignID, taskID uuid.UUID, ok bool) {
	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err = uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return uuid.Nil, uuid.Nil, false
	}

	return campaignID, taskID, true
}

func toCampaignResponse(campaign *model.Campaign, states map[uuid.UUID]*model.TaskProgress, currentDay int) campaignResponse {
	resp := campaignResponse{
		ID:           campaign.ID.String(),
		Title:        campaign.Title,
		Description:  campaign.Description,
		Category:     campaign.Category,
		Status:       string(campaign.Status),
		Reward:       campaign.Reward.String(),
		DurationDays: campaign.DurationDays,
		StartDate:    campaign.StartDate.Unix(),
		EndDate:      campaign.EndDate.Unix(),
		CO2Impact:    campaign.CO2Impact.String(),
		Participants: campaign.Participants,
		TaskCount:    campaign.TaskCount,
		Progress:     service.Progress(campaign.CompletedTasks, campaign.TaskCount, campaign.Participants),
	}

	for _, task := range campaign.Tasks {
		tr := taskResponse{
			ID:            task.ID.String(),
			Day:           task.Day,
			Daily:         task.Day == currentDay,
			Title:         task.Title,
			Description:   task.Description,
			Type:          string(task.Type),
			Reward:        task.Reward.String(),
			Requirements:  task.Requirements,
			CO2Impact:     task.CO2Impact.String(),
			RequiresProof: task.Type.RequiresProof(),
		}
		if state, found := states[task.ID]; found {
			tr.Status = string(state.Status)
			tr.ProofURL = state.ProofURL
			if state.Status == model.TaskCompleted {
				tr.PaidAmount = state.PaidAmount.String()
			}
		} else {
			tr.Status = string(model.TaskOpen)
		}
		resp.Tasks = append(resp.Tasks, tr)
	}

	return resp
}
