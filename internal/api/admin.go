package api

import (
	"errors"
	"net/http"
	"time"

	"recyclefi/internal/middleware"
	"recyclefi/internal/model"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type adminRoutes struct {
	cs service.CampaignServiceI
	as service.ApprovalServiceI
}

func NewAdminRoutes(handler *gin.RouterGroup, cs service.CampaignServiceI, as service.ApprovalServiceI, us service.UserServiceI, session *auth.SessionAuth) {
	r := &adminRoutes{cs: cs, as: as}

	h := handler.Group("/admin")
	h.Use(session.SessionMiddleware(), middleware.AdminOnly(us))
	{
		h.POST("/campaigns", r.CreateCampaign)
		h.DELETE("/campaigns/:campaign_id", r.DeleteCampaign)
		h.GET("/campaigns/:campaign_id/proofs", r.GetPendingProofs)
		h.POST("/campaigns/:campaign_id/tasks/:task_id/proofs/:user_id", r.ReviewProof)
	}
}

type CreateTaskRequest struct {
	Day          int      `json:"day" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Type         string   `json:"type" binding:"required"`
	Reward       string   `json:"reward" binding:"required"`
	Requirements []string `json:"requirements"`
	CO2Impact    string   `json:"co2_impact"`
}

type CreateCampaignRequest struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Reward       string              `json:"reward" binding:"required"`
	DurationDays int                 `json:"duration_days" binding:"required"`
	StartDate    int64               `json:"start_date" binding:"required"`
	CO2Impact    string              `json:"co2_impact"`
	Tasks        []CreateTaskRequest `json:"tasks" binding:"required,min=1"`
}

func (r *adminRoutes) CreateCampaign(c *gin.Context) {
	log := logger.Logger()

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind create campaign request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	campaign, err := campaignFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := r.cs.Create(c.Request.Context(), campaign)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCampaign) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to create campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create campaign"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

func (r *adminRoutes) DeleteCampaign(c *gin.Context) {
	log := logger.Logger()

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	err = r.cs.Delete(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		log.Error("failed to delete campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (r *adminRoutes) GetPendingProofs(c *gin.Context) {
	log := logger.Logger()

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	proofs, err := r.cs.PendingProofs(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		log.Error("failed to get pending proofs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending proofs"})
		return
	}

	out := make([]gin.H, len(proofs))
	for i, proof := range proofs {
		out[i] = gin.H{
			"user_id":        proof.UserID.String(),
			"wallet_address": proof.WalletAddress,
			"username":       proof.Username,
			"task_id":        proof.TaskID.String(),
			"task_title":     proof.TaskTitle,
			"task_day":       proof.TaskDay,
			"proof_url":      proof.ProofURL,
			"submitted_at":   proof.SubmittedAt.Unix(),
		}
	}

	c.JSON(http.StatusOK, out)
}

type ReviewProofRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (r *adminRoutes) ReviewProof(c *gin.Context) {
	log := logger.Logger()

	campaignID, taskID, ok := parseTaskPath(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req ReviewProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err = r.as.ReviewProof(c.Request.Context(), campaignID, taskID, userID, *req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, service.ErrProofNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "proof not found"})
		case errors.Is(err, service.ErrNoProofSubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "no proof submitted for this task"})
		default:
			log.Error("failed to review proof", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review proof"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviewed": true})
}

func campaignFromRequest(req *CreateCampaignRequest) (*model.Campaign, error) {
	reward, err := decimal.NewFromString(req.Reward)
	if err != nil {
		return nil, errors.New("invalid reward amount")
	}

	co2, err := parseOptionalDecimal(req.CO2Impact)
	if err != nil {
		return nil, errors.New("invalid co2_impact amount")
	}

	campaign := &model.Campaign{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Reward:       reward,
		DurationDays: req.DurationDays,
		StartDate:    time.Unix(req.StartDate, 0).UTC(),
		CO2Impact:    co2,
		CreatedAt:    time.Now().UTC(),
	}

	for _, t := range req.Tasks {
		taskReward, err := decimal.NewFromString(t.Reward)
		if err != nil {
			return nil, errors.New("invalid task reward amount")
		}
		taskCO2, err := parseOptionalDecimal(t.CO2Impact)
		if err != nil {
			return nil, errors.New("invalid task co2_impact amount")
		}
		campaign.Tasks = append(campaign.Tasks, model.CampaignTask{
			ID:           uuid.New(),
			Day:          t.Day,
			Title:        t.Title,
			Description:  t.Description,
			Type:         model.TaskType(t.Type),
			Reward:       taskReward,
			Requirements: t.Requirements,
			CO2Impact:    taskCO2,
		})
	}

	return campaign, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
