package api

import (
	"errors"
	"net/http"

	"recyclefi/internal/model"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us      service.UserServiceI
	wallet  *auth.WalletVerifier
	session *auth.SessionAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, wallet *auth.WalletVerifier, session *auth.SessionAuth) {
	r := &userRoutes{us: us, wallet: wallet, session: session}

	a := handler.Group("/auth")
	{
		a.GET("/nonce/:address", r.GetNonce)
		a.POST("/login", r.Login)
	}

	h := handler.Group("/users")
	h.Use(session.SessionMiddleware())
	{
		h.GET("/me", r.GetProfile)
		h.GET("/me/referrals", r.GetReferrals)
		h.GET("/me/ledger", r.GetLedger)
		h.GET("/leaderboard", r.GetLeaderboard)
	}
}

func (r *userRoutes) GetNonce(c *gin.Context) {
	log := logger.Logger()

	address := c.Param("address")
	nonce, err := r.wallet.IssueNonce(address)
	if err != nil {
		log.Info("failed to issue nonce", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":   nonce,
		"message": auth.LoginMessage(nonce),
	})
}

type LoginRequest struct {
	Address   string  `json:"address" binding:"required"`
	Signature string  `json:"signature" binding:"required"`
	Username  string  `json:"username"`
	Referrer  *string `json:"referrer"`
}

type userResponse struct {
	ID               string `json:"id"`
	WalletAddress    string `json:"wallet_address"`
	Username         string `json:"username"`
	Referrals        int    `json:"referrals"`
	Balance          string `json:"balance"`
	CO2Saved         string `json:"co2_saved"`
	IsAdmin          bool   `json:"is_admin"`
	RegistrationDate *int64 `json:"registration_date,omitempty"`
}

func (r *userRoutes) Login(c *gin.Context) {
	log := logger.Logger()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := r.wallet.VerifySignature(req.Address, req.Signature); err != nil {
		log.Info("wallet signature verification failed", zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		case errors.Is(err, auth.ErrNonceNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "nonce not issued or expired"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		}
		return
	}

	address, err := auth.NormalizeAddress(req.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	user, err := r.us.LoginUser(c.Request.Context(), address, req.Username, req.Referrer)
	if err != nil {
		log.Error("failed to login user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	token, err := r.session.IssueToken(user.ID, user.WalletAddress)
	if err != nil {
		log.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user, err := r.us.GetUserByID(c.Request.Context(), session.UserID)
	if err != nil {
		log.Error("failed to get user", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (r *userRoutes) GetReferrals(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	referrals, err := r.us.GetUserReferrals(c.Request.Context(), session.UserID)
	if err != nil {
		log.Error("failed to get user referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	out := make([]gin.H, len(referrals))
	for i, ref := range referrals {
		out[i] = gin.H{
			"wallet_address": ref.WalletAddress,
			"username":       ref.Username,
			"referral_count": ref.ReferralCount,
			"balance":        ref.Balance.String(),
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetLedger(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		log.Error("session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	entries, err := r.us.GetLedger(c.Request.Context(), session.UserID)
	if err != nil {
		log.Error("failed to get ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ledger"})
		return
	}

	out := make([]gin.H, len(entries))
	for i, e := range entries {
		entry := gin.H{
			"id":         e.ID.String(),
			"amount":     e.Amount.String(),
			"kind":       string(e.Kind),
			"created_at": e.CreatedAt.Unix(),
		}
		if e.CampaignID != nil {
			entry["campaign_id"] = e.CampaignID.String()
		}
		if e.TaskID != nil {
			entry["task_id"] = e.TaskID.String()
		}
		out[i] = entry
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]gin.H, len(users))
	for i, user := range users {
		out[i] = gin.H{
			"wallet_address": user.WalletAddress,
			"username":       user.Username,
			"balance":        user.Balance.String(),
			"co2_saved":      user.CO2Saved.String(),
			"referrals":      user.Referrals,
		}
	}

	c.JSON(http.StatusOK, out)
}

func toUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:            user.ID.String(),
		WalletAddress: user.WalletAddress,
		Username:      user.Username,
		Referrals:     user.Referrals,
		Balance:       user.Balance.String(),
		CO2Saved:      user.CO2Saved.String(),
		IsAdmin:       user.IsAdmin,
	}
	if !user.RegistrationDate.IsZero() {
		unix := user.RegistrationDate.Unix()
		resp.RegistrationDate = &unix
	}
	return resp
}
