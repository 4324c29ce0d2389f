package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"centavo/internal/logger"
	"centavo/internal/models"
	"centavo/internal/services"
	"centavo/internal/utils"
)

type activationEvent struct {
	Phone  string `json:"phone" binding:"required"`
	Plan   string `json:"plan" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type BillingHandler struct {
	profiles   services.ProfileStore
	trialHours int
}

func NewBillingHandler(profiles services.ProfileStore, trialHours int) *BillingHandler {
	return &BillingHandler{profiles: profiles, trialHours: trialHours}
}

// Activation applies a billing provider event to the user's plan.
// Unknown phones get a fresh profile so a purchase before first
// contact still lands on an account.
func (h *BillingHandler) Activation(c *gin.Context) {
	log := logger.Get()

	var ev activationEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	phone := utils.Digits(ev.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone"})
		return
	}
	switch ev.Plan {
	case models.PlanTrial, models.PlanPremium, models.PlanNone:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	switch ev.Status {
	case models.StatusActive, models.StatusInactive:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now()

	profile, err := h.profiles.Get(ctx, phone)
	if err != nil {
		log.Error("[handler][billing] load profile", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if profile == nil {
		profile = &models.UserProfile{
			Phone:              phone,
			DailyReportEnabled: true,
			CreatedAt:          now,
		}
	}

	profile.Plan = ev.Plan
	profile.Status = ev.Status
	if ev.Plan == models.PlanTrial && profile.TrialEndsAt.IsZero() {
		profile.TrialEndsAt = now.Add(time.Duration(h.trialHours) * time.Hour)
	}
	profile.UpdatedAt = now

	if err := h.profiles.Save(ctx, profile); err != nil {
		log.Error("[handler][billing] save profile", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	log.Info("[handler][billing] activation applied",
		zap.String("phone", phone), zap.String("plan", ev.Plan), zap.String("status", ev.Status))
	c.JSON(http.StatusOK, gin.H{"phone": phone, "plan": ev.Plan, "status": ev.Status})
}
