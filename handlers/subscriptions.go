package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"airthlab/middleware"
	"airthlab/services"
)

type SubscriptionHandler struct {
	subs *services.SubscriptionService
}

func NewSubscriptionHandler(subs *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

type SubscribeInput struct {
	PlanID int `json:"plan_id" binding:"required"`
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subs.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var input SubscribeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := middleware.CurrentUser(c)
	detail, err := h.subs.Subscribe(c.Request.Context(), user.ID, input.PlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *SubscriptionHandler) MySubscription(c *gin.Context) {
	user := middleware.CurrentUser(c)
	detail, err := h.subs.MySubscription(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.subs.Cancel(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription canceled successfully"})
}
