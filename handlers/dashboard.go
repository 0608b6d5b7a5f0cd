package handlers

import (
	"fmt"
	"net/http"
	"time"

	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

// signupWindowDays is the trailing window the signup chart covers.
const signupWindowDays = 30

type DashboardHandler struct {
	dashboardRepo     *repository.DashboardRepository
	notificationsRepo *repository.NotificationsRepository
	auth              *policy.Authorizer
}

func NewDashboardHandler(
	dashboardRepo *repository.DashboardRepository,
	notificationsRepo *repository.NotificationsRepository,
	auth *policy.Authorizer,
) *DashboardHandler {
	return &DashboardHandler{dashboardRepo: dashboardRepo, notificationsRepo: notificationsRepo, auth: auth}
}

// Metrics returns the stat tiles: totals plus a signup trend comparing
// the current week to the one before.
func (h *DashboardHandler) Metrics(c *gin.Context) {
	allowed, err := h.auth.Can(c.GetInt("userId"), "dashboard.read")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to the dashboard"))
		return
	}

	userCount, err := h.dashboardRepo.CountUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	teamCount, err := h.dashboardRepo.CountTeams()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	thisWeek, err := h.dashboardRepo.CountSignupsBetween(weekAgo, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	lastWeek, err := h.dashboardRepo.CountSignupsBetween(twoWeeksAgo, weekAgo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	metrics := []types.MetricPayload{
		{
			Label: "Users",
			Value: fmt.Sprintf("%d", userCount),
			Icon:  "users",
			Color: "primary",
		},
		{
			Label: "Teams",
			Value: fmt.Sprintf("%d", teamCount),
			Icon:  "layers",
			Color: "secondary",
		},
		{
			Label:   "Signups this week",
			Value:   fmt.Sprintf("%d", thisWeek),
			Trend:   types.TrendOf(float64(thisWeek), float64(lastWeek)),
			Change:  fmt.Sprintf("%+d", thisWeek-lastWeek),
			Icon:    "user-plus",
			Variant: "trend",
		},
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"metrics": metrics}))
}

// Charts returns the dashboard chart payloads: a signup line chart over
// the trailing window and a notification severity doughnut.
func (h *DashboardHandler) Charts(c *gin.Context) {
	allowed, err := h.auth.Can(c.GetInt("userId"), "dashboard.read")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to the dashboard"))
		return
	}

	labels, data, err := h.dashboardRepo.SignupsPerDay(signupWindowDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	signups := types.NewChartPayload(types.ChartLine, labels, types.ChartSeries{
		Label: "Signups",
		Data:  data,
	})

	counts, err := h.notificationsRepo.CountsBySeverity()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	severities := []string{"success", "info", "warning", "error", "neutral"}
	severityData := make([]float64, len(severities))
	for i, s := range severities {
		severityData[i] = float64(counts[s])
	}
	notifications := types.NewChartPayload(types.ChartDoughnut, severities, types.ChartSeries{
		Label: "Notifications",
		Data:  severityData,
	})

	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"signups":       signups,
		"notifications": notifications,
	}))
}
