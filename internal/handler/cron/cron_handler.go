// Package cron 提供外部定时任务调用的 HTTP Handler
package cron

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	"github.com/dumeirei/pg-manager-backend/internal/scheduler"
)

// Handler 定时任务处理器
type Handler struct {
	jobs *scheduler.Jobs
}

// NewHandler 创建定时任务处理器
func NewHandler(jobs *scheduler.Jobs) *Handler {
	return &Handler{jobs: jobs}
}

// GenerateBills 生成当月账单
// @Summary 生成当月账单
// @Tags 定时任务
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=billingService.GenerateResult}
// @Router /api/cron/generate-bills [post]
func (h *Handler) GenerateBills(c *gin.Context) {
	result, err := h.jobs.GenerateBills(c.Request.Context())
	handler.MustSucceed(c, err, result)
}

// MarkOverdue 标记逾期账单
// @Summary 标记逾期账单
// @Tags 定时任务
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=billingService.OverdueResult}
// @Router /api/cron/mark-overdue [post]
func (h *Handler) MarkOverdue(c *gin.Context) {
	result, err := h.jobs.MarkOverdue(c.Request.Context())
	handler.MustSucceed(c, err, result)
}

// SendReminders 发送到期提醒
// @Summary 发送到期提醒
// @Tags 定时任务
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=billingService.ReminderResult}
// @Router /api/cron/send-reminders [post]
func (h *Handler) SendReminders(c *gin.Context) {
	result, err := h.jobs.SendReminders(c.Request.Context())
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册路由，GET 与 POST 均可触发
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	for path, fn := range map[string]gin.HandlerFunc{
		"/generate-bills": h.GenerateBills,
		"/mark-overdue":   h.MarkOverdue,
		"/send-reminders": h.SendReminders,
	} {
		r.GET(path, fn)
		r.POST(path, fn)
	}
}
