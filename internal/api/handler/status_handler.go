package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/boehs/truthsocial/internal/model"
	"github.com/boehs/truthsocial/internal/service"
	"github.com/boehs/truthsocial/pkg/response"
)

type publishRequest struct {
	AuthorID    string   `json:"author_id" binding:"required"`
	Text        string   `json:"text"`
	Visibility  string   `json:"visibility" binding:"required,visibility"`
	InReplyToID *string  `json:"in_reply_to_id"`
	ReblogOfID  *string  `json:"reblog_of_id"`
	MentionIDs  []string `json:"mention_ids"`
	Tags        []string `json:"tags"`
}

type favouriteRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	StatusID  string `json:"status_id" binding:"required"`
}

// Publish 发布状态并触发扇出
// @Summary 发布状态（写扩散）
// @Tags 状态
// @Accept json
// @Produce json
// @Param request body publishRequest true "状态内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/statuses [post]
func (h *Handler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.publisher.Publish(c.Request.Context(), service.PublishInput{
		AuthorID:    req.AuthorID,
		Text:        req.Text,
		Visibility:  model.Visibility(req.Visibility),
		InReplyToID: req.InReplyToID,
		ReblogOfID:  req.ReblogOfID,
		MentionIDs:  req.MentionIDs,
		Tags:        req.Tags,
	})
	if err != nil {
		if errors.Is(err, service.ErrStatusNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"status_id": id})
}

// Favourite 点赞
// @Summary 点赞状态
// @Tags 状态
// @Router /api/v1/statuses/favourite [post]
func (h *Handler) Favourite(c *gin.Context) {
	var req favouriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.publisher.Favourite(c.Request.Context(), req.AccountID, req.StatusID); err != nil {
		if errors.Is(err, service.ErrStatusNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListNotifications 查询通知
// @Summary 查询账号通知列表
// @Tags 通知
// @Router /api/v1/notifications/{account_id} [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	accountID := c.Param("account_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	list, err := h.notifRepo.ListByAccount(c.Request.Context(), accountID, (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
