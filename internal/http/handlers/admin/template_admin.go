package admin

import (
	"errors"
	"strconv"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

type templateListQuery struct {
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// ListTemplates 分页查询券种
func (h *Handler) ListTemplates(c *gin.Context) {
	var query templateListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	views, total, err := h.TemplateService.AdminList(repository.TemplateListFilter{
		Status:   query.Status,
		Keyword:  query.Keyword,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"templates": views}, response.NewPagination(query.Page, query.PageSize, total))
}

// GetTemplate 获取券种详情
func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	view, err := h.TemplateService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			respondError(c, response.CodeNotFound, "券种不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.Success(c, gin.H{"template": view})
}

// CreateTemplate 创建券种
func (h *Handler) CreateTemplate(c *gin.Context) {
	var input service.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	template, err := h.TemplateService.Create(input)
	if err != nil {
		respondTemplateWriteError(c, err)
		return
	}
	requestLog(c).Infow("后台创建券种", "template_id", template.ID, "name", template.Name)
	response.SuccessWithMsg(c, "创建成功", gin.H{"id": template.ID})
}

// UpdateTemplate 更新券种
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var input service.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if _, err := h.TemplateService.Update(id, input); err != nil {
		respondTemplateWriteError(c, err)
		return
	}
	response.SuccessWithMsg(c, "更新成功", nil)
}

type templateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTemplateStatus 上下架券种
func (h *Handler) UpdateTemplateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req templateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if err := h.TemplateService.UpdateStatus(id, req.Status); err != nil {
		respondTemplateWriteError(c, err)
		return
	}
	response.SuccessWithMsg(c, "状态已更新", nil)
}

// DeleteTemplate 删除券种
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.TemplateService.Delete(id); err != nil {
		respondTemplateWriteError(c, err)
		return
	}
	requestLog(c).Infow("后台删除券种", "template_id", id)
	response.SuccessWithMsg(c, "删除成功", nil)
}

func respondTemplateWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		respondError(c, response.CodeNotFound, "券种不存在", nil)
	case errors.Is(err, service.ErrTemplateInvalid):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "操作失败", err)
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "无效的 ID", err)
		return 0, false
	}
	return uint(id), true
}
