package admin

import (
	"errors"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

type importCodesRequest struct {
	Codes []string `json:"codes" binding:"required"`
}

// ImportCodes 向指定券种导入券码
func (h *Handler) ImportCodes(c *gin.Context) {
	templateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req importCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	result, err := h.PoolService.ImportCodes(templateID, req.Codes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			respondError(c, response.CodeNotFound, "券种不存在", nil)
		case errors.Is(err, service.ErrCodesEmpty):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "导入失败", err)
		}
		return
	}
	requestLog(c).Infow("后台导入券码",
		"template_id", templateID,
		"imported", result.Imported,
		"skipped_duplicates", result.SkippedDuplicates,
		"skipped_invalid", result.SkippedInvalid)
	response.SuccessWithMsg(c, "导入完成", result)
}

type poolListQuery struct {
	Status    string `form:"status"`
	ClaimedBy string `form:"claimed_by"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
}

// ListPoolEntries 分页查询券码池
func (h *Handler) ListPoolEntries(c *gin.Context) {
	templateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var query poolListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	entries, total, err := h.PoolService.List(repository.PoolEntryListFilter{
		TemplateID: templateID,
		Status:     query.Status,
		ClaimedBy:  query.ClaimedBy,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"entries": entries}, response.NewPagination(query.Page, query.PageSize, total))
}

// PoolStats 查询券码池库存统计
func (h *Handler) PoolStats(c *gin.Context) {
	templateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	stats, err := h.PoolService.Stats(templateID)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			respondError(c, response.CodeNotFound, "券种不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}

// PurgeAvailableCodes 清空指定券种的未领取券码
func (h *Handler) PurgeAvailableCodes(c *gin.Context) {
	templateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	purged, err := h.PoolService.PurgeAvailable(templateID)
	if err != nil {
		respondError(c, response.CodeInternal, "操作失败", err)
		return
	}
	requestLog(c).Infow("后台清理未领取券码", "template_id", templateID, "purged", purged)
	response.SuccessWithMsg(c, "清理完成", gin.H{"purged": purged})
}
