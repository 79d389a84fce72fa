package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/service"
	"github.com/user/alldrama/internal/utils"
)

type movieQuery struct {
	Query  string `form:"q"`
	Genre  string `form:"genre"`
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,gte=0"`
	Offset int    `form:"offset" binding:"omitempty,gte=0"`
}

// ListMovies 影片列表，支持标题搜索与筛选
func (h *Handler) ListMovies(c *gin.Context) {
	var q movieQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, bindMessage(err))
		return
	}
	page, err := h.Catalog.ListMovies(c.Request.Context(), repository.MovieFilter{
		Query:  q.Query,
		Genre:  q.Genre,
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, page)
}

// GetMovie 影片详情
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	movie, err := h.Catalog.GetMovie(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, movie)
}

// CreateMovie 新建影片
func (h *Handler) CreateMovie(c *gin.Context) {
	var in service.MovieInput
	if !bind(c, &in) {
		return
	}
	movie, err := h.Catalog.CreateMovie(c.Request.Context(), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Movie created", movie)
}

// UpdateMovie 更新影片
func (h *Handler) UpdateMovie(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.MovieInput
	if !bind(c, &in) {
		return
	}
	movie, err := h.Catalog.UpdateMovie(c.Request.Context(), id, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Movie updated", movie)
}

// DeleteMovie 删除影片，对象存储中的文件由前端另行调用 /aws/file 删除
func (h *Handler) DeleteMovie(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteMovie(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Movie deleted", nil)
}

// GetEpisode 剧集详情
func (h *Handler) GetEpisode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ep, err := h.Catalog.GetEpisode(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, ep)
}

// ListEpisodes 某部影片的剧集
func (h *Handler) ListEpisodes(c *gin.Context) {
	movieID, ok := paramID(c, "movieId")
	if !ok {
		return
	}
	eps, err := h.Catalog.ListEpisodes(c.Request.Context(), movieID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, eps)
}

// CreateEpisode 新建剧集
func (h *Handler) CreateEpisode(c *gin.Context) {
	var in service.EpisodeInput
	if !bind(c, &in) {
		return
	}
	ep, err := h.Catalog.CreateEpisode(c.Request.Context(), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Episode created", ep)
}

// UpdateEpisode 更新剧集
func (h *Handler) UpdateEpisode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.EpisodeInput
	if !bind(c, &in) {
		return
	}
	ep, err := h.Catalog.UpdateEpisode(c.Request.Context(), id, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Episode updated", ep)
}

// DeleteEpisode 删除剧集
func (h *Handler) DeleteEpisode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteEpisode(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Episode deleted", nil)
}
