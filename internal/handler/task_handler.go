package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusflow/internal/middleware"
	"focusflow/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type createTaskRequest struct {
	Title string `json:"title"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	task, apiErr := h.taskService.Create(c.Request.Context(), middleware.UserID(c), req.Title)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// List serves GET /tasks/:userId; the path user is checked by RequireSelf.
func (h *TaskHandler) List(c *gin.Context) {
	tasks, apiErr := h.taskService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) IncrementSession(c *gin.Context) {
	task, apiErr := h.taskService.IncrementSession(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if apiErr := h.taskService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Clear(c *gin.Context) {
	if apiErr := h.taskService.Clear(c.Request.Context(), middleware.UserID(c)); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
