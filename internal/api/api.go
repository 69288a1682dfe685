// Package api exposes the container manager over REST.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/logging"
	"github.com/ipynbsrv/coco/internal/manager"
	"github.com/ipynbsrv/coco/internal/registry"
	"github.com/ipynbsrv/coco/internal/store"
	"github.com/ipynbsrv/coco/internal/util"
)

type api struct {
	manager *manager.Manager
}

func NewRouter(logger *zap.SugaredLogger, containerManager *manager.Manager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), logger))
		c.Next()
	})

	ginprometheus.NewPrometheus("api").Use(router)

	handlers := &api{manager: containerManager}

	router.GET("/backends", handlers.listBackends)

	containers := router.Group("/containers")
	containers.GET("", handlers.listContainers)
	containers.POST("", handlers.createContainer)
	containers.GET("/:id", handlers.getContainer)
	containers.DELETE("/:id", handlers.deleteContainer)
	containers.POST("/:id/start", handlers.startContainer)
	containers.POST("/:id/stop", handlers.stopContainer)
	containers.POST("/:id/restart", handlers.restartContainer)
	containers.POST("/:id/clone", handlers.cloneContainer)
	containers.POST("/:id/commit", handlers.commitContainer)

	return router
}

type containerResponse struct {
	PK            string `json:"pk"`
	Name          string `json:"name"`
	Backend       string `json:"backend"`
	Image         string `json:"image,omitempty"`
	Status        string `json:"status"`
	DisplayStatus string `json:"display_status"`
}

func makeContainerResponse(record store.Record) containerResponse {
	return containerResponse{
		PK:            record.PK,
		Name:          record.Name,
		Backend:       record.Backend,
		Image:         record.Image,
		Status:        string(record.Status),
		DisplayStatus: util.Title(string(record.Status)),
	}
}

type createRequest struct {
	Backend string                `json:"backend" binding:"required"`
	Spec    backend.ContainerSpec `json:"spec" binding:"required"`
	Options backend.Options       `json:"options"`
}

func (a *api) listBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": a.manager.Backends()})
}

func (a *api) listContainers(c *gin.Context) {
	records, err := a.manager.List(c.Request.Context())
	if err != nil {
		a.abort(c, "list containers", err)
		return
	}

	containers := make([]containerResponse, 0, len(records))
	for _, record := range records {
		containers = append(containers, makeContainerResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{"containers": containers})
}

func (a *api) createContainer(c *gin.Context) {
	var request createRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := a.manager.Create(c.Request.Context(), request.Backend, request.Spec, request.Options)
	if err != nil {
		a.abort(c, "create container", err)
		return
	}

	c.JSON(http.StatusCreated, makeContainerResponse(record))
}

func (a *api) getContainer(c *gin.Context) {
	record, err := a.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.abort(c, "get container", err)
		return
	}

	c.JSON(http.StatusOK, makeContainerResponse(record))
}

func (a *api) deleteContainer(c *gin.Context) {
	err := a.manager.Delete(c.Request.Context(), c.Param("id"), forceOptions(c))
	if err != nil {
		a.abort(c, "delete container", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *api) startContainer(c *gin.Context) {
	a.lifecycle(c, "start container", a.manager.Start)
}

func (a *api) stopContainer(c *gin.Context) {
	a.lifecycle(c, "stop container", a.manager.Stop)
}

func (a *api) restartContainer(c *gin.Context) {
	a.lifecycle(c, "restart container", a.manager.Restart)
}

func (a *api) cloneContainer(c *gin.Context) {
	record, err := a.manager.Clone(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.abort(c, "clone container", err)
		return
	}

	c.JSON(http.StatusCreated, makeContainerResponse(record))
}

func (a *api) commitContainer(c *gin.Context) {
	var request struct {
		Tag string `json:"tag"`
	}
	// The tag is optional, so an empty body is fine.
	_ = c.ShouldBindJSON(&request)

	options := backend.Options{}
	if request.Tag != "" {
		options[backend.OptionTag] = request.Tag
	}

	image, err := a.manager.Commit(c.Request.Context(), c.Param("id"), options)
	if err != nil {
		a.abort(c, "commit container", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": image})
}

func (a *api) lifecycle(
	c *gin.Context, operation string,
	action func(ctx context.Context, id string, opts ...backend.Options) error,
) {
	if err := action(c.Request.Context(), c.Param("id"), forceOptions(c)); err != nil {
		a.abort(c, operation, err)
		return
	}

	record, err := a.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.abort(c, operation, err)
		return
	}

	c.JSON(http.StatusOK, makeContainerResponse(record))
}

func (a *api) abort(c *gin.Context, operation string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logging.L(c.Request.Context()).Errorf("Failed to %s: %s.", operation, err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func forceOptions(c *gin.Context) backend.Options {
	options := backend.Options{}
	if c.Query("force") == "true" {
		options[backend.OptionForce] = true
	}
	return options
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, registry.ErrBackendNotExist):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrImageNotFound), errors.Is(err, backend.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrIllegalSpecification):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrIllegalState):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, backend.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
