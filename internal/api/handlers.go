package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"immoeliza/server/config"
	"immoeliza/server/internal/geometry"
	"immoeliza/server/internal/models"
	"immoeliza/server/internal/reference"
	"immoeliza/server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	estimator        *service.Estimator
	communes         *reference.Table
	logger           *logrus.Logger
	heatmapPrecision uint
	heatmaps         map[uint]*geometry.Heatmap
	mapView          geometry.MapView
}

type HeatmapQuery struct {
	Precision *uint `form:"precision"`
}

// OptionsResponse feeds the form dropdowns from the same tables used for validation.
type OptionsResponse struct {
	BuildingConditions []config.Option `json:"building_conditions"`
	PropertySubtypes   []config.Option `json:"property_subtypes"`
	Communes           []string        `json:"communes"`
}

func NewHandler(estimator *service.Estimator, communes *reference.Table, heatmapPrecision uint, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		estimator:        estimator,
		communes:         communes,
		logger:           logger,
		heatmapPrecision: heatmapPrecision,
		heatmaps:         make(map[uint]*geometry.Heatmap),
		mapView:          geometry.NewMapView(communes.Records()),
	}
}

// PrecomputeHeatmaps builds every supported precision once, the reference
// table never changes after startup.
func (h *Handler) PrecomputeHeatmaps() error {
	records := h.communes.Records()
	for p := uint(0); p <= geometry.MaxPrecision; p++ {
		hm, err := geometry.BuildHeatmap(records, p)
		if err != nil {
			return err
		}
		h.heatmaps[p] = hm
	}
	return nil
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"communes": h.communes.Len(),
	})
}

func (h *Handler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, OptionsResponse{
		BuildingConditions: config.BuildingConditions,
		PropertySubtypes:   config.PropertySubtypes,
		Communes:           h.communes.Communes(),
	})
}

func (h *Handler) Predict(c *gin.Context) {
	var input models.PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.WithError(err).Warn("Failed to parse prediction request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.estimator.Predict(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err, "Failed to predict price")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHeatmap(c *gin.Context) {
	var query HeatmapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "precision must be a non-negative integer"})
		return
	}

	precision := h.heatmapPrecision
	if query.Precision != nil {
		precision = *query.Precision
	}
	if precision > geometry.MaxPrecision {
		c.JSON(http.StatusBadRequest, gin.H{"error": "precision must be between 0 and " + strconv.Itoa(geometry.MaxPrecision)})
		return
	}

	if hm, ok := h.heatmaps[precision]; ok {
		c.JSON(http.StatusOK, hm)
		return
	}

	hm, err := geometry.BuildHeatmap(h.communes.Records(), precision)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build heatmap")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build heatmap"})
		return
	}
	c.JSON(http.StatusOK, hm)
}

func (h *Handler) GetMapView(c *gin.Context) {
	c.JSON(http.StatusOK, h.mapView)
}

// writeError maps core errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error, message string) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
