package main

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto HTTP statuses: validation 400,
// precondition 409, not found 404, everything else 500.
func respondError(c *gin.Context, err error) {
	var validation *utils.ValidationError
	var precondition *utils.PreconditionError
	var notFound *utils.NotFoundError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &precondition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func loginHandler() gin.HandlerFunc {
	type loginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// createUserHandler provisions reviewer and ministry accounts. Reviewer only:
// ministries do not self-register.
func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		if !models.UserRole(role).IsReviewer() {
			c.JSON(http.StatusForbidden, gin.H{"error": "reviewer role required"})
			return
		}
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		user.Password = ""
		c.JSON(http.StatusCreated, user)
	}
}

func listCargasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.CargaFilter{}
		if raw := c.Query("estado"); raw != "" {
			estado, err := models.ParseCargaStatus(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			filter.Estado = &estado
		}
		if raw := c.Query("ministerio_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				filter.MinisterioId = &id
			}
		}
		if raw := c.Query("indicador_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				filter.IndicadorId = &id
			}
		}
		cargas, err := models.GetCargas(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cargas": cargas})
	}
}

func getCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		carga, err := models.GetCarga(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, carga)
	}
}

func createCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCarga
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		carga, err := models.CreateCarga(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, carga)
	}
}

func updateCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewCarga
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		carga, err := models.UpdateCarga(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, carga)
	}
}

func deleteCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		carga, err := models.DeleteCarga(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": carga.ID, "deleted": true})
	}
}

func enviarCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		carga, err := models.EnviarCarga(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, carga)
	}
}

func revisarCargaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.RevisionCarga
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		carga, err := models.RevisarCarga(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, carga)
	}
}

func cargaStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := models.CountCargasByEstado(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func listMinisteriosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ministerios, err := models.GetMinisterios(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ministerios": ministerios})
	}
}

func createMinisterioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMinisterio
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		ministerio, err := models.CreateMinisterio(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ministerio)
	}
}

func listLineasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ministerioId *int
		if raw := c.Query("ministerio_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				ministerioId = &id
			}
		}
		lineas, err := models.GetLineas(c.Request.Context(), ministerioId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lineas": lineas})
	}
}

func createLineaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLinea
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		linea, err := models.CreateLinea(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, linea)
	}
}

func listIndicadoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lineaId *int
		if raw := c.Query("linea_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				lineaId = &id
			}
		}
		indicadores, err := models.GetIndicadores(c.Request.Context(), lineaId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"indicadores": indicadores})
	}
}

func createIndicadorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewIndicador
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		indicador, err := models.CreateIndicador(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, indicador)
	}
}

// toggleActiveIndicadorHandler activates or retires an indicador. Retired
// indicadores stop accepting new cargas. Reviewer only.
func toggleActiveIndicadorHandler() gin.HandlerFunc {
	type toggleRequest struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		if !models.UserRole(role).IsReviewer() {
			c.JSON(http.StatusForbidden, gin.H{"error": "reviewer role required"})
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		indicador, err := models.ToggleActiveIndicador(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, indicador)
	}
}
