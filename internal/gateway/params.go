package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const bodyKey = "raw_body"

// bindBody validates the JSON body as T and keeps the raw bytes for forwarding.
func bindBody[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			abortValidation(c, "unreadable request body")
			return
		}
		var dto T
		if err := binding.JSON.BindBody(raw, &dto); err != nil {
			abortValidation(c, validationMessage(err))
			return
		}
		c.Set(bodyKey, raw)
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(models.HeaderUserID))
		if raw == "" {
			abortValidation(c, "header "+models.HeaderUserID+" is required")
			return
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id < 1 {
			abortValidation(c, "header "+models.HeaderUserID+" must be a positive integer")
			return
		}
		c.Next()
	}
}

func requireID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := strconv.ParseInt(c.Param("id"), 10, 64); err != nil || id < 1 {
			abortValidation(c, "path id must be a positive integer")
			return
		}
		c.Next()
	}
}

func requirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q pageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			abortValidation(c, validationMessage(err))
			return
		}
		c.Next()
	}
}

// requireState answers an unknown booking state with the dedicated body the server also uses.
func requireState() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := models.ParseBookingState(c.Query("state")); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": models.UnsupportedStateMessage})
			return
		}
		c.Next()
	}
}

func requireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := strconv.ParseBool(c.Query("approved")); err != nil {
			abortValidation(c, "query parameter approved must be true or false")
			return
		}
		c.Next()
	}
}
