package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /admin-only
func AdminOnly(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Welcome Admin!"})
}
