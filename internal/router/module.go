package router

import "github.com/gin-gonic/gin"

// Module registers its routes on a RouterGroup: /api for Registry.Add, the engine root for Registry.AddRoot
type Module interface {
	Register(rg *gin.RouterGroup)
}
