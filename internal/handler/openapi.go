package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/ridehail/backend/docs"
)

var openAPIDoc = sync.OnceValue(func() []byte {
	return []byte(docs.SwaggerInfo.ReadDoc())
})

// OpenAPIDoc serves the Swagger 2.0 document for the account API.
func OpenAPIDoc(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", openAPIDoc())
}
