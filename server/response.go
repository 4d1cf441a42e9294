package server

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/errs"
)

var serverLogger = log.New(os.Stdout, "[server] ", log.LstdFlags)

// envelope is the uniform response shape:
// {status, data?, message?, results?}.
type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Results *int        `json:"results,omitempty"`
}

func respond(c *gin.Context, code int, data interface{}) {
	c.JSON(code, envelope{Status: "success", Data: data})
}

// respondList includes the item count alongside the data.
func respondList(c *gin.Context, code int, count int, data interface{}) {
	c.JSON(code, envelope{Status: "success", Results: &count, Data: data})
}

// respondError maps operational errors onto their status code and
// message; anything else is logged and surfaced as a generic 500.
func respondError(c *gin.Context, err error) {
	if e := errs.From(err); e != nil {
		c.JSON(e.Code, envelope{Status: e.Status(), Message: e.Message})
		return
	}
	serverLogger.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, envelope{Status: "error", Message: "something went wrong"})
}

// respondBinding wraps a gin binding failure as a validation error.
func respondBinding(c *gin.Context, err error) {
	respondError(c, errs.BadRequest("invalid request body: %v", err))
}
