package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/essence/internal/auth"
	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/expr"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds API request bodies; a line plus JSON quoting fits.
const maxBodyBytes = 2*essence.MaxLineLength + 1024

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// codeRequest is the body accepted by the classify, execute and event
// endpoints.
type codeRequest struct {
	Code string `json:"code"`
}

// ExecuteResponse reports one dispatched line. Error is empty on success.
type ExecuteResponse struct {
	Rule   essence.Rule `json:"rule"`
	Output string       `json:"output"`
	Value  any          `json:"value"`
	Error  string       `json:"error,omitempty"`
}

func (s *Server) RegisterRoutes() {
	r := s.router

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(demoPage))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": Version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": Version,
		})
	})

	api := r.Group("/api", limitBody(maxBodyBytes))
	api.GET("/status", s.handleStatus)
	api.POST("/classify", s.handleClassify)

	guarded := api.Group("", auth.Middleware(s.validator))
	guarded.POST("/execute", s.handleExecute)
	guarded.POST("/events/:name", s.handleEmit)
}

func (s *Server) handleStatus(c *gin.Context) {
	d := s.dispatcher
	snap := d.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"go_channel":  d.Channels().Len(essence.ResultsChannel),
		"rust_owned":  d.Ownership().Len(),
		"js_events":   d.Events().Len(),
		"c_memory":    d.Memory().Len(),
		"python_data": snap.Variables,
		"snapshot":    snap,
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	req, ok := bindCode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.Classify(req.Code))
}

func (s *Server) handleExecute(c *gin.Context) {
	req, ok := bindCode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResponse(s.dispatcher.Execute(req.Code)))
}

// handleEmit evaluates the body as the event payload and emits it through
// event!. An empty body emits nil.
func (s *Server) handleEmit(c *gin.Context) {
	name := c.Param("name")
	if !validEventName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event name"})
		return
	}
	var req codeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	payload := strings.TrimSpace(req.Code)
	if payload == "" {
		payload = "nil"
	}
	line := "event!(" + name + ", " + payload + ")"
	c.JSON(http.StatusOK, toResponse(s.dispatcher.Execute(line)))
}

func bindCode(c *gin.Context) (codeRequest, bool) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return codeRequest{}, false
	}
	return req, true
}

func toResponse(res essence.Result) ExecuteResponse {
	out := ExecuteResponse{
		Rule:   res.Rule,
		Output: res.Output(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		return out
	}
	out.Value = essence.Export(res.Value)
	return out
}

// validEventName accepts names that lex as a single identifier.
func validEventName(name string) bool {
	toks, err := expr.Tokenize(name)
	return err == nil && len(toks) == 2 && toks[0].Type == expr.IDENT
}
