package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thebartekbanach/imgproxy/pkg/proxy"
)

type proxyResponseWriter struct {
	c *gin.Context
}

var _ proxy.ProxyResponseWriter = (*proxyResponseWriter)(nil)

func (w *proxyResponseWriter) WriteImage(contentType string, data []byte) {
	w.c.Data(http.StatusOK, contentType, data)
}

func (w *proxyResponseWriter) WriteJSON(code int, payload interface{}) {
	w.c.JSON(code, payload)
}
