package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/metrics"
)

const transformRoute = "/_next/image"

func NewRouter(handlers *Handlers, collector *metrics.Collector, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery(), requestID(), requestLogger(logger))

	router.GET("/api/:path/:file", handlers.handleImageByPath)
	router.GET("/api/"+handlers.logoName+".png", handlers.handleLogo)
	router.GET("/admin/api/"+handlers.logoName+".png", handlers.handleAdminLogo)
	router.GET(transformRoute, handlers.handleTransform)

	if handlers.catalog != nil {
		router.GET(handlers.rpcPath+"/*procedures", gin.WrapH(handlers.catalog.Handler(handlers.rpcPath)))
	}

	router.GET("/metrics", gin.WrapH(collector.Handler()))
	router.GET("/health", handlers.handleHealth)

	router.NoMethod(handlers.handleMethodNotAllowed)
	router.NoRoute(handlers.handleNotFound)

	return router
}
