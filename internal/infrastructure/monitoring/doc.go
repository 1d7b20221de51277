/*
Package monitoring provides Prometheus metrics for the embed host.

HTTP requests are measured by a Gin middleware. Embedding telemetry (state
transitions, operation outcomes, discovery attempts, style corrections)
arrives through EmbedMetrics, which the coordinator calls as its observer.

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	router.Use(monitoring.Middleware(metrics))
	coord.WithObserver(monitoring.NewEmbedMetrics(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
