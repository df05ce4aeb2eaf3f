// Package httpserver runs an http.Handler until its context is cancelled and
// then drains in-flight requests within Config.ShutdownTimeout.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Long-lived responses such as SSE streams should watch the request context:
// it is derived from the Run context and is cancelled on shutdown.
package httpserver
