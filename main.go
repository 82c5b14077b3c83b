package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printboard/app"
	"printboard/config"
	"printboard/logger"
	"printboard/web/controller"
	"printboard/web/router"
)

func main() {
	config.Load()

	var logfile string
	if folder := config.GetConfig().LogFolder; folder != "" {
		logfile = fmt.Sprintf("%s/printboard_logs_%s.log", folder, time.Now().Format("2006-01-02_15:04:05"))
	}

	logman, err := logger.NewLogger(logfile)

	if err != nil {
		log.Fatal(err)
	}

	svc, err := app.NewApp(logman)

	if err != nil {
		logman.LogError(err, "Error creating app")
		os.Exit(1)
	}

	svc.Start()

	ctrl := controller.NewController(svc, logman)
	r := router.InitRouter(ctrl, logman)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetConfig().Port),
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logman.LogInfo("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	logman.LogInfo("Starting server", "port", config.GetConfig().Port)

	if err = server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logman.LogError(err, "Error starting server")
	}

	svc.Shutdown()
}
