package main

import (
	"flag"
	"fmt"

	"bridge-backend/internal/app"
	"bridge-backend/internal/config"
	"bridge-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default config.yaml)")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})

	if err := config.LoadConfig(*configPath); err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	container, err := app.InitializeContainer()
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize services")
	}
	defer container.Close()

	engine := router.SetupRouter(container)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	logrus.WithField("addr", addr).Info("bridge backend listening")
	if err := engine.Run(addr); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
