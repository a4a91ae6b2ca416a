package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/pest-image-classification/pestapp/api"
	"github.com/harrison-roh/pest-image-classification/pestapp/config"
	"github.com/harrison-roh/pest-image-classification/pestapp/inference"
	"github.com/harrison-roh/pest-image-classification/pestapp/session"
)

const sweepInterval = time.Minute

func main() {
	cfgPath := flag.String("config", "", "Path for service config file")
	modelPath := flag.String("model", "", "Path for inference model")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	i := inference.New(inference.Config{
		ModelPath: cfg.Model.Path,
		TopK:      cfg.Model.TopK,
	})
	i.Start()

	s := session.NewStore(cfg.Session.MaxAge)
	go s.Run(ctx, sweepInterval)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.MaxMultipartMemory = cfg.Server.MaxMultipartMemory

	a := api.APIs{
		I:      i,
		S:      s,
		Cookie: cfg.Session.Cookie,
		MaxAge: cfg.Session.MaxAge,
	}
	if err := a.Register(r); err != nil {
		log.Fatal(err)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Fail to shutdown server: %s", err)
	}
	i.Destroy()
}
