package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"latexsnap/api/internal/config"
	"latexsnap/api/internal/httpserver"
	"latexsnap/api/internal/predict"
)

func main() {
	cfg := config.Load()

	eng, err := predict.NewEngine(predict.EngineConfig{
		Name:         cfg.PredictEngine,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		MockLatex:    cfg.MockLatex,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("predictor engine: %s", eng.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/", (&predict.Server{Engine: eng}).Handler())

	srv := httpserver.New(":"+cfg.PredictPort, mux, nil)
	if err := httpserver.Run(ctx, srv); err != nil {
		log.Fatal(err)
	}
}
