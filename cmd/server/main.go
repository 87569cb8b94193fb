package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Brownie44l1/oral-api/internal/config"
	"github.com/Brownie44l1/oral-api/internal/handlers"
	"github.com/Brownie44l1/oral-api/internal/inference"
	"github.com/Brownie44l1/oral-api/internal/model"
	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	parser := argparse.NewParser("oral-api", "Oral disease image classification service")
	modelPath := parser.String("m", "model", &argparse.Options{Help: "Path to the ONNX model (env MODEL_PATH)", Default: cfg.ModelPath})
	port := parser.String("p", "port", &argparse.Options{Help: "Port to listen on (env PORT)", Default: cfg.Port})
	predictFile := parser.String("", "predict", &argparse.Options{Help: "Classify a single image file, print the result and exit", Default: ""})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	cfg.ModelPath = *modelPath
	cfg.Port = *port

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("Loading model from: %v", cfg.ModelPath)
	modelServer := model.NewServer(logger, cfg.ModelPath)
	defer modelServer.Close()

	if modelServer.Loaded() && modelServer.NumOutputs() != len(model.Labels) {
		logger.Warnf("Model produces %v scores but there are %v labels. Every prediction will fail.", modelServer.NumOutputs(), len(model.Labels))
	}

	service := inference.NewService(logger, modelServer, model.Labels)

	if *predictFile != "" {
		if err := predictOnce(service, *predictFile); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(logger, cfg, service); err != nil {
		logger.Criticalf("Server failed: %v", err)
		os.Exit(1)
	}
}

func serve(logger logs.Log, cfg *config.Config, service *inference.Service) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := handlers.NewRouter(logger, handlers.NewHandler(logger, service))
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	if !service.ModelLoaded() {
		logger.Warnf("Model not loaded! Server will start but predictions will fail.")
	}
	logger.Infof("Starting server on port %v", cfg.Port)
	logger.Infof("Classes: %v", service.Labels())
	logger.Infof("Endpoints:")
	logger.Infof("  GET  /                  - Health check")
	logger.Infof("  POST /cnn-predict-mouth - Image prediction")
	logger.Infof("Upload test: curl -X POST -F \"file=@mouth.jpg\" http://localhost:%v/cnn-predict-mouth", cfg.Port)

	errC := make(chan error, 1)
	go func() {
		errC <- server.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// predictOnce runs the same pipeline as the HTTP endpoint against a local file
func predictOnce(service *inference.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	start := time.Now()
	result, err := service.Classify(context.Background(), &inference.Upload{
		Filename: filepath.Base(path),
		Data:     data,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	fmt.Printf("Classified in %v\n", time.Since(start))
	return nil
}
