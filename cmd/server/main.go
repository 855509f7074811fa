package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/mri-tumor-api/internal/config"
	"github.com/Brownie44l1/mri-tumor-api/internal/handlers"
	"github.com/Brownie44l1/mri-tumor-api/internal/logging"
	"github.com/Brownie44l1/mri-tumor-api/internal/metrics"
	"github.com/Brownie44l1/mri-tumor-api/internal/model"
	"github.com/Brownie44l1/mri-tumor-api/internal/predictor"
	"github.com/Brownie44l1/mri-tumor-api/internal/server"
	"github.com/Brownie44l1/mri-tumor-api/internal/stats"
)

var (
	configPath string
	modelPath  string
	logLevel   string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "mri-tumor-api",
	Short: "Brain tumor MRI classification service",
	Long:  `Serves glioma / meningioma / pituitary / no-tumor predictions for uploaded MRI images`,
	RunE:  runServer,
}

var predictCmd = &cobra.Command{
	Use:   "predict <image> [image...]",
	Short: "Classify local image files and print the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPredict,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "ONNX model path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")

	rootCmd.AddCommand(predictCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadModel never fails: without a model the service keeps running on
// placeholder predictions.
func loadModel(cfg config.Config) model.Handle {
	log.Infof("Loading model from: %s", cfg.Model.Path)

	handle := model.Load(model.LoadOptions{
		ModelPath:         cfg.Model.Path,
		MetadataPath:      cfg.Model.MetadataPath,
		SharedLibraryPath: cfg.Model.SharedLibraryPath,
	})
	if err := handle.Err(); err != nil {
		log.WithError(err).Error("Error loading model")
		log.Warn("No model loaded: predictions are random placeholders and carry demo_mode=true")
	} else {
		log.Info("✓ Model loaded successfully")
	}
	return handle
}

func imageSize(handle model.Handle) int {
	if inferer, ok := handle.Model(); ok {
		return inferer.ImageSize()
	}
	return 0
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	handle := loadModel(cfg)
	defer handle.Close()

	tracker := stats.NewTracker()
	m := metrics.New()
	m.RegisterCounters(tracker)
	m.SetModelLoaded(handle.IsLoaded())

	pred := predictor.New(handle, tracker, predictor.WithObserver(m))
	h := handlers.NewHandler(pred, tracker, handlers.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		StaticDir:      cfg.Web.StaticDir,
		ImageSize:      imageSize(handle),
	})

	srv := server.New(cfg, h, m)
	if err := srv.Start(); err != nil {
		return err
	}

	log.Info("Brain Tumor MRI Classification System")
	log.Infof("  Model:   %s", pred.Mode())
	log.Infof("  Classes: %v", model.ClassNames())
	log.Infof("  Address: http://%s", cfg.Addr())
	log.Info("Endpoints:")
	log.Info("  GET  /               - Upload page")
	log.Info("  POST /predict        - Predict from image upload (field \"file\")")
	log.Info("  GET  /api/statistics - Prediction counters")
	log.Info("  GET  /api/classes    - Class metadata")
	log.Info("  GET  /test-image     - Classify a blank test image")
	log.Info("  GET  /health         - Health check")
	if cfg.Metrics.Enabled {
		log.Infof("  GET  %-15s - Prometheus metrics", cfg.Metrics.Path)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down...")

	return srv.Stop()
}

type fileResult struct {
	File       string            `json:"file"`
	Prediction *model.Prediction `json:"prediction,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	handle := loadModel(cfg)
	defer handle.Close()

	pred := predictor.New(handle, stats.NewTracker())
	results, failed := classifyFiles(pred, args)

	enc := newJSONEncoder(cmd.OutOrStdout())
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
