package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asy251189/HarmonyGuard/pkg/apiserver"
	"github.com/asy251189/HarmonyGuard/pkg/cache"
	"github.com/asy251189/HarmonyGuard/pkg/classifier"
	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/lexicon"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/services"
)

// NewServeCmd starts the detection API server.
func NewServeCmd() *cobra.Command {
	var port int
	var watchLexicons bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the detection API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			svc, cfg, err := buildService(configPath)
			if err != nil {
				return err
			}

			if watchLexicons || cfg.Lexicon.Watch {
				stop := make(chan struct{})
				defer close(stop)
				// Watch blocks until stop closes, so it runs alongside the server.
				go func() {
					if err := svc.Store().Watch(stop); err != nil {
						logging.Warnf("lexicon watch disabled: %v", err)
					}
				}()
			}

			if port == 0 {
				port = cfg.API.Port
			}
			return apiserver.Init(port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&watchLexicons, "watch-lexicons", false, "Hot-reload lexicon files on change")
	return cmd
}

// buildService loads configuration and wires the detection pipeline.
func buildService(configPath string) (*services.DetectionService, *config.DetectorConfig, error) {
	var cfg *config.DetectorConfig
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		cfg = loaded
	} else {
		logging.Warnf("config file %s not found, using defaults", configPath)
		cfg = config.Default()
		config.Replace(cfg)
	}

	store, err := lexicon.NewStore(cfg.Lexicon.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load lexicons from %s: %w", cfg.Lexicon.Dir, err)
	}

	var clf classifier.Classifier
	if cfg.Classifier.Enabled {
		clf = classifier.NewHTTPClient(cfg.Classifier)
	}

	backend, err := cache.NewBackend(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	svc, err := services.NewDetectionService(cfg, store, clf, backend)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}
