package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gamelaunch/internal/app"
	"gamelaunch/internal/config"
	"gamelaunch/internal/logging"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	root       string
	java       string
	player     string
	features   string
	isolated   bool
	logLevel   string
	logJSON    bool
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "gamelaunch",
		Short:         "Resolve, verify and launch installed game versions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", envStr("GAMELAUNCH_CONFIG", ""), "Config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.root, "root", envStr("GAMELAUNCH_ROOT", ""), "Game root directory (default ~/.minecraft)")
	pf.StringVar(&opts.java, "java", envStr("GAMELAUNCH_JAVA", ""), "Java executable")
	pf.StringVar(&opts.player, "player", "", "Player name for an offline identity")
	pf.StringVar(&opts.features, "features", "", "Feature flags, e.g. has_custom_resolution,is_demo_user=false")
	pf.BoolVar(&opts.isolated, "isolated", false, "Run each version in its own game directory")
	pf.StringVar(&opts.logLevel, "log-level", envStr("GAMELAUNCH_LOG_LEVEL", ""), "Log level: debug|info|warn|error|off")
	pf.BoolVar(&opts.logJSON, "log-json", false, "Log JSON instead of console output")

	root.AddCommand(
		newLaunchCmd(opts),
		newVerifyCmd(opts),
		newArgsCmd(opts),
		newVersionsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// loadConfig reads the config file, if any, then applies changed flags on top.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if o.root != "" {
		cfg.RootDir = o.root
	}
	if o.java != "" {
		cfg.JavaPath = o.java
	}
	if o.player != "" {
		cfg.PlayerName = o.player
	}
	if cmd.Flags().Changed("isolated") {
		cfg.Isolated = o.isolated
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = o.logJSON
	}
	if f := parseFeatures(o.features); len(f) > 0 {
		if cfg.Features == nil {
			cfg.Features = map[string]bool{}
		}
		for k, v := range f {
			cfg.Features[k] = v
		}
	}
	return cfg.WithDefaults()
}

// service builds the app service and logger for cmd.
func (o *rootOptions) service(cmd *cobra.Command) (*app.Service, zerolog.Logger, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logging.New("gamelaunch", cfg.LogLevel, cfg.LogJSON)
	return app.New(cfg, app.Options{Logger: &log}), log, nil
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFeatures reads "a,b=false" into {a: true, b: false}.
func parseFeatures(s string) map[string]bool {
	items := splitCSV(s)
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]bool, len(items))
	for _, it := range items {
		name, val, found := strings.Cut(it, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = !found || strings.EqualFold(strings.TrimSpace(val), "true")
	}
	return out
}
