package main

import (
	"github.com/spf13/cobra"

	"git.sr.ht/~jakintosh/loginhandler/internal/config"
	"git.sr.ht/~jakintosh/loginhandler/internal/logging"
)

// resolved in PersistentPreRunE: env first, then any flags that were set
var cfg config.Server

var rootCmd = &cobra.Command{
	Use:   "loginhandler",
	Short: "Exchange identity provider tokens for session tokens",
	Long: `loginhandler verifies identity provider access tokens against the
provider's token info endpoint and issues HMAC signed session tokens for
the local users they belong to.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env, err := config.FromEnv()
		if err != nil {
			return err
		}
		cfg = applyFlags(cmd, env)
		return logging.Init(cfg.LogLevel, cfg.LogFormat)
	},
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	flags := rootCmd.PersistentFlags()
	flags.String("settings", "", "settings file (yaml, json or toml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func applyFlags(cmd *cobra.Command, c config.Server) config.Server {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("settings", &c.SettingsPath)
	set("log-level", &c.LogLevel)
	set("log-format", &c.LogFormat)
	set("addr", &c.Addr)
	set("db", &c.DBPath)
	return c
}
