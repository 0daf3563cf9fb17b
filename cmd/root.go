package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/followscope/internal/metrics"
	"github.com/sw33tLie/followscope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	  __       _ _
	 / _| ___ | | | _____      _____  ___ ___  _ __   ___
	| |_ / _ \| | |/ _ \ \ /\ / / __|/ __/ _ \| '_ \ / _ \
	|  _| (_) | | | (_) \ V  V /\__ \ (_| (_) | |_) |  __/
	|_|  \___/|_|_|\___/ \_/\_/ |___/\___\___/| .__/ \___|
	                                          |_|
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "followscope",
	Short: "Track who follows, unfollows and ignores your Instagram account.",
	Long: LOGO + `followscope snapshots your followers and following lists and compares every run
against the latest snapshot to show unfollowers, new followers and accounts that don't follow you back.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.followscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Expose prometheus metrics on this address (example: :9090)")
	rootCmd.PersistentFlags().Bool("dev", false, "Use the built-in sample account instead of Instagram")
	rootCmd.PersistentFlags().String("storage", "file", "Snapshot storage backend. Available: file, sqlite")
	rootCmd.PersistentFlags().String("storage-path", "", "Snapshot directory or SQLite file (default: ~/.config/followscope/...)")

	viper.BindPFlag("storage.kind", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set default empty values for all keys
	viper.SetDefault("instagram.username", "")
	viper.SetDefault("instagram.password", "")
	viper.SetDefault("instagram.sessionid", "")
	viper.SetDefault("instagram.otpsecret", "")
	viper.SetDefault("instagram.delay_min", 1.0)
	viper.SetDefault("instagram.delay_max", 3.0)
	viper.SetDefault("storage.kind", "file")
	viper.SetDefault("storage.path", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".followscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FOLLOWSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.followscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		utils.Log.Fatal(err)
	}

	metricsAddr, _ := rootCmd.PersistentFlags().GetString("metrics-addr")
	metrics.StartServer(metricsAddr)
}
