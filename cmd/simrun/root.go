package main

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd follows the standard cobra-cli root command layout used
// throughout the gocfd sibling example's cmd package: a persistent
// --config flag, a PersistentPreRun-less initConfig wired through
// cobra.OnInitialize, and viper resolving defaults from
// ~/.gridbased/config.yaml when no flag is given.
var rootCmd = &cobra.Command{
	Use:   "simrun",
	Short: "Drive a simulated fleet of ranks through repartition ticks",
	Long: `simrun builds an in-process fleet of simulated ranks sharing one
transport.Local world and repeatedly repartitions them against a
synthetic load, printing per-tick summaries.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.gridbased/config.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home + "/.gridbased")
		viper.SetConfigName("config")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // absence of a config file just means "use defaults"
}
