package cmd

import (
	"fmt"
	"github.com/ValentinKolb/serialkv/cmd/kv"
	"github.com/ValentinKolb/serialkv/cmd/serve"
	"github.com/ValentinKolb/serialkv/cmd/util"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "skv",
		Short: "client for a binary request/response key-value protocol",
		Long: fmt.Sprintf(`serialkv (v%s)

A key-value client that sends binary framed requests over a single
connection, one request at a time, with a deadline per request.`, common.Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of serialkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("serialkv v%s\n", common.Version)
		},
	}
)

func init() {
	// initialize viper and the loggers once the flags are parsed
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("level at which logs are written to stderr (debug, info, warn, error)"))

	// log-level is read by InitConfig before sub commands bind their flags
	_ = viper.BindPFlags(RootCmd.PersistentFlags())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
