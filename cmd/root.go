package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dTodo/cmd/serve"
	"github.com/ValentinKolb/dTodo/cmd/todo"
	"github.com/ValentinKolb/dTodo/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dtodo",
		Short: "actor based todo list server",
		Long: fmt.Sprintf(`dTodo (v%s)

A todo list server written in Go. Every list is owned by its own worker,
workers are started on demand, persist their list after every change
and are replaced transparently when they crash.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dTodo",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dTodo v%s\n", Version)
		},
	}
)

func init() {
	// load .env files and environment variables before any command reads its flags
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(todo.TodoCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
