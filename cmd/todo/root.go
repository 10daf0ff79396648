package todo

import (
	"github.com/ValentinKolb/dTodo/cmd/util"
	"github.com/ValentinKolb/dTodo/rpc/client"
	"github.com/spf13/cobra"
)

var (
	todoClient client.ITodoClient

	// TodoCommands represents the todo command group
	TodoCommands = &cobra.Command{
		Use:                "todo",
		Short:              "Perform todo list operations against a dTodo server",
		PersistentPreRunE:  setupTodoClient,
		PersistentPostRunE: closeTodoClient,
	}
)

func init() {
	// Add common RPC flags to the todo command
	util.SetupRPCClientFlags(TodoCommands)

	// Add subcommands
	TodoCommands.AddCommand(postCmd)
	TodoCommands.AddCommand(getCmd)
	TodoCommands.AddCommand(flushCmd)
	TodoCommands.AddCommand(crashCmd)
	TodoCommands.AddCommand(stopCmd)
	TodoCommands.AddCommand(statusCmd)
	TodoCommands.AddCommand(keysCmd)
	TodoCommands.AddCommand(perfTestCmd)
}

// setupTodoClient initializes the RPC todo client
func setupTodoClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	todoClient, err = util.NewClient()
	return err
}

func closeTodoClient(_ *cobra.Command, _ []string) error {
	if todoClient == nil {
		return nil
	}
	return todoClient.Close()
}
