package todo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/spf13/cobra"
)

var (
	postCmd = &cobra.Command{
		Use:   "post [name] [date] [title...]",
		Short: "Adds an entry to the list of name (date as YYYY-MM-DD or 'today')",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[2:], " ")
			if err := todoClient.Post(args[0], resolveDate(args[1]), title); err != nil {
				return err
			}
			fmt.Println("Entry added")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name] [date]",
		Short: "Lists the entries of name for one date (YYYY-MM-DD or 'today')",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := todoClient.Get(args[0], resolveDate(args[1]))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no entries")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s\n", e.Date, e.Title)
			}
			return nil
		},
	}
	flushCmd = &cobra.Command{
		Use:   "flush [name]",
		Short: "Waits until the list of name is persisted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := todoClient.Flush(args[0]); err != nil {
				return err
			}
			fmt.Println("Flushed")
			return nil
		},
	}
	crashCmd = &cobra.Command{
		Use:   "crash [name]",
		Short: "Makes the worker of name fail, unpersisted entries are lost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := todoClient.Crash(args[0]); err != nil {
				return err
			}
			fmt.Println("Worker crashed")
			return nil
		},
	}
	stopCmd = &cobra.Command{
		Use:   "stop [name]",
		Short: "Stops the worker of name after it handled its queued requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			existed, err := todoClient.Stop(args[0])
			if err != nil {
				return err
			}
			if existed {
				fmt.Println("Worker stopped")
			} else {
				fmt.Println("no worker running")
			}
			return nil
		},
	}
	statusCmd = &cobra.Command{
		Use:   "status [name]",
		Short: "Shows the state of the worker of name, or of the server without name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				raw, err := todoClient.ServerStatus()
				if err != nil {
					return err
				}
				return printJSON(raw)
			}
			status, ok, err := todoClient.Status(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no worker running")
				return nil
			}
			return printJSON(status)
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists the names that have a running worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := todoClient.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
)

// resolveDate replaces "today" with the current local date, anything else is left to the server
func resolveDate(arg string) string {
	if strings.EqualFold(arg, "today") {
		return list.DateOf(time.Now()).String()
	}
	return arg
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
