// Gather is a conversational scheduling assistant.
//
// It turns natural-language requests ("am I free this Friday at 6pm?",
// "find an hour for us next week") into calendar and weather lookups,
// gated calendar writes, and webhook-triggered automations, driven by
// an LLM tool-calling loop.
//
// Usage:
//
//	gather chat              Interactive session
//	gather ask <question>    Ask a single question
//	gather clear             Reset the session user's conversation memory
//	gather export            Write the session user's calendar as iCalendar
//	gather version           Print version and build information
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "gather",
		Short:         "Conversational scheduling assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flags.userID, "user", "me", "user ID for this session")

	root.AddCommand(
		newChatCmd(&flags),
		newAskCmd(&flags),
		newClearCmd(&flags),
		newExportCmd(&flags),
		newVersionCmd(),
	)
	return root
}

type rootFlags struct {
	configPath string
	userID     string
}
