package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPartyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Party management commands",
	}

	cmd.AddCommand(newPartyCreateCmd())
	cmd.AddCommand(newPartyListCmd())
	cmd.AddCommand(newPartyGetCmd())
	cmd.AddCommand(newPartyRenameCmd())
	cmd.AddCommand(newPartyActiveCmd())
	cmd.AddCommand(newPartyJoinCmd())
	cmd.AddCommand(newPartyLeaveCmd())
	cmd.AddCommand(newPartyEndCmd())

	return cmd
}

func newPartyCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new party",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": name}

			var result Party
			if err := client.Post("/api/v1/parties", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Party name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPartyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all parties",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Party
			if err := client.Get("/api/v1/parties", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPartyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get party details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Party
			if err := client.Get(fmt.Sprintf("/api/v1/parties/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPartyRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a party",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[1]}

			var result Party
			if err := client.Patch(fmt.Sprintf("/api/v1/parties/%s", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPartyActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show your current active party",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Party
			if err := client.Get("/api/v1/parties/active", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if result.ID == 0 {
				out.PrintMessage("Not in any active party")
				return nil
			}
			out.Print(result)
			return nil
		},
	}
}

func newPartyJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join a party",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Participant
			if err := client.Post(fmt.Sprintf("/api/v1/parties/%s/join", args[0]), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPartyLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a party",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(fmt.Sprintf("/api/v1/parties/%s/leave", args[0]), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Left party %s", args[0]))
			return nil
		},
	}
}

func newPartyEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <id>",
		Short: "End a party you host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(fmt.Sprintf("/api/v1/parties/%s", args[0]), nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Ended party %s", args[0]))
			return nil
		},
	}
}
