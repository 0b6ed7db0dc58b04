package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asy251189/HarmonyGuard/pkg/services"
)

// NewCheckCmd scores a single text from the command line.
func NewCheckCmd() *cobra.Command {
	var languages []string
	var noHighlights bool

	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Score one text and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			svc, _, err := buildService(configPath)
			if err != nil {
				return err
			}

			resp, err := svc.Detect(context.Background(), services.DetectRequest{
				Text:              strings.Join(args, " "),
				LanguageHints:     languages,
				IncludeHighlights: !noHighlights,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&languages, "languages", "l", nil, "Language hints (e.g. en,hi)")
	cmd.Flags().BoolVar(&noHighlights, "no-highlights", false, "Skip highlight computation")
	return cmd
}
