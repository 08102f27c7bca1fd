// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question on the command line",
	Long: `Ask runs the full pipeline for a single question and prints the answer
with its topic breakdowns and cited sources. Use --out to save the full
transcript as YAML for later inspection with "answer-engine show".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("question required")
		}

		cfg := loadPipelineConfig()
		eng := newEngine(cfg, logger)

		st := types.NewPipelineState(query, nil)
		eng.pipeline.Run(context.Background(), st)
		if st.FinalPayload == nil {
			return fmt.Errorf("pipeline produced no payload")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(st.FinalPayload); err != nil {
				return err
			}
		} else {
			printPayload(st.FinalPayload)
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := writeTranscript(out, st); err != nil {
				return fmt.Errorf("saving transcript: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", out)
		}
		return nil
	},
}

func printPayload(p *types.Payload) {
	fmt.Println(p.Overview)
	for _, t := range p.Topics {
		fmt.Printf("\n%s\n%s\n", t.Title, t.Content)
	}
	if len(p.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range p.Sources {
			fmt.Printf("  [%d] %s (%s)\n", s.ID, s.Title, s.URL)
		}
	}
}

func init() {
	askCmd.Flags().Bool("json", false, "print the payload as JSON")
	askCmd.Flags().String("out", "", "save the answer transcript to a YAML file")

	rootCmd.AddCommand(askCmd)
}
