// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show [transcript.yaml]",
	Short: "Print a saved answer transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		af, err := pipeline.ReadAnswerFile(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Question: %s\n\n", af.Query)
		printPayload(&af.Payload)
		fmt.Printf("\nAnswered at %s (%d results, %d sources)\n",
			af.Payload.Timestamp, af.Summary.Results, af.Summary.Sources)
		return nil
	},
}

func writeTranscript(path string, st *types.PipelineState) error {
	return pipeline.WriteAnswerFile(path, st)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
