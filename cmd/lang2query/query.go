package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nithiin7/lang2query"
	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/pkg/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run one question through the workflow and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")
		levelStr, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		interactive, _ := cmd.Flags().GetBool("interactive")
		asJSON, _ := cmd.Flags().GetBool("json")

		logger := logging.New(logging.ParseLevel(levelStr), format)

		engine, err := lang2query.NewFromCatalog(catalogPath, lang2query.WithLogger(logger))
		if err != nil {
			return err
		}

		mode := domain.ModeNormal
		if interactive {
			mode = domain.ModeInteractive
		}

		run, err := engine.Start(cmd.Context(), args[0], mode)
		if err != nil {
			return err
		}

		stdin := bufio.NewReader(os.Stdin)
		var result *domain.Result
		for ev := range run.Events() {
			switch ev.Type {
			case domain.EventStateUpdate:
				if ev.State != nil && !asJSON {
					fmt.Fprintf(os.Stderr, "-> %s\n", ev.State.CurrentStep.Display())
				}
			case domain.EventReviewRequested:
				fb, err := promptReview(stdin, ev.Checkpoint)
				if err != nil {
					return err
				}
				if err := run.Feedback(fb); err != nil {
					return err
				}
			case domain.EventFinalResult:
				result = ev.Result
			case domain.EventError:
				return fmt.Errorf("workflow failed: %s", ev.Message)
			case domain.EventCancelled:
				return fmt.Errorf("workflow cancelled")
			}
		}

		if result == nil {
			_, err := run.Final()
			return fmt.Errorf("no result produced: %v", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printResult(result)
		return nil
	},
}

// promptReview collects an approve/modify/reject decision on the terminal.
func promptReview(stdin *bufio.Reader, cp *domain.Checkpoint) (domain.ReviewFeedback, error) {
	fmt.Printf("\nReview requested (%s):\n", cp.Type)
	for i, item := range cp.Items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
	fmt.Print("Action [approve/modify/reject] (default approve): ")

	line, err := stdin.ReadString('\n')
	if err != nil {
		return domain.ReviewFeedback{}, err
	}
	action := domain.ReviewAction(strings.TrimSpace(line))
	if action == "" {
		action = domain.ReviewApprove
	}

	fb := domain.ReviewFeedback{
		CheckpointID: cp.ID,
		Type:         cp.Type,
		Action:       action,
	}
	if action == domain.ReviewModify {
		fmt.Print("Approved items (comma separated): ")
		items, err := stdin.ReadString('\n')
		if err != nil {
			return domain.ReviewFeedback{}, err
		}
		for _, it := range strings.Split(items, ",") {
			if it = strings.TrimSpace(it); it != "" {
				fb.ApprovedItems = append(fb.ApprovedItems, it)
			}
		}
	}
	return fb, nil
}

func printResult(r *domain.Result) {
	fmt.Printf("\n%s\n", r.StatusDisplay)
	if r.MetadataResponse != "" {
		fmt.Println(r.MetadataResponse)
		return
	}
	if r.Query != nil {
		fmt.Printf("\n%s\n", r.Query.Query)
		if r.Query.Explanation != "" {
			fmt.Printf("\n%s\n", r.Query.Explanation)
		}
	}
	if r.Message != "" {
		fmt.Printf("\n%s\n", r.Message)
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolP("interactive", "i", false, "Pause for human review of identified databases and tables")
	queryCmd.Flags().Bool("json", false, "Print the final result as JSON")
}
