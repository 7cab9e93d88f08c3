package cmd

import (
	"fmt"
	"io"
	"strings"

	"feedback-portal/internal/notify"

	"github.com/spf13/cobra"
)

func newRenderCommand(rt *runtimeState) *cobra.Command {
	kinds := make([]string, 0, len(notify.Kinds))
	for _, k := range notify.Kinds {
		kinds = append(kinds, string(k))
	}

	return &cobra.Command{
		Use:       "render <kind>",
		Short:     "Print a sample email to stdout",
		Long:      "Renders an email with sample data. Kinds: " + strings.Join(kinds, ", "),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := rt.config()
			if err != nil {
				return err
			}
			builder, err := notify.NewBuilder(config.Email, config.Token)
			if err != nil {
				return err
			}
			return renderSample(cmd.OutOrStdout(), builder, notify.Kind(args[0]))
		},
	}
}

func renderSample(w io.Writer, renderer notify.Renderer, kind notify.Kind) error {
	to := notify.Recipient{Email: "jane.doe@example.com", FirstName: "Jane", Username: "janedoe"}
	payload := notify.Payload{
		Token: "sample-token",
		Feedback: &notify.FeedbackInfo{
			ID:             "00000000-0000-0000-0000-000000000001",
			Number:         "FB-20260101-0042",
			Title:          "Checkout button does nothing",
			Category:       "Bug Report",
			Priority:       "high",
			Status:         "in_progress",
			PreviousStatus: "open",
			Assignee:       "agent.smith",
			Submitter:      "janedoe",
		},
	}

	msg, err := renderer.Render(kind, to, payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "To: %s\nSubject: %s\n\n%s\n", msg.To, msg.Subject, msg.HTML)
	return err
}
