// Package cli wires the attachment operations to a cobra command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/welldanyogia/youtrack-attach/internal/services"
	"github.com/welldanyogia/youtrack-attach/internal/validator"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
)

const maxMetadataLength = 255

// AttachmentClient is the tracker surface the commands use
type AttachmentClient interface {
	GetAttachments(ctx context.Context, issueID string) ([]youtrack.Attachment, error)
	CreateAttachment(ctx context.Context, issueID, filePath string, params youtrack.CreateAttachmentParams) (*youtrack.Response, error)
	DeleteAttachment(ctx context.Context, issueID, attachmentID string) (*youtrack.Response, error)
	GetAttachmentContent(ctx context.Context, contentURL string) (io.ReadCloser, error)
}

// Dependencies are built on first use so that help and argument errors
// never need configuration, and only journal commands open the journal.
type Dependencies struct {
	Client           func() (AttachmentClient, error)
	Copier           func() (services.AttachmentCopierService, error)
	OperationTimeout time.Duration
	Output           io.Writer
}

func NewRootCommand(dependencies Dependencies) *cobra.Command {
	root := &cobra.Command{
		Use:           "youtrack-attach",
		Short:         "Manage YouTrack issue attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildListCommand(dependencies))
	root.AddCommand(buildUploadCommand(dependencies))
	root.AddCommand(buildDownloadCommand(dependencies))
	root.AddCommand(buildDeleteCommand(dependencies))
	root.AddCommand(buildCopyCommand(dependencies))
	root.AddCommand(buildHistoryCommand(dependencies))
	root.AddCommand(buildForgetCommand(dependencies))
	return root
}

func buildListCommand(dependencies Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list ISSUE",
		Short: "List the attachments of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := issueArg(args[0])
			if err != nil {
				return err
			}

			client, err := newClient(dependencies)
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(cmd, dependencies)
			defer cancel()

			attachments, err := client.GetAttachments(ctx, issueID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(output(dependencies), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tGROUP\tCREATED")
			for _, a := range attachments {
				created := "-"
				if t, ok := a.Created(); ok {
					created = t.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID(), a.Name(), dash(a.AuthorLogin()), dash(a.Group()), created)
			}
			return w.Flush()
		},
	}
}

func buildUploadCommand(dependencies Dependencies) *cobra.Command {
	var (
		nameInput    string
		authorInput  string
		groupInput   string
		createdInput string
	)

	command := &cobra.Command{
		Use:   "upload ISSUE FILE",
		Short: "Attach a local file to an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := issueArg(args[0])
			if err != nil {
				return err
			}

			params := youtrack.CreateAttachmentParams{
				Name:        validator.SanitizeString(nameInput, maxMetadataLength),
				AuthorLogin: validator.SanitizeString(authorInput, maxMetadataLength),
				Group:       validator.SanitizeString(groupInput, maxMetadataLength),
			}
			if createdInput != "" {
				created, parseErr := time.Parse(time.RFC3339, createdInput)
				if parseErr != nil {
					return fmt.Errorf("invalid created time %q: %w", createdInput, parseErr)
				}
				params.Created = created
			}

			client, err := newClient(dependencies)
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(cmd, dependencies)
			defer cancel()

			response, err := client.CreateAttachment(ctx, issueID, args[1], params)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(output(dependencies), "Uploaded %s to %s (status %d)\n", filepath.Base(args[1]), issueID, response.StatusCode)
			return err
		},
	}

	command.Flags().StringVar(&nameInput, "name", "", "Attachment name shown in the tracker")
	command.Flags().StringVar(&authorInput, "author", "", "Login of the user the attachment is credited to")
	command.Flags().StringVar(&groupInput, "group", "", "Visibility group")
	command.Flags().StringVar(&createdInput, "created", "", "RFC3339 creation timestamp")

	return command
}

func buildDownloadCommand(dependencies Dependencies) *cobra.Command {
	var outInput string

	command := &cobra.Command{
		Use:   "download ISSUE ATTACHMENT_ID",
		Short: "Save an attachment to a local directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := issueArg(args[0])
			if err != nil {
				return err
			}
			attachmentID, err := attachmentArg(args[1])
			if err != nil {
				return err
			}

			client, err := newClient(dependencies)
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(cmd, dependencies)
			defer cancel()

			attachment, err := findAttachment(ctx, client, issueID, attachmentID)
			if err != nil {
				return err
			}

			content, err := client.GetAttachmentContent(ctx, attachment.URL())
			if err != nil {
				return err
			}
			defer content.Close()

			target := filepath.Join(outInput, validator.SanitizeFilename(attachment.Name()))
			file, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}

			written, copyErr := io.Copy(file, content)
			closeErr := file.Close()
			if copyErr != nil {
				os.Remove(target)
				return fmt.Errorf("failed to download attachment %s: %w", attachmentID, copyErr)
			}
			if closeErr != nil {
				return closeErr
			}

			_, err = fmt.Fprintf(output(dependencies), "Saved %s (%d bytes)\n", target, written)
			return err
		},
	}

	command.Flags().StringVar(&outInput, "out", ".", "Directory to write the attachment to")

	return command
}

func buildDeleteCommand(dependencies Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ISSUE ATTACHMENT_ID",
		Short: "Remove an attachment from an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := issueArg(args[0])
			if err != nil {
				return err
			}
			attachmentID, err := attachmentArg(args[1])
			if err != nil {
				return err
			}

			client, err := newClient(dependencies)
			if err != nil {
				return err
			}

			ctx, cancel := operationContext(cmd, dependencies)
			defer cancel()

			if _, err := client.DeleteAttachment(ctx, issueID, attachmentID); err != nil {
				return err
			}

			_, err = fmt.Fprintf(output(dependencies), "Deleted %s from %s\n", attachmentID, issueID)
			return err
		},
	}
}

func buildCopyCommand(dependencies Dependencies) *cobra.Command {
	var force bool

	command := &cobra.Command{
		Use:   "copy SOURCE_ISSUE TARGET_ISSUE",
		Short: "Copy every attachment of one issue to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceIssueID, err := issueArg(args[0])
			if err != nil {
				return err
			}
			targetIssueID, err := issueArg(args[1])
			if err != nil {
				return err
			}
			copier, err := newCopier(dependencies)
			if err != nil {
				return err
			}

			// Copies run one upload per attachment, so the timeout is not applied here
			report, err := copier.Copy(cmd.Context(), sourceIssueID, targetIssueID, services.CopyOptions{Force: force})
			if report != nil {
				fmt.Fprintf(output(dependencies), "Copied %d, skipped %d attachment(s) from %s to %s\n",
					len(report.Copied), len(report.Skipped), sourceIssueID, targetIssueID)
			}
			return err
		},
	}

	command.Flags().BoolVar(&force, "force", false, "Copy attachments again even if they were copied before")

	return command
}

func buildHistoryCommand(dependencies Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "history TARGET_ISSUE",
		Short: "Show the attachments copied into an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetIssueID, err := issueArg(args[0])
			if err != nil {
				return err
			}
			copier, err := newCopier(dependencies)
			if err != nil {
				return err
			}

			transfers, err := copier.History(cmd.Context(), targetIssueID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(output(dependencies), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tATTACHMENT\tNAME\tCOPIED")
			for _, tr := range transfers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tr.SourceIssueID, tr.SourceAttachmentID, tr.Name, tr.CopiedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func buildForgetCommand(dependencies Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "forget TARGET_ISSUE",
		Short: "Clear the copy journal of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetIssueID, err := issueArg(args[0])
			if err != nil {
				return err
			}
			copier, err := newCopier(dependencies)
			if err != nil {
				return err
			}

			deleted, err := copier.Forget(cmd.Context(), targetIssueID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(output(dependencies), "Forgot %d transfer(s) into %s\n", deleted, targetIssueID)
			return err
		},
	}
}

func findAttachment(ctx context.Context, client AttachmentClient, issueID, attachmentID string) (youtrack.Attachment, error) {
	attachments, err := client.GetAttachments(ctx, issueID)
	if err != nil {
		return youtrack.Attachment{}, err
	}
	for _, a := range attachments {
		if a.ID() == attachmentID {
			return a, nil
		}
	}
	return youtrack.Attachment{}, fmt.Errorf("attachment %s on %s: %w", attachmentID, issueID, youtrack.ErrNotFound)
}

func issueArg(input string) (string, error) {
	if err := validator.ValidateIssueID(input); err != nil {
		return "", fmt.Errorf("issue %q: %w", input, err)
	}
	return validator.SanitizeString(input, validator.MaxIssueIDLength), nil
}

func attachmentArg(input string) (string, error) {
	if err := validator.ValidateAttachmentID(input); err != nil {
		return "", fmt.Errorf("attachment %q: %w", input, err)
	}
	return validator.SanitizeString(input, 0), nil
}

func newClient(dependencies Dependencies) (AttachmentClient, error) {
	if dependencies.Client == nil {
		return nil, errors.New("tracker client is not configured")
	}
	return dependencies.Client()
}

func newCopier(dependencies Dependencies) (services.AttachmentCopierService, error) {
	if dependencies.Copier == nil {
		return nil, errors.New("copier is not configured")
	}
	return dependencies.Copier()
}

// operationContext bounds a single tracker operation. Without a timeout the
// per-request limit of the HTTP client applies.
func operationContext(cmd *cobra.Command, dependencies Dependencies) (context.Context, context.CancelFunc) {
	if dependencies.OperationTimeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), dependencies.OperationTimeout)
}

func output(dependencies Dependencies) io.Writer {
	if dependencies.Output == nil {
		return io.Discard
	}
	return dependencies.Output
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
