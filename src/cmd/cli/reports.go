package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tracekeep/src/publish"
	"tracekeep/src/report"
	"tracekeep/src/store"
	"tracekeep/src/tui"
)

const publishTimeout = 30 * time.Second

// listCmd prints one page of reports, newest first
var listCmd = &cobra.Command{
	Use:   "list [page]",
	Short: "List saved reports, newest first",
	Long: `Lists saved reports ten per page, newest first, with the id and the
time each report was written. Pages start at 1.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page := 1
		if len(args) == 1 {
			n, err := parsePage(args[0])
			if err != nil {
				return err
			}
			page = n
		}

		files, err := store.NewFileStore(appConfig.ReportDir)
		if err != nil {
			return err
		}
		return listReports(cmd.OutOrStdout(), files, page, time.Now())
	},
}

// viewCmd prints the stack trace of one report
var viewCmd = &cobra.Command{
	Use:   "view <id|latest>",
	Short: "Print the stack trace of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := store.NewFileStore(appConfig.ReportDir)
		if err != nil {
			return err
		}
		return viewReport(cmd.OutOrStdout(), files, args[0])
	},
}

// publishCmd uploads a report to the paste service
var publishCmd = &cobra.Command{
	Use:   "publish <id|latest>",
	Short: "Upload a report and print a shareable link",
	Long: `Uploads the complete report file, header included, as a gist and
prints its URL. Set GITHUB_TOKEN to publish under your account.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := store.NewFileStore(appConfig.ReportDir)
		if err != nil {
			return err
		}
		publisher := publish.NewGistPublisher(publish.GistOptions{
			Endpoint: appConfig.Publish.Endpoint,
			Token:    appConfig.Publish.Token,
			Public:   appConfig.Publish.Public,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
		defer cancel()
		return publishReport(ctx, cmd.OutOrStdout(), files, publisher, args[0])
	},
}

// browseCmd opens the interactive report browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse reports interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := store.NewFileStore(appConfig.ReportDir)
		if err != nil {
			return err
		}

		index := openReadIndex(cmd.Context(), appConfig)
		if index != nil {
			defer index.Close()
		}

		model := tui.NewMainModel(files, tui.Options{Program: programName, Index: index})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("browser error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, viewCmd, publishCmd, browseCmd)
}

// parsePage accepts a page number of 1 or more.
func parsePage(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page must be a number of 1 or more, got %q", arg)
	}
	return n, nil
}

func listReports(w io.Writer, files *store.FileStore, page int, now time.Time) error {
	entries, err := files.Page(page)
	if errors.Is(err, store.ErrNoPage) {
		fmt.Fprintln(w, store.NoPageMessage(page))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-8s %s\n", "ID", "Date")
	for _, e := range entries {
		fmt.Fprintf(w, "%-8d %s (%s)\n", e.ID, e.ModTime.Format("2006-01-02 15:04:05"),
			humanize.RelTime(e.ModTime, now, "ago", "from now"))
	}
	return nil
}

func viewReport(w io.Writer, files *store.FileStore, ref string) error {
	entry, err := files.Resolve(ref)
	if err != nil {
		return err
	}

	rep, err := report.ReadFile(entry.Path)
	if errors.Is(err, report.ErrMalformed) {
		fmt.Fprintln(w, report.MalformedHint(programName, entry.ID))
		return nil
	}
	if err != nil {
		return err
	}

	for _, line := range rep.Trace {
		fmt.Fprintln(w, line)
	}
	return nil
}

// reportPublisher uploads a report file and returns a link to it.
type reportPublisher interface {
	PublishFile(ctx context.Context, title, description, path string) (string, error)
}

func publishReport(ctx context.Context, w io.Writer, files *store.FileStore, p reportPublisher, ref string) error {
	entry, err := files.Resolve(ref)
	if err != nil {
		return err
	}

	url, err := p.PublishFile(ctx, publish.DefaultTitle, publish.DefaultDescription, entry.Path)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", entry.Name, err)
	}
	fmt.Fprintln(w, url)
	return nil
}
