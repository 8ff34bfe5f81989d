package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hexrift/gitrip/cmd/ui"
	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/dumper"
	"github.com/hexrift/gitrip/pkg/remote"
)

func newDumpCmd() *cobra.Command {
	var (
		jobs      int
		retries   int
		wordlist  string
		userAgent string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "dump <url> [output]",
		Short: "Reconstruct a repository from an exposed .git directory",
		Long: `Reconstruct a local git repository from a web server that exposes
its .git directory.

The url may point at the site root or at the .git directory itself; both
https://target/app and https://target/app/.git work. Recovered files are
written under <output>/.git (default ./output) so a standard git client
can operate on the result directly.

Only run this against targets you are authorized to test.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := "./output"
			if len(args) == 2 {
				outDir = args[1]
			}

			summary, err := dumper.Dump(cmd.Context(), args[0], outDir, dumper.Options{
				Jobs:         jobs,
				Retries:      retries,
				UserAgent:    userAgent,
				WordlistPath: wordlist,
				Force:        force,
			})
			if err != nil {
				if baseerr.IsCode(err, baseerr.CodeNoExposure) {
					fmt.Println(ui.ErrorMessage("✗ Target does not expose a .git directory"))
				}
				return err
			}

			displaySummary(summary)
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", remote.DefaultJobs, "Number of concurrent requests")
	cmd.Flags().IntVar(&retries, "retries", remote.DefaultRetries, "Attempts per request before giving up")
	cmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "TOML file with extra seed paths and branch names")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "Override the request User-Agent")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Allow dumping into a non-empty output directory")

	return cmd
}

// displaySummary renders the recovery counters as a table plus the
// checkout hint.
func displaySummary(s *dumper.Summary) {
	fmt.Println(renderHeader(" Recovery Summary "))
	fmt.Println()
	fmt.Println(ui.TargetInfo(s.Target))
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Count")
	table.Append("Seed files retrieved", colorGreen(fmt.Sprintf("%d", s.SeedsFound)))
	table.Append("Seed files missing", fmt.Sprintf("%d", s.SeedsMissing))
	table.Append("References resolved", colorCyan(fmt.Sprintf("%d", s.Refs)))
	table.Append("Index entries", fmt.Sprintf("%d", s.IndexEntries))
	table.Append("Objects recovered", colorGreen(fmt.Sprintf("%d", s.ObjectsFetched)))
	table.Append("Objects unreachable", colorYellow(fmt.Sprintf("%d", s.ObjectsUnreachable)))
	table.Append("Objects corrupt", colorRed(fmt.Sprintf("%d", s.ObjectsCorrupt)))
	table.Render()

	fmt.Println()
	if s.ObjectsFetched > 0 {
		fmt.Println(ui.SuccessMessage("Repository reconstructed at", s.OutputDir))
	} else {
		fmt.Println(ui.WarningMessage("No objects recovered; the exposure may be metadata only"))
	}
	fmt.Println(ui.CheckoutHint(s.OutputDir))
}
