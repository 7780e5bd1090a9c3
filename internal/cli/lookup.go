package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/triumph-js/internal/storage"
)

var (
	lookupIndexFlag      string
	lookupPrefixFlag     string
	lookupIdentifierFlag string
	lookupFileFlag       string
	lookupLimitFlag      int
	lookupJSONFlag       bool
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Query an index",
	Long: `Lookup lists indexed functions by key prefix, bare name or file.

Examples:
  # Every function of the Utils object
  triumph-js lookup -i index.sqlite --prefix Utils.

  # Every function named trim, whatever object it belongs to
  triumph-js lookup -i index.sqlite --identifier trim

  # The functions of one file in source order, as JSON
  triumph-js lookup -i index.sqlite --file /src/app.js --json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveIndexPath(lookupIndexFlag)
		if err != nil {
			return err
		}
		return runLookup(cmd.OutOrStdout(), dbPath, lookupQuery{
			Prefix:     lookupPrefixFlag,
			Identifier: lookupIdentifierFlag,
			File:       lookupFileFlag,
			Limit:      lookupLimitFlag,
		}, lookupJSONFlag)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVarP(&lookupIndexFlag, "index", "i", "", "SQLite index to query (default: storage.output from config)")
	lookupCmd.Flags().StringVar(&lookupPrefixFlag, "prefix", "", "Key prefix, e.g. Utils.")
	lookupCmd.Flags().StringVar(&lookupIdentifierFlag, "identifier", "", "Bare function name")
	lookupCmd.Flags().StringVar(&lookupFileFlag, "file", "", "Indexed file path")
	lookupCmd.Flags().IntVarP(&lookupLimitFlag, "limit", "n", storage.DefaultLookupLimit, "Maximum number of results")
	lookupCmd.Flags().BoolVar(&lookupJSONFlag, "json", false, "Print results as JSON")
	lookupCmd.MarkFlagsMutuallyExclusive("prefix", "identifier", "file")
	lookupCmd.MarkFlagsOneRequired("prefix", "identifier", "file")
}

type lookupQuery struct {
	Prefix     string
	Identifier string
	File       string
	Limit      int
}

func runLookup(out io.Writer, dbPath string, query lookupQuery, asJSON bool) error {
	db, err := storage.Open(dbPath, true)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := storage.NewResourceReader(db)

	var resources []*storage.StoredResource
	switch {
	case query.Prefix != "":
		resources, err = reader.FindByKeyPrefix(query.Prefix, query.Limit)
	case query.Identifier != "":
		resources, err = reader.FindByIdentifier(query.Identifier, query.Limit)
	case query.File != "":
		path, absErr := filepath.Abs(query.File)
		if absErr != nil {
			return fmt.Errorf("failed to resolve %s: %w", query.File, absErr)
		}
		resources, err = reader.ListByFile(path)
	default:
		return fmt.Errorf("one of --prefix, --identifier or --file is required")
	}
	if err != nil {
		return err
	}

	if asJSON {
		if resources == nil {
			resources = []*storage.StoredResource{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resources)
	}

	if len(resources) == 0 {
		fmt.Fprintln(out, "No resources found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range resources {
		fmt.Fprintf(w, "%s\t%s\t%s:%d:%d\n", r.Key, r.Signature, r.FullPath, r.LineNumber, r.ColumnPosition)
	}
	return w.Flush()
}

// resolveIndexPath returns flagValue, or storage.output from the configuration
// of the working directory.
func resolveIndexPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := loadConfig(wd)
	if err != nil {
		return "", err
	}
	if cfg.Storage.Output == "" {
		return "", fmt.Errorf("index argument is required, see --help for details")
	}
	return cfg.Storage.Output, nil
}
