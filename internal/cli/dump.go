package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/triumph-js/internal/estree"
	"github.com/mvp-joe/triumph-js/internal/parser"
	"github.com/mvp-joe/triumph-js/internal/walker"
)

var (
	dumpESTreeFlag   bool
	dumpCommentsFlag string
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the resources of one file as JSON",
	Long: `Dump parses a single file and prints the resources the indexer would store,
without touching any database.

With --estree the file is an ESTree JSON document (for example the output of
esprima.parse(code, {loc: true, comment: true})) instead of JavaScript source.

--comments reads the comment list from a separate JSON array (the "comments"
of an esprima result, or what acorn's onComment collected) and replaces any
comments attached to the tree.

Examples:
  triumph-js dump src/app.js
  triumph-js dump --estree app.ast.json
  triumph-js dump --estree app.ast.json --comments app.comments.json
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(cmd.Context(), cmd.OutOrStdout(), args[0], dumpESTreeFlag, dumpCommentsFlag)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpESTreeFlag, "estree", false, "Input is ESTree JSON instead of JavaScript")
	dumpCmd.Flags().StringVar(&dumpCommentsFlag, "comments", "", "JSON array of ESTree comments to use with --estree")
}

func runDump(ctx context.Context, out io.Writer, path string, isESTree bool, commentsPath string) error {
	if commentsPath != "" && !isESTree {
		return fmt.Errorf("comments argument requires --estree")
	}

	var (
		program  *estree.Program
		comments []estree.Comment
	)

	if isESTree {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		program, comments, err = estree.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if commentsPath != "" {
			if comments, err = readComments(commentsPath); err != nil {
				return err
			}
		}
	} else {
		cfg, err := loadConfig(filepath.Dir(path))
		if err != nil {
			return err
		}
		program, comments, err = parser.New(cfg.ParserOptions()...).ParseFile(ctx, path)
		if err != nil {
			return err
		}
	}

	collector := &walker.Collector{Resources: []walker.Resource{}}
	if err := walker.New(collector, walker.FileContext{}, comments).Walk(program); err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(collector.Resources)
}

func readComments(path string) ([]estree.Comment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	comments, err := estree.DecodeComments(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return comments, nil
}
