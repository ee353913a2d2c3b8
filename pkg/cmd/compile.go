package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// compileCmd implements spec.md §6's compile(source_path) -> {AST|errors}:
// lexer+parser only.
var compileCmd = &cobra.Command{
	Use:   "compile [flags] source_file",
	Short: "parse a Home source file and report any lexical or syntactic errors.",
	Long:  "compile runs the lexer and parser over a single source file and reports the resulting diagnostics.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			fatal(fmt.Errorf("compile expects exactly one source file"))
		}

		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		_, diags, err := parseUnit(args[0])
		if err != nil {
			fatal(err)
		}

		reportAndExitJSON(diags, GetFlag(cmd, "json"))
	},
}

func init() {
	addJSONFlag(compileCmd)
}
