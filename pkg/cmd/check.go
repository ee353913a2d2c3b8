package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// checkCmd implements spec.md §6's check(source_path) -> {ok|errors[]}:
// lex+parse+type+ownership.
var checkCmd = &cobra.Command{
	Use:   "check [flags] source_file",
	Short: "type-check and ownership-check a Home source file.",
	Long:  "check runs the full front end (lexer, parser, type checker, ownership tracker) and reports diagnostics.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			fatal(fmt.Errorf("check expects exactly one source file"))
		}

		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		_, diags, err := checkUnit(args[0])
		if err != nil {
			fatal(err)
		}

		reportAndExitJSON(diags, GetFlag(cmd, "json"))
	},
}

func init() {
	addJSONFlag(checkCmd)
}
