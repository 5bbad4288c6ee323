package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "List the tag vocabulary",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "Tag"})
		table.SetBorder(false)
		for i, name := range appInstance.Vocab.Names() {
			table.Append([]string{fmt.Sprintf("%d", i + 1), name})
		}
		table.Render()
		fmt.Printf("\n%d tags loaded from %s\n", appInstance.Vocab.Len(), appInstance.Config.Vocabulary.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
}
