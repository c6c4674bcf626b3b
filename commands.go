package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lexandro/notebrowser-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// The CLI commands run the same handlers as the MCP tools against the
// configured root and print their text output.

func newTreeCommand(configFile *string) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the workspace tree",
		Long: `Print the workspace tree, loading every folder along path.

Examples:
  notebrowser-mcp tree                   # top level of the workspace
  notebrowser-mcp tree Journal/2024      # load and print one folder`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			h := a.handlers().Tree
			path := ""
			if len(args) == 1 {
				path = filepath.ToSlash(filepath.Clean(args[0]))
				prefix := ""
				for _, segment := range strings.Split(path, "/") {
					prefix = strings.TrimPrefix(prefix+"/"+segment, "/")
					result, _, _ := h.HandleExpand(cmd.Context(), nil, tools.ExpandArgs{Path: prefix})
					if result.IsError {
						return printResult(cmd, result)
					}
				}
			}
			result, _, _ := h.HandleTree(cmd.Context(), nil, tools.TreeArgs{Path: path, Depth: depth})
			return printResult(cmd, result)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Levels to print (default: every loaded level)")
	return cmd
}

func newSearchCommand(configFile *string) *cobra.Command {
	var args tools.SearchArgs

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search note contents",
		Long: `Search the contents of every text file in the workspace.

Examples:
  notebrowser-mcp search "meeting notes"
  notebrowser-mcp search cat --whole-word --ext md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			args.Query = strings.Join(positional, " ")
			result, _, _ := a.handlers().Search.Handle(cmd.Context(), nil, args)
			return printResult(cmd, result)
		},
	}
	cmd.Flags().BoolVarP(&args.WholeWord, "whole-word", "w", false, "Match whole words only")
	cmd.Flags().BoolVarP(&args.CaseSensitive, "case-sensitive", "c", false, "Match letter case exactly")
	cmd.Flags().StringSliceVar(&args.Extensions, "ext", nil, "Only search these extensions (repeatable)")
	return cmd
}

func newTagsCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage workspace tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [path]",
		Short: "List tags, or the tags of one item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			listArgs := tools.TagsListArgs{}
			if len(args) == 1 {
				listArgs.Path = args[0]
			}
			result, _, _ := a.handlers().Tags.HandleList(cmd.Context(), nil, listArgs)
			return printResult(cmd, result)
		},
	})

	var color string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			result, _, _ := a.handlers().Tags.HandleCreate(cmd.Context(), nil, tools.TagCreateArgs{Name: args[0], Color: color})
			return printResult(cmd, result)
		},
	}
	create.Flags().StringVar(&color, "color", "", "Colour as #rrggbb (default #FF6B6B)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "assign <path> [tag...]",
		Short: "Replace the tags of an item; no tags clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			result, _, _ := a.handlers().Tags.HandleAssign(cmd.Context(), nil, tools.TagAssignArgs{Path: args[0], Tags: args[1:]})
			return printResult(cmd, result)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "query <tag...>",
		Short: "List items carrying any of the tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openForCLI(cmd, *configFile)
			if err != nil {
				return err
			}
			defer a.close()

			result, _, _ := a.handlers().Tags.HandleQuery(cmd.Context(), nil, tools.TagQueryArgs{Tags: args})
			return printResult(cmd, result)
		},
	})

	return cmd
}

// openForCLI builds the app without the watcher and opens the configured root.
func openForCLI(cmd *cobra.Command, configFile string) (*app, error) {
	a, err := bootstrap(cmd, configFile)
	if err != nil {
		return nil, err
	}
	a.cfg.Watch.Enabled = false
	if err := a.open(cmd.Context(), a.cfg.Root); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// printResult writes a tool result to stdout, or returns it as an error.
func printResult(cmd *cobra.Command, result *mcp.CallToolResult) error {
	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}
	if result.IsError {
		return errors.New(text.String())
	}
	out := text.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
