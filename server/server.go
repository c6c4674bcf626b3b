package server

import (
	"github.com/lexandro/notebrowser-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Handlers bundles every tool handler registered on the server.
type Handlers struct {
	Tree    *tools.TreeHandler
	Mutate  *tools.MutationHandler
	Search  *tools.SearchHandler
	Files   *tools.FilesHandler
	Read    *tools.ReadHandler
	Status  *tools.StatusHandler
	Refresh *tools.RefreshHandler
	Tags    *tools.TagsHandler
}

const instructions = `This server browses and edits a folder of notes (the workspace) and manages tags stored in a .notepad-tags.json file at the workspace root.

Start with notes_open to choose the workspace. Paths in every other tool are relative to the workspace root.
- notes_tree shows what is loaded; folders marked (+) have not been loaded yet, use notes_expand to load them
- notes_search scans file contents (literal text, optional whole word and case sensitivity)
- notes_files finds files by glob pattern or fuzzy name
- notes_read returns a file with line numbers
- notes_create_file, notes_create_folder, notes_rename, notes_move and notes_delete change the workspace
- tags_* tools define tags and attach them to files and folders
Changes made by other programs are picked up automatically; notes_refresh forces a re-read.`

// Setup creates and configures the MCP server with all tool registrations.
func Setup(h Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "notebrowser-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{Instructions: instructions},
	)

	registerBrowsing(mcpServer, h)
	registerMutations(mcpServer, h.Mutate)
	registerTags(mcpServer, h.Tags)

	return mcpServer
}

func registerBrowsing(mcpServer *mcp.Server, h Handlers) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_open",
		Description: "Open a directory as the workspace. Loads its top level and replaces any previously open workspace.",
	}, h.Tree.HandleOpen)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_tree",
		Description: "Show the loaded part of the workspace tree. Directories come first, then files, both in case-insensitive name order. Folders marked (+) are not loaded yet.",
	}, h.Tree.HandleTree)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_expand",
		Description: "Load the children of a folder. Expanding an already loaded folder changes nothing.",
	}, h.Tree.HandleExpand)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "notes_search",
		Description: `Search the contents of every text file in the workspace. The query is literal text, never a regular expression.

Options:
  - wholeWord: "cat" no longer matches "category"
  - caseSensitive: match letter case exactly
  - extensions: only search files with these extensions (e.g. ["md", "txt"])

Each result shows the match count and the first matching line with matches in **bold**.`,
	}, h.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "notes_files",
		Description: `Find files by name.

Pattern examples:
  - "**/*.md" - all Markdown notes
  - "journal/2024-*" - files in journal/ starting with 2024-
  - with fuzzy=true, "mtgnts" finds "meeting-notes.md"`,
	}, h.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_read",
		Description: `Read a file from the workspace. Returns numbered lines (format: "N│ content"). Binary files are reported but not shown.`,
	}, h.Read.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_status",
		Description: "Show the open workspace, cached and loaded entries, tag count, memory usage and uptime.",
	}, h.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_refresh",
		Description: "Re-read every loaded folder from disk and merge the changes into the tree. Expanded folders stay expanded.",
	}, h.Refresh.Handle)
}

func registerMutations(mcpServer *mcp.Server, h *tools.MutationHandler) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_create_file",
		Description: "Create a file in a folder. Fails if an item with the same name exists.",
	}, h.HandleCreateFile)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_create_folder",
		Description: "Create a folder. Fails if an item with the same name exists.",
	}, h.HandleCreateFolder)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_delete",
		Description: "Delete a file, or a folder with everything inside it. Requires confirm=true; otherwise nothing is deleted.",
	}, h.HandleDelete)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_rename",
		Description: "Rename a file or folder in place. Renaming the workspace root reopens the workspace at the new path.",
	}, h.HandleRename)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "notes_move",
		Description: "Move a file or folder into another folder. A folder cannot be moved into itself or one of its subfolders. An existing item with the same name is only replaced when overwrite=true.",
	}, h.HandleMove)
}

func registerTags(mcpServer *mcp.Server, h *tools.TagsHandler) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_list",
		Description: "List all tags, or the tags assigned to one item when path is given.",
	}, h.HandleList)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_create",
		Description: "Create a tag. Colour is #rrggbb and defaults to #FF6B6B.",
	}, h.HandleCreate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_update",
		Description: "Rename or recolour a tag, given its id or name.",
	}, h.HandleUpdate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_delete",
		Description: "Delete a tag and remove it from every item.",
	}, h.HandleDelete)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_assign",
		Description: "Replace the tags on an item. An empty list removes all of its tags.",
	}, h.HandleAssign)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_toggle",
		Description: "Add a tag to an item, or remove it if the item already has it.",
	}, h.HandleToggle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tags_query",
		Description: "List items that carry any of the given tags.",
	}, h.HandleQuery)
}
