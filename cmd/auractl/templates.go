// Package main implements template management commands for the auractl CLI.
package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesAddCmd)
}

// templatesCmd is the parent command for template operations
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage the server's template library",
	Long: `Inspect and extend the aurad template library.

Templates are the patterns behind binary-semantic compression. The
built-in library ships with the server; custom templates registered here
are persisted when the server runs with a template store.`,
}

// templatesListCmd lists all registered templates
var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered templates",
	Long: `List every template registered on the server, built-in and custom.

Examples:
  auractl templates list`,
	RunE: runTemplatesList,
}

// templatesAddCmd registers a custom template
var templatesAddCmd = &cobra.Command{
	Use:   "add <id> <pattern>",
	Short: "Register a custom template",
	Long: `Register a custom template on the server.

The pattern uses {0}, {1}, ... as slot placeholders. IDs must fit the
wire format (0-255) and may not collide with a built-in template.

Examples:
  auractl templates add 150 "Order {0} has shipped."`,
	Args: cobra.ExactArgs(2),
	RunE: runTemplatesAdd,
}

// TemplatesResponse matches internal/http/types.go TemplatesResponse
type TemplatesResponse struct {
	Templates map[uint16]string `json:"templates"`
	Count     int               `json:"count"`
}

// RegisterTemplateRequest matches internal/http/types.go RegisterTemplateRequest
type RegisterTemplateRequest struct {
	ID      uint16 `json:"id"`
	Pattern string `json:"pattern"`
}

// RegisterTemplateResponse matches internal/http/types.go RegisterTemplateResponse
type RegisterTemplateResponse struct {
	ID      uint16 `json:"id"`
	Pattern string `json:"pattern"`
}

// runTemplatesList handles the templates list command
func runTemplatesList(cmd *cobra.Command, args []string) error {
	var resp TemplatesResponse
	if err := getServer("/v1/templates", &resp); err != nil {
		return err
	}

	ids := make([]int, 0, len(resp.Templates))
	for id := range resp.Templates {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Printf("%d templates registered\n\n", resp.Count)
	for _, id := range ids {
		fmt.Printf("  %3d  %s\n", id, resp.Templates[uint16(id)])
	}

	return nil
}

// runTemplatesAdd handles the templates add command
func runTemplatesAdd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid template id %q: %w", args[0], err)
	}

	req := RegisterTemplateRequest{
		ID:      uint16(id),
		Pattern: args[1],
	}

	var resp RegisterTemplateResponse
	if err := postServer("/v1/templates", req, &resp); err != nil {
		return err
	}

	fmt.Printf("Registered template %d: %s\n", resp.ID, resp.Pattern)

	return nil
}
