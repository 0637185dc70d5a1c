// Package main implements the wire codec commands for the auractl CLI.
package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// compressConversation ties the message into a conversation accelerator
	compressConversation string
	// compressTemplateID forces an explicit template encoding
	compressTemplateID uint16
	// compressSlots are the slot values for a forced template
	compressSlots []string
	// compressRaw switches output to the raw payload bytes
	compressRaw bool
)

func init() {
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
	rootCmd.AddCommand(metadataCmd)

	compressCmd.Flags().StringVar(&compressConversation, "conversation", "", "conversation ID for cache acceleration")
	compressCmd.Flags().Uint16Var(&compressTemplateID, "template", 0, "force a registered template ID")
	compressCmd.Flags().StringArrayVar(&compressSlots, "slot", nil, "slot value for --template (repeatable)")
	compressCmd.Flags().BoolVar(&compressRaw, "raw", false, "write the raw payload bytes to stdout")
}

// compressCmd compresses a message through the server
var compressCmd = &cobra.Command{
	Use:   "compress [text]",
	Short: "Compress a message through the aurad server",
	Long: `Compress a chat message using the aurad server.

Reads the text from the argument, or from stdin when the argument is "-"
or absent. By default prints a summary of the encoding; --raw writes the
binary payload to stdout for piping into decompress.

Examples:
  # Compress a message
  auractl compress "The capital of France is Paris."

  # Force template 12 with explicit slots
  auractl compress --template 12 --slot France --slot Paris "The capital of France is Paris."

  # Drive a conversation cache
  auractl compress --conversation demo-1 "I cannot help with that."

  # Round-trip through the wire format
  auractl compress --raw "Hello there" | auractl decompress -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompress,
}

// decompressCmd recovers text from a wire payload
var decompressCmd = &cobra.Command{
	Use:   "decompress [file]",
	Short: "Decompress a wire payload back to text",
	Long: `Decompress an AURA wire payload using the aurad server.

Reads the raw payload bytes from the named file, or from stdin when the
argument is "-" or absent. The recovered text is written to stdout.

Examples:
  # Decompress a saved payload
  auractl decompress payload.bin

  # Decompress from a pipe
  auractl compress --raw "Hello there" | auractl decompress -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecompress,
}

// metadataCmd inspects a payload's metadata side-channel
var metadataCmd = &cobra.Command{
	Use:   "metadata [file]",
	Short: "Inspect the metadata side-channel of a payload",
	Long: `Decode the metadata entries of an AURA wire payload.

Reads the raw payload bytes from the named file, or from stdin when the
argument is "-" or absent. Prints the signature, classified intent,
predicted compression ratio, and each side-channel entry.

Examples:
  auractl metadata payload.bin
  auractl compress --raw "The capital of France is Paris." | auractl metadata -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMetadata,
}

// CompressRequest matches internal/http/types.go CompressRequest
type CompressRequest struct {
	Text           string   `json:"text"`
	ConversationID string   `json:"conversation_id,omitempty"`
	TemplateID     *uint16  `json:"template_id,omitempty"`
	Slots          []string `json:"slots,omitempty"`
}

// CompressResponse matches internal/http/types.go CompressResponse
type CompressResponse struct {
	Payload        string   `json:"payload"`
	Method         string   `json:"method"`
	OriginalSize   int      `json:"original_size"`
	CompressedSize int      `json:"compressed_size"`
	Ratio          float64  `json:"ratio"`
	TemplateIDs    []uint16 `json:"template_ids,omitempty"`
	ConversationID string   `json:"conversation_id"`
	CacheHit       bool     `json:"cache_hit"`
	Signature      uint32   `json:"signature"`
}

// DecompressRequest matches internal/http/types.go DecompressRequest
type DecompressRequest struct {
	Payload string `json:"payload"`
}

// DecompressResponse matches internal/http/types.go DecompressResponse
type DecompressResponse struct {
	Text        string   `json:"text"`
	Method      string   `json:"method"`
	TemplateIDs []uint16 `json:"template_ids,omitempty"`
}

// MetadataRequest matches internal/http/types.go MetadataRequest
type MetadataRequest struct {
	Payload string `json:"payload"`
}

// MetadataEntry matches internal/http/types.go MetadataEntry
type MetadataEntry struct {
	TokenIndex uint16 `json:"token_index"`
	Kind       string `json:"kind"`
	Value      uint16 `json:"value"`
}

// MetadataResponse matches internal/http/types.go MetadataResponse
type MetadataResponse struct {
	Entries        []MetadataEntry `json:"entries"`
	Signature      uint32          `json:"signature"`
	Intent         string          `json:"intent"`
	PredictedRatio float64         `json:"predicted_ratio"`
}

// runCompress handles the compress command
func runCompress(cmd *cobra.Command, args []string) error {
	// The argument is the literal text; a file makes no sense here.
	var text []byte
	if len(args) == 0 || args[0] == "-" {
		stdin, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		text = stdin
	} else {
		text = []byte(args[0])
	}
	if len(text) == 0 {
		return fmt.Errorf("no text to compress")
	}

	req := CompressRequest{
		Text:           string(text),
		ConversationID: compressConversation,
		Slots:          compressSlots,
	}
	if cmd.Flags().Changed("template") {
		id := compressTemplateID
		req.TemplateID = &id
	}

	var resp CompressResponse
	if err := postServer("/v1/compress", req, &resp); err != nil {
		return err
	}

	if compressRaw {
		payload, err := base64.StdEncoding.DecodeString(resp.Payload)
		if err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
		if _, err := os.Stdout.Write(payload); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
		fmt.Fprintf(os.Stderr, "[auractl] %s: %d -> %d bytes (%.2fx)\n",
			resp.Method, resp.OriginalSize, resp.CompressedSize, resp.Ratio)
		return nil
	}

	fmt.Printf("Method:       %s\n", resp.Method)
	fmt.Printf("Size:         %d -> %d bytes (%.2fx)\n", resp.OriginalSize, resp.CompressedSize, resp.Ratio)
	if len(resp.TemplateIDs) > 0 {
		fmt.Printf("Templates:    %v\n", resp.TemplateIDs)
	}
	fmt.Printf("Conversation: %s (cache hit: %t)\n", resp.ConversationID, resp.CacheHit)
	fmt.Printf("Signature:    0x%08x\n", resp.Signature)
	fmt.Printf("Payload:      %s\n", resp.Payload)

	return nil
}

// runDecompress handles the decompress command
func runDecompress(cmd *cobra.Command, args []string) error {
	payload, err := readInput(args)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("no payload to decompress")
	}

	req := DecompressRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
	}

	var resp DecompressResponse
	if err := postServer("/v1/decompress", req, &resp); err != nil {
		return err
	}

	// Recovered text goes to stdout so it can be piped; the decode note
	// goes to stderr.
	fmt.Print(resp.Text)
	fmt.Fprintf(os.Stderr, "\n[auractl] decoded via %s\n", resp.Method)

	return nil
}

// runMetadata handles the metadata command
func runMetadata(cmd *cobra.Command, args []string) error {
	payload, err := readInput(args)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("no payload to inspect")
	}

	req := MetadataRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
	}

	var resp MetadataResponse
	if err := postServer("/v1/metadata", req, &resp); err != nil {
		return err
	}

	fmt.Printf("Signature:       0x%08x\n", resp.Signature)
	fmt.Printf("Intent:          %s\n", resp.Intent)
	fmt.Printf("Predicted ratio: %.2fx\n", resp.PredictedRatio)
	fmt.Printf("Entries:         %d\n", len(resp.Entries))
	for _, entry := range resp.Entries {
		fmt.Printf("  [%d] %s value=%d\n", entry.TokenIndex, entry.Kind, entry.Value)
	}

	return nil
}
