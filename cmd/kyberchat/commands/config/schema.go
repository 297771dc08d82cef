package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/pkg/config"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schema for configuration",
	Long: `Generate a JSON schema describing the KyberChat configuration file,
suitable for IDE autocompletion, validation, and documentation tooling.

Examples:
  # Print schema to stdout
  kyberchat config schema

  # Save schema to file
  kyberchat config schema --output config.schema.json`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
}

func runSchema(cmd *cobra.Command, _ []string) error {
	// DoNotReference inlines nested types so editors get a single
	// self-contained document.
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "KyberChat Configuration"
	schema.Description = "Configuration schema for the KyberChat server"

	rendered, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if schemaOutput == "" {
		cmd.Println(string(rendered))
		return nil
	}

	if err := os.WriteFile(schemaOutput, rendered, 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	cmd.Printf("JSON schema written to %s\n", schemaOutput)
	return nil
}
