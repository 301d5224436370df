package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/backend/badgerbk"
	"github.com/mjansen/strata/lib/backend/memory"
	"github.com/mjansen/strata/lib/serializer"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from env files and environment
// variables. Flags override environment variables; the environment variable
// for a flag is STRATA_<FLAG> with dashes replaced by underscores
// (e.g. STRATA_DATA_DIR).
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("strata")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetBackend creates a backend based on configuration. The badger backend
// stores its data under the configured data directory.
func GetBackend() (backend.Backend, error) {
	switch viper.GetString("backend") {
	case "memory":
		return memory.New(), nil
	case "badger":
		return badgerbk.Open(viper.GetString("data-dir"), false)
	default:
		return nil, fmt.Errorf("invalid backend %s", viper.GetString("backend"))
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.Serializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "yaml":
		return serializer.NewYAMLSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}
