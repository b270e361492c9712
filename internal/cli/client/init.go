package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the client",
		Long:  "Checks the server is reachable and saves its address to the global config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(serverURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server address (default: http://localhost:8080)")

	return cmd
}

func runInit(serverURL string, outputJSON bool) error {
	_ = godotenv.Load()
	if serverURL == "" {
		serverURL = os.Getenv(envServerURL)
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	api := NewAPIClientWithConfig(serverURL)
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", serverURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{ServerURL: serverURL}); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if outputJSON {
		result := map[string]interface{}{
			"success": true,
			"server":  serverURL,
			"config":  configPath,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Server %s is reachable\n", serverURL)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}
