package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fau-Caudullo/happyapp/client"
)

var (
	apiFlag  string
	dateFlag string
	rootCmd  = &cobra.Command{
		Use:           "happyctl",
		Short:         "CLI client for the happyapp REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func newClient() (*client.Client, error) {
	return client.New(apiFlag, client.WithHTTPTimeout(15*time.Second), client.WithRetries(2))
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", envOr("HAPPYAPP_API", "http://localhost:8080"), "happyapp service base URL")
	rootCmd.PersistentFlags().StringVarP(&dateFlag, "date", "d", "", "Date as YYYY-MM-DD (default today)")

	rootCmd.AddCommand(dayCmd(), taskCmd(), noteCmd(), factCmd(), medsCmd(), journalCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
