// Command mockcallback plays the gateway against a local backend: it signs
// a payment result assertion or a recurring collection notice and posts it.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "mockcallback",
		Short: "Send signed Adumo callbacks to a local backend",
	}
	rootCmd.PersistentFlags().String("base-url", "http://localhost:8080", "Backend base URL")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Print the request without sending it")

	rootCmd.AddCommand(paymentCmd())
	rootCmd.AddCommand(collectionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
