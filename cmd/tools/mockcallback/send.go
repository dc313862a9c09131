package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func send(cmd *cobra.Command, req *http.Request, dryRun bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", req.Method, req.URL)
	for k, v := range req.Header {
		fmt.Fprintf(out, "%s: %s\n", k, v[0])
	}

	if dryRun {
		fmt.Fprintln(out, "\n[DRY RUN] Not sending request")
		return nil
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
		// Show the redirect the backend chose instead of following it.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(out, "\nStatus: %d\n", resp.StatusCode)
	if loc := resp.Header.Get("Location"); loc != "" {
		fmt.Fprintf(out, "Location: %s\n", loc)
	}
	if len(body) > 0 {
		fmt.Fprintf(out, "Response: %s\n", body)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend answered %d", resp.StatusCode)
	}
	return nil
}
