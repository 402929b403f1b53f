// Package main provides a minimal HTTP healthcheck binary for container
// runtimes that cannot shell out to curl. It issues a GET against the
// baseline server's readiness endpoint and exits 0 on a 2xx response,
// 1 otherwise.
//
// Usage: healthcheck [url]
//
// Without an argument it checks http://localhost:8080/readyz, matching
// the server's default listen address.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const requestTimeout = 5 * time.Second

func main() {
	if err := check(defaultURL(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}

func defaultURL(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "http://localhost:8080/readyz"
}

func check(url string) error {
	client := &http.Client{Timeout: requestTimeout}

	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return nil
}
