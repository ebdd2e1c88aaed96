// Command notyfai-send forwards one Cursor hook invocation to the notyfai webhook.
//
// Cursor runs it with the hook JSON on stdin. The webhook URL comes from --url,
// NOTYFAI_HOOK_URL or ~/.cursor/notyfai-url. It always answers "{}" on stdout so the
// editor proceeds, and never waits longer than --timeout.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	urlEnv      = "NOTYFAI_HOOK_URL"
	urlFile     = "notyfai-url"
	maxInput    = 1 << 20
	eventHeader = "x-cursor-event"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errNoURL = errors.New("no hook URL: set --url, " + urlEnv + " or ~/.cursor/" + urlFile)

// hookURL resolves the webhook URL: flag, then environment, then the file written by the setup command.
func hookURL(flagURL string) (string, error) {
	if v := strings.TrimSpace(flagURL); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(urlEnv)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errNoURL
	}
	b, err := os.ReadFile(filepath.Join(home, ".cursor", urlFile))
	if err != nil {
		return "", errNoURL
	}
	if v := strings.TrimSpace(string(b)); v != "" {
		return v, nil
	}
	return "", errNoURL
}

// eventName returns hook_event_name of the input when it is a string.
func eventName(body []byte) string {
	var in struct {
		HookEventName any `json:"hook_event_name"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return ""
	}
	s, _ := in.HookEventName.(string)
	return s
}

func send(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if ev := eventName(body); ev != "" {
		req.Header.Set(eventHeader, ev)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

// run forwards stdin and reports the outcome on stderr; stdout always gets "{}".
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("notyfai-send", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	flagURL := fs.String("url", "", "webhook URL (default $"+urlEnv+" or ~/.cursor/"+urlFile+")")
	timeout := fs.Duration("timeout", 5*time.Second, "maximum time spent delivering the event")
	showVersion := fs.Bool("version", false, "print version and exit")

	defer fmt.Fprintln(stdout, "{}")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stderr, "notyfai-send %s (%s)\n", version, buildDate)
		return 0
	}

	url, err := hookURL(*flagURL)
	if err != nil {
		fmt.Fprintln(stderr, "notyfai:", err)
		return 0
	}

	body, err := io.ReadAll(io.LimitReader(stdin, maxInput))
	if err != nil {
		fmt.Fprintln(stderr, "notyfai: read stdin:", err)
		body = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := send(ctx, &http.Client{}, url, body); err != nil {
		fmt.Fprintln(stderr, "notyfai:", err)
	}
	// delivery failures must not fail the editor hook
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
