// Copyright 2026 FoodBlock Protocol
//
// One-shot HTTP client behind the fb command
// Package fbcli implements the `fb` command-line client (§6.4): a thin
// HTTP client over a running FoodBlock server, in the spirit of the
// teacher's cmd/ tools that delegate their real logic to a package and
// keep main.go to flag parsing.
package fbcli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options are the flags shared across subcommands.
type Options struct {
	Server  string
	Ref     string
	RefVal  string
	Limit   int
	Heads   bool
}

// DefaultServer is used when --server is not given and FOODBLOCK_URL is
// unset.
const DefaultServer = "http://localhost:8080"

type client struct {
	base string
	http *http.Client
}

func newClient(opts Options) *client {
	base := strings.TrimSuffix(opts.Server, "/")
	if base == "" {
		base = DefaultServer
	}
	return &client{base: base, http: &http.Client{Timeout: 15 * time.Second}}
}

// Run dispatches one subcommand, returning a human-readable result or an
// error prefixed "error: " by the caller (§6.4 "exit non-zero with
// 'error: <msg>' on failure").
func Run(cmd string, args []string, opts Options) (string, error) {
	c := newClient(opts)
	switch cmd {
	case "create":
		return c.create(strings.Join(args, " "))
	case "get":
		if len(args) == 0 {
			return "", fmt.Errorf("get requires a hash argument")
		}
		return c.get(args[0])
	case "query":
		return c.query(opts)
	case "tree":
		if len(args) == 0 {
			return "", fmt.Errorf("tree requires a hash argument")
		}
		return c.tree(args[0])
	case "chain":
		if len(args) == 0 {
			return "", fmt.Errorf("chain requires a hash argument")
		}
		return c.chain(args[0])
	case "info":
		return c.info()
	case "help", "":
		return Usage(), nil
	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

// Usage is printed by `fb help` and when fb is run with no arguments.
func Usage() string {
	return "fb [create|get|query|tree|chain|info|help] [--server URL] [--ref role --ref_value h] [--limit N] [--heads] [<free text>]"
}

func (c *client) create(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("create requires free text describing the block")
	}
	var out map[string]any
	if err := c.postJSON("/fb", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) get(hash string) (string, error) {
	var out map[string]any
	if err := c.getJSON("/blocks/"+hash, &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) query(opts Options) (string, error) {
	path := "/blocks?"
	if opts.Ref != "" && opts.RefVal != "" {
		path = "/find?ref=" + opts.Ref + "&ref_value=" + opts.RefVal
	}
	if opts.Heads {
		path += "&heads=true"
	}
	if opts.Limit > 0 {
		path += fmt.Sprintf("&limit=%d", opts.Limit)
	}
	var out map[string]any
	if err := c.getJSON(path, &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) tree(hash string) (string, error) {
	var out map[string]any
	if err := c.getJSON("/tree/"+hash, &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) chain(hash string) (string, error) {
	var out map[string]any
	if err := c.getJSON("/chain/"+hash, &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) info() (string, error) {
	var out map[string]any
	if err := c.getJSON("/.well-known/foodblock", &out); err != nil {
		return "", err
	}
	return formatJSON(out), nil
}

func (c *client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, out)
}

func (c *client) postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, out)
}

func decodeOrError(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("%s", envelope.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
