// Package resources serves the MCP resources: a system information document
// and an environment variable template.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

const (
	// SystemInfoURI is the fixed URI of the system information resource.
	SystemInfoURI = "system://info"
	// EnvTemplate is the URI template of the environment variable resource.
	EnvTemplate = "env://{name}"

	// unsetValue is returned for variables that are not set.
	unsetValue = "undefined"
)

var envTemplate = uritemplate.MustNew(EnvTemplate)

// Options describe the running server for system://info.
type Options struct {
	ServerName     string
	ServerVersion  string
	AnkiConnectURL string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// SystemInfo is the system://info document.
type SystemInfo struct {
	Platform       string `json:"platform"`
	Arch           string `json:"arch"`
	CPUs           int    `json:"cpus"`
	Hostname       string `json:"hostname"`
	GoVersion      string `json:"goVersion"`
	PID            int    `json:"pid"`
	Uptime         string `json:"uptime"`
	ServerName     string `json:"serverName"`
	ServerVersion  string `json:"serverVersion"`
	AnkiConnectURL string `json:"ankiConnectUrl"`
}

type provider struct {
	opts    Options
	started time.Time
}

// Install registers both resources on server.
func Install(server *mcp.Server, opts Options) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	p := &provider{opts: opts, started: time.Now()}

	server.AddResource(&mcp.Resource{
		Name:        "system-info",
		Description: "Current system information and server environment",
		MIMEType:    "application/json",
		URI:         SystemInfoURI,
	}, p.systemInfo)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "environment-variable",
		Description: "Value of an environment variable. The name is upper-cased; unset variables read as \"undefined\".",
		MIMEType:    "text/plain",
		URITemplate: EnvTemplate,
	}, p.envVar)
}

func (p *provider) info() SystemInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return SystemInfo{
		Platform:       runtime.GOOS,
		Arch:           runtime.GOARCH,
		CPUs:           runtime.NumCPU(),
		Hostname:       hostname,
		GoVersion:      runtime.Version(),
		PID:            os.Getpid(),
		Uptime:         time.Since(p.started).Round(time.Second).String(),
		ServerName:     p.opts.ServerName,
		ServerVersion:  p.opts.ServerVersion,
		AnkiConnectURL: p.opts.AnkiConnectURL,
	}
}

func (p *provider) systemInfo(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(p.info(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode system info: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// EnvName extracts the variable name from an env:// URI, upper-cased.
func EnvName(uri string) (string, bool) {
	values := envTemplate.Match(uri)
	if values == nil {
		return "", false
	}
	name := values.Get("name").String()
	if name == "" {
		return "", false
	}
	return strings.ToUpper(name), true
}

func (p *provider) envVar(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name, ok := EnvName(uri)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	value, set := p.opts.LookupEnv(name)
	if !set {
		value = unsetValue
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     value,
		}},
	}, nil
}
