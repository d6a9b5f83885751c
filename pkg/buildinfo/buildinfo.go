// Package buildinfo exposes the version stamped into the meetsum binary.
package buildinfo

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// These vars are set at build time via ldflags:
// -X github.com/otherjamesbrown/meetsum/pkg/buildinfo.Version=v0.3.0
// -X github.com/otherjamesbrown/meetsum/pkg/buildinfo.Commit=b806fe7
// -X github.com/otherjamesbrown/meetsum/pkg/buildinfo.BuildTime=2025-02-07T10:30:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for a component.
type Info struct {
	ServiceName string `json:"service_name" yaml:"service_name"`
	Version     string `json:"version" yaml:"version"`
	Commit      string `json:"commit" yaml:"commit"`
	BuildTime   string `json:"build_time" yaml:"build_time"`
	GoVersion   string `json:"go_version" yaml:"go_version"`
}

// Get returns build info for the named component.
func Get(serviceName string) Info {
	return Info{
		ServiceName: serviceName,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}
}

// String returns a human-readable one-liner like "v0.3.0 (b806fe7, 2025-02-07T10:30:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// Handler returns a gin handler that responds with build info JSON.
func Handler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Get(serviceName))
	}
}
