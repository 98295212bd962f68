// Package version reports the running build's version string, loaded
// once from a sidecar JSON file rather than baked in at compile time.
package version

import (
	"encoding/json"
	"log"
	"os"
)

type Info struct {
	Version string `json:"version"`
}

// Load reads version.json from the working directory. A missing or
// unparsable file is not fatal: the server still starts, just unable to
// report a precise version.
func Load() Info {
	data, err := os.ReadFile("version.json")
	if err != nil {
		log.Printf("warning: could not read version.json: %v", err)
		return Info{Version: "0.0.0"}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("warning: could not parse version.json: %v", err)
		return Info{Version: "0.0.0"}
	}
	return info
}
