// Package instructions extracts the updater instruction block that release
// authors embed at the top of the release notes.
//
// The block is an HTML comment that must start at the very first byte of the
// body and contain a JSON object with camel-case keys:
//
//	<!--
//	{
//	  "available": true,
//	  "registryKey": "HKLM\\SOFTWARE\\Vendor\\App",
//	  "flags": "NoCache"
//	}
//	-->
//	## What's changed
//	...
package instructions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrNoInstructionBlock means the body does not start with a comment block
	ErrNoInstructionBlock = errors.New("no instruction block at start of release notes")
	// ErrMalformedInstructionBlock means the comment content is not a JSON object
	ErrMalformedInstructionBlock = errors.New("malformed instruction block")
)

// DefaultReplaces is used when the block does not set "replaces"
const DefaultReplaces = "All"

var blockPattern = regexp.MustCompile(`(?s)\A<!--(.*?)-->`)

// blockKeys are the recognised keys; matching is case-sensitive
var blockKeys = map[string]bool{
	"available":      true,
	"registryKey":    true,
	"filePath":       true,
	"flags":          true,
	"depends":        true,
	"nextDeprecated": true,
	"replaces":       true,
	"features":       true,
	"enhancements":   true,
	"bugFixes":       true,
}

// Block holds the update metadata not available from the release API
type Block struct {
	Available      bool     `json:"available"`
	RegistryKey    string   `json:"registryKey,omitempty"`
	FilePath       string   `json:"filePath,omitempty"`
	Flags          string   `json:"flags,omitempty"`
	Depends        string   `json:"depends,omitempty"`
	NextDeprecated string   `json:"nextDeprecated,omitempty"`
	Replaces       string   `json:"replaces,omitempty"`
	Features       []string `json:"features"`
	Enhancements   []string `json:"enhancements"`
	BugFixes       []string `json:"bugFixes"`
}

// Extract locates and decodes the instruction block of a release body
func Extract(body string) (*Block, error) {
	m := blockPattern.FindStringSubmatch(body)
	if m == nil {
		return nil, ErrNoInstructionBlock
	}

	content := strings.TrimSpace(m[1])
	if !strings.HasPrefix(content, "{") {
		return nil, fmt.Errorf("%w: content is not a JSON object", ErrMalformedInstructionBlock)
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInstructionBlock, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedInstructionBlock)
	}

	// encoding/json folds key case; drop keys that differ from the exact names
	for key := range fields {
		if !blockKeys[key] {
			delete(fields, key)
		}
	}
	known, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInstructionBlock, err)
	}

	block := &Block{Replaces: DefaultReplaces}
	if err := json.Unmarshal(known, block); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInstructionBlock, err)
	}

	if block.Features == nil {
		block.Features = []string{}
	}
	if block.Enhancements == nil {
		block.Enhancements = []string{}
	}
	if block.BugFixes == nil {
		block.BugFixes = []string{}
	}

	return block, nil
}
