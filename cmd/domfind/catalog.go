package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domfind"
	"github.com/hazyhaar/domfind/locator"
)

// Catalog is the YAML run description: where to go, how to drive the
// browser, and the chains to exercise once the page is up.
type Catalog struct {
	TargetURL string         `yaml:"target_url"`
	Browser   BrowserConfig  `yaml:"browser"`
	Finder    domfind.Config `yaml:"finder"`

	// CaptureDB stores failure diagnostics in SQLite. ScreenshotDir
	// writes PNG evidence instead and wins when both are set.
	CaptureDB     string `yaml:"capture_db"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	// Pacing inserts a pause before and after every mutating action.
	Pacing time.Duration `yaml:"pacing"`

	Steps []Step `yaml:"steps"`
}

// BrowserConfig mirrors the session knobs exposed by the rod driver.
type BrowserConfig struct {
	RemoteURL  string        `yaml:"remote_url"`
	Headful    bool          `yaml:"headful"`
	Stealth    bool          `yaml:"stealth"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// Step pairs a locator chain with the action to perform on whatever
// the chain resolves to.
type Step struct {
	Chain  locator.ChainSpec `yaml:"chain"`
	Action string            `yaml:"action"`
	Text   string            `yaml:"text"`
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cat.TargetURL == "" {
		return nil, fmt.Errorf("%s: target_url is required", path)
	}
	if len(cat.Steps) == 0 {
		return nil, fmt.Errorf("%s: at least one step is required", path)
	}
	for i := range cat.Steps {
		step := &cat.Steps[i]
		if step.Action == "" {
			step.Action = "resolve"
		}
		if _, err := step.Chain.Chain(); err != nil {
			return nil, fmt.Errorf("%s: step %d: %w", path, i+1, err)
		}
		switch step.Action {
		case "resolve", "click", "text", "wait_visible", "wait_hidden":
		case "type":
			if step.Text == "" {
				return nil, fmt.Errorf("%s: step %d: type action needs text", path, i+1)
			}
		default:
			return nil, fmt.Errorf("%s: step %d: unknown action %q", path, i+1, step.Action)
		}
	}
	return &cat, nil
}
