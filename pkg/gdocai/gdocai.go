// Package gdocai recognizes page images with Google Document AI.
//
// Client implements engine.Recognizer: each page image is sent to an OCR
// processor with ProcessDocument and the returned tokens are converted into
// ocrbridge annotations. Document AI reports token positions as normalized
// vertices with a top-left origin; they are flipped to the bottom-left
// convention at this boundary.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via a credentials file or GOOGLE_APPLICATION_CREDENTIALS
package gdocai

import (
	"fmt"
)

// Config identifies the Document AI processor to use.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`     // e.g. "us" or "eu"
	ProcessorID     string `yaml:"processor_id"` // OCR processor
	CredentialsFile string `yaml:"credentials_file"`
	// DebugDir, when set, receives the raw API response of every page as JSON.
	DebugDir string `yaml:"debug_dir"`
}

// Validate reports missing processor settings.
func (c Config) Validate() error {
	switch {
	case c.ProjectID == "":
		return fmt.Errorf("document AI project_id is required")
	case c.Location == "":
		return fmt.Errorf("document AI location is required")
	case c.ProcessorID == "":
		return fmt.Errorf("document AI processor_id is required")
	}
	return nil
}

// endpoint returns the regional API endpoint.
func (c Config) endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// processorName returns the resource name of the processor.
func (c Config) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}
