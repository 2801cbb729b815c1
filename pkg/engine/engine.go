// Package engine defines the contract between the pipeline and OCR engines
// and implements the ocrmac adapter.
//
// A Recognizer reads one page image and reports text regions as
// ocrbridge.Annotation values: normalized coordinates with a bottom-left
// origin. Adapters for engines that use another convention convert at this
// boundary, so everything downstream sees a single shape.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// Recognizer runs OCR on a single page image.
//
// Implementations return ocrbridge.ErrUnsupportedCapability when the
// requested level cannot run here and ocrbridge.ErrEngineExecution when
// recognition fails. Annotations are returned in reading order.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img raster.Image, params Params) ([]ocrbridge.Annotation, error)
}

// RecognitionLevel trades speed for accuracy.
type RecognitionLevel string

const (
	LevelFast     RecognitionLevel = "fast"
	LevelBalanced RecognitionLevel = "balanced"
	LevelAccurate RecognitionLevel = "accurate"
	// LevelLiveText uses the LiveText framework and needs macOS 14 or later.
	LevelLiveText RecognitionLevel = "livetext"
)

// Levels lists every recognition level.
var Levels = []RecognitionLevel{LevelFast, LevelBalanced, LevelAccurate, LevelLiveText}

// MaxLanguages is the most languages an engine can be asked for.
const MaxLanguages = 5

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid recognition parameters")

// language[-Script][-Region], e.g. en, en-US, zh-Hans, zh-Hans-CN
var languagePattern = regexp.MustCompile(`(?i)^[a-z]{2,3}(-[A-Z][a-z]{3})?(-[A-Z]{2})?$`)

// ParseLevel maps a level name to a RecognitionLevel. The empty string
// selects LevelBalanced.
func ParseLevel(s string) (RecognitionLevel, error) {
	if s == "" {
		return LevelBalanced, nil
	}
	for _, l := range Levels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown recognition level %q (want one of fast, balanced, accurate, livetext)", ErrInvalidParams, s)
}

// Params controls a recognition run.
type Params struct {
	Level     RecognitionLevel // zero value means LevelBalanced
	Languages []string         // BCP 47 tags in preference order, at most MaxLanguages
}

// EffectiveLevel returns the level, applying the default.
func (p Params) EffectiveLevel() RecognitionLevel {
	if p.Level == "" {
		return LevelBalanced
	}
	return p.Level
}

// Validate checks the level and language tags.
func (p Params) Validate() error {
	if _, err := ParseLevel(string(p.Level)); err != nil {
		return err
	}
	if len(p.Languages) > MaxLanguages {
		return fmt.Errorf("%w: maximum %d languages allowed, got %d", ErrInvalidParams, MaxLanguages, len(p.Languages))
	}
	for _, lang := range p.Languages {
		if !languagePattern.MatchString(lang) {
			return fmt.Errorf("%w: invalid IETF BCP 47 language code %q, expected a form like en-US, fr-FR or zh-Hans", ErrInvalidParams, lang)
		}
	}
	return nil
}
