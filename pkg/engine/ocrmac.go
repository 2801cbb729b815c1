package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// DefaultOcrmacCommand is the helper executable invoked by Ocrmac.
const DefaultOcrmacCommand = "ocrmac-helper"

// Ocrmac recognizes text with Apple's Vision and LiveText frameworks through
// an external helper. The helper is invoked once per page as
//
//	ocrmac-helper [--level fast|accurate] [--framework livetext] [--lang tag]... image
//
// and prints a JSON array of annotations to stdout, each either an object
// {"text": ..., "confidence": ..., "bbox": [x, y, w, h]} or a
// [text, confidence, [x, y, w, h]] triple. Coordinates are normalized with a
// bottom-left origin.
type Ocrmac struct {
	// Command is the helper executable; defaults to DefaultOcrmacCommand.
	Command string
	// GOOS overrides runtime.GOOS for capability checks.
	GOOS string
	// MacVersion reports the macOS product version; defaults to MacOSVersion.
	MacVersion func(ctx context.Context) (string, error)
	Logger     zerolog.Logger
}

// NewOcrmac returns an Ocrmac adapter for the given helper command.
func NewOcrmac(command string, logger zerolog.Logger) *Ocrmac {
	return &Ocrmac{Command: command, Logger: logger}
}

// Name implements Recognizer.
func (o *Ocrmac) Name() string { return "ocrmac" }

// CheckCapability reports whether params.Level can run on this machine.
func (o *Ocrmac) CheckCapability(ctx context.Context, level RecognitionLevel) error {
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	version := ""
	if goos == "darwin" && level == LevelLiveText {
		versionFn := o.MacVersion
		if versionFn == nil {
			versionFn = MacOSVersion
		}
		v, err := versionFn(ctx)
		if err != nil {
			o.Logger.Debug().Err(err).Msg("could not determine macOS version")
		}
		version = v
	}
	return CheckMacCapability(level, goos, version)
}

// Recognize implements Recognizer.
func (o *Ocrmac) Recognize(ctx context.Context, img raster.Image, params Params) ([]ocrbridge.Annotation, error) {
	const op = "Recognize"

	if err := params.Validate(); err != nil {
		return nil, err
	}
	level := params.EffectiveLevel()
	if err := o.CheckCapability(ctx, level); err != nil {
		return nil, WrapError(o.Name(), op, err, "")
	}

	command := o.Command
	if command == "" {
		command = DefaultOcrmacCommand
	}
	args := helperArgs(img.Path, level, params.Languages)

	o.Logger.Debug().Int("page", img.Page).Str("command", command).Strs("args", args).Msg("running ocrmac helper")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, WrapError(o.Name(), op,
			fmt.Errorf("%w: %v", ocrbridge.ErrEngineExecution, err),
			strings.TrimSpace(stderr.String()))
	}

	annotations, err := DecodeAnnotations(stdout.Bytes(), img.Page)
	if err != nil {
		return nil, WrapError(o.Name(), op, err, "invalid helper output")
	}

	o.Logger.Debug().Int("page", img.Page).Int("annotations", len(annotations)).Msg("ocrmac finished")
	return annotations, nil
}

// helperArgs builds the helper command line. Balanced is the helper's
// default and passes no level flag.
func helperArgs(path string, level RecognitionLevel, languages []string) []string {
	var args []string
	switch level {
	case LevelFast, LevelAccurate:
		args = append(args, "--level", string(level))
	case LevelLiveText:
		args = append(args, "--framework", "livetext")
	}
	for _, lang := range languages {
		args = append(args, "--lang", lang)
	}
	return append(args, path)
}

type annotationRecord struct {
	Text       *string   `json:"text"`
	Confidence *float64  `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// DecodeAnnotations parses helper output into annotations. The output must be
// a JSON array; a page without text is "[]". Anything else, including empty
// output, fails the page with an *ocrbridge.PageError, naming the record when
// a single record is malformed.
func DecodeAnnotations(data []byte, page int) ([]ocrbridge.Annotation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &ocrbridge.PageError{
			Page: page,
			Err:  fmt.Errorf("%w: helper output is not a JSON array: %.40q", ocrbridge.ErrEngineExecution, data),
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ocrbridge.PageError{
			Page: page,
			Err:  fmt.Errorf("%w: output is not a JSON array: %v", ocrbridge.ErrEngineExecution, err),
		}
	}

	annotations := make([]ocrbridge.Annotation, 0, len(raw))
	for i, msg := range raw {
		ann, err := decodeRecord(msg)
		if err != nil {
			return nil, &ocrbridge.PageError{
				Page:       page,
				Annotation: i + 1,
				Err:        fmt.Errorf("%w: %v", ocrbridge.ErrEngineExecution, err),
			}
		}
		annotations = append(annotations, ann)
	}
	return annotations, nil
}

func decodeRecord(msg json.RawMessage) (ocrbridge.Annotation, error) {
	var rec annotationRecord

	switch trimmed := bytes.TrimSpace(msg); {
	case len(trimmed) > 0 && trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return ocrbridge.Annotation{}, fmt.Errorf("malformed annotation object: %v", err)
		}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var triple []json.RawMessage
		if err := json.Unmarshal(trimmed, &triple); err != nil || len(triple) != 3 {
			return ocrbridge.Annotation{}, fmt.Errorf("annotation must be [text, confidence, bbox]")
		}
		var text string
		var conf float64
		if err := json.Unmarshal(triple[0], &text); err != nil {
			return ocrbridge.Annotation{}, fmt.Errorf("annotation text: %v", err)
		}
		if err := json.Unmarshal(triple[1], &conf); err != nil {
			return ocrbridge.Annotation{}, fmt.Errorf("annotation confidence: %v", err)
		}
		if err := json.Unmarshal(triple[2], &rec.BBox); err != nil {
			return ocrbridge.Annotation{}, fmt.Errorf("annotation bbox: %v", err)
		}
		rec.Text, rec.Confidence = &text, &conf
	default:
		return ocrbridge.Annotation{}, fmt.Errorf("annotation must be an object or an array")
	}

	switch {
	case rec.Text == nil:
		return ocrbridge.Annotation{}, fmt.Errorf("annotation has no text")
	case rec.Confidence == nil:
		return ocrbridge.Annotation{}, fmt.Errorf("annotation has no confidence")
	case len(rec.BBox) != 4:
		return ocrbridge.Annotation{}, fmt.Errorf("bbox must have 4 components, got %d", len(rec.BBox))
	}

	return ocrbridge.Annotation{
		Text:       *rec.Text,
		Confidence: *rec.Confidence,
		BBox: ocrbridge.NormalizedBox{
			X: rec.BBox[0],
			Y: rec.BBox[1],
			W: rec.BBox[2],
			H: rec.BBox[3],
		},
	}, nil
}
