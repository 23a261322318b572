package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/session"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of input events for one document.
//
//	document: home
//	create: true
//	save: true
//	steps:
//	  - kind: drag_start_palette
//	    type: Heading
//	  - kind: drop_canvas
type Script struct {
	Document string         `mapstructure:"document"`
	Create   bool           `mapstructure:"create"`
	Save     bool           `mapstructure:"save"`
	Steps    []domain.Event `mapstructure:"steps"`
}

// StepError reports the step a replay stopped at.
type StepError struct {
	Step  int
	Event domain.Event
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step+1, e.Event.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// LoadScript reads a YAML replay script.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes YAML into a Script. Unknown keys are rejected so typos
// in step fields do not silently become zero values.
func ParseScript(data []byte) (Script, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Script{}, fmt.Errorf("failed to parse script: %w", err)
	}

	var s Script
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &s,
	})
	if err != nil {
		return Script{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Script{}, fmt.Errorf("invalid script: %w", err)
	}
	if s.Document == "" {
		return Script{}, errors.New("invalid script: document is required")
	}
	return s, nil
}

// Replay applies the script's steps in order while holding the document lock
// and returns the resulting collection.
func Replay(ctx context.Context, mgr *session.Manager, s Script) ([]domain.Element, error) {
	if s.Create {
		if err := mgr.Create(ctx, s.Document); err != nil && !errors.Is(err, session.ErrDocumentExists) {
			return nil, err
		}
	}

	var out []domain.Element
	err := mgr.WithDocument(ctx, s.Document, func(ctx context.Context, doc session.Document) error {
		for i, ev := range s.Steps {
			if err := doc.Dispatch(ctx, ev); err != nil {
				return &StepError{Step: i, Event: ev, Err: err}
			}
		}
		if s.Save {
			if err := doc.SaveDocument(ctx); err != nil {
				return err
			}
		}
		out = doc.Elements()
		return nil
	})
	return out, err
}
