// Package csb19 generates CSB 19 direct debit files from payment groups.
//
// Generation runs in four forward-only stages:
//
//	BuildContext -> SplitConcepts (per receipt) -> Sequence -> Compose
//
// The fixed-width encoder and the attachment store are injected, so the
// package holds no I/O of its own.
package csb19

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ginjaninja78/csb19-generator/internal/types"
)

// Attacher stores the generated file text as an attachment of its group
// and returns where it was stored.
type Attacher interface {
	Attach(group *types.PaymentGroup, text string) (string, error)
}

// Attachers attaches the same file to several stores, in order, stopping
// at the first failure. The location of the first store is returned.
type Attachers []Attacher

// Attach implements Attacher.
func (a Attachers) Attach(group *types.PaymentGroup, text string) (string, error) {
	var first string
	for i, attacher := range a {
		location, err := attacher.Attach(group, text)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = location
		}
	}
	return first, nil
}

// Result is the outcome of a successful generation.
type Result struct {
	// Text is the complete file.
	Text string

	// Lines is the number of lines in Text.
	Lines int

	// State holds the final counters.
	State State

	// Location is where the attacher stored the file; empty for Generate.
	Location string
}

// Generator turns payment groups into CSB 19 files.
type Generator struct {
	encoder  Encoder
	attacher Attacher
	logger   *slog.Logger
}

// NewGenerator returns a Generator. attacher may be nil when only Generate
// is used; logger defaults to slog.Default().
func NewGenerator(encoder Encoder, attacher Attacher, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{encoder: encoder, attacher: attacher, logger: logger}
}

// Generate builds the file text for the group without attaching it.
// It is deterministic: the same group and configuration give the same text.
func (g *Generator) Generate(group *types.PaymentGroup, cfg types.JournalConfig) (*Result, error) {
	ctx, err := BuildContext(group, cfg)
	if err != nil {
		return nil, err
	}

	lines, state, err := Sequence(ctx, g.encoder)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("csb19 records sequenced",
		"group", group.Reference,
		"receipts", state.RequiredCount,
		"records", state.RecordCount,
		"amount", state.Amount.StringFixed(2),
	)

	return &Result{
		Text:  Compose(lines),
		Lines: len(lines),
		State: state,
	}, nil
}

// Process generates the file and hands it to the attacher.
func (g *Generator) Process(group *types.PaymentGroup, cfg types.JournalConfig) (*Result, error) {
	if g.attacher == nil {
		return nil, errors.New("csb19: no attacher configured")
	}

	result, err := g.Generate(group, cfg)
	if err != nil {
		return nil, err
	}

	location, err := g.attacher.Attach(group, result.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to attach csb19 file: %w", err)
	}
	result.Location = location

	g.logger.Info("csb19 file attached",
		"group", group.Reference,
		"records", result.State.RecordCount,
		"location", location,
	)
	return result, nil
}
