package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/npcgate/internal/interaction"
)

// Script is a scripted session. Example:
//
//	game: azure-learning
//	steps:
//	  - talk: alice
//	    times: 2
//	  - state: alice
//	  - reset: alice
type Script struct {
	Game  string `yaml:"game"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one of Talk, State or Reset. State and Reset accept
// "*" for every partner.
type Step struct {
	Talk  string `yaml:"talk,omitempty"`
	Times int    `yaml:"times,omitempty"`
	State string `yaml:"state,omitempty"`
	Reset string `yaml:"reset,omitempty"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, step := range s.Steps {
		set := 0
		for _, v := range []string{step.Talk, step.State, step.Reset} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("step %d: exactly one of talk, state or reset is required", i+1)
		}
		if step.Times < 0 {
			return nil, fmt.Errorf("step %d: times must not be negative", i+1)
		}
	}
	return &s, nil
}

// Run executes the steps in order against m.
func (s *Script) Run(ctx context.Context, m *interaction.Machine, out io.Writer) error {
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch {
		case step.Talk != "":
			times := max(step.Times, 1)
			for n := 0; n < times; n++ {
				if _, err = m.Interact(ctx, step.Talk); err != nil {
					break
				}
			}
		case step.State != "":
			err = printState(ctx, m, allOrOne(step.State), out)
		case step.Reset != "":
			err = m.Reset(ctx, allOrOne(step.Reset))
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func allOrOne(partner string) string {
	if partner == "*" {
		return ""
	}
	return partner
}
