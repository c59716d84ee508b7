package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dashcore/internal/core"
	"dashcore/pkg/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// session is a recorded sequence of store operations. Each step sets exactly
// one action.
type session struct {
	Steps []step `yaml:"steps"`
}

type step struct {
	Update map[string]any `yaml:"update,omitempty"`
	Source string         `yaml:"source,omitempty"`
	Undo   bool           `yaml:"undo,omitempty"`
	Redo   bool           `yaml:"redo,omitempty"`
	Reset  bool           `yaml:"reset,omitempty"`
	Save   string         `yaml:"save,omitempty"`
	Load   string         `yaml:"load,omitempty"`
	Click  *clickStep     `yaml:"click,omitempty"`
}

type clickStep struct {
	Chart string `yaml:"chart"`
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

var errStepAction = errors.New("step must set exactly one action")

func (s step) actions() int {
	n := 0
	for _, set := range []bool{s.Update != nil, s.Undo, s.Redo, s.Reset, s.Save != "", s.Load != "", s.Click != nil} {
		if set {
			n++
		}
	}
	return n
}

func loadSession(path string) (session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return session{}, fmt.Errorf("read session: %w", err)
	}
	var sess session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return session{}, fmt.Errorf("decode session: %w", err)
	}
	for i, st := range sess.Steps {
		if st.actions() != 1 {
			return session{}, fmt.Errorf("step %d: %w", i+1, errStepAction)
		}
	}
	return sess, nil
}

// replay applies every step in order. Undo and redo past the ends of the
// history are no-ops, matching the store.
func replay(ctx context.Context, store *core.Store, sess session) error {
	for i, st := range sess.Steps {
		if err := apply(ctx, store, st); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func apply(ctx context.Context, store *core.Store, st step) error {
	switch {
	case st.Update != nil:
		u, unknown, err := domain.UpdateFromMap(st.Update)
		if err != nil {
			return err
		}
		if len(unknown) > 0 {
			return fmt.Errorf("%w: %v", domain.ErrUnknownField, unknown)
		}
		source := st.Source
		if source == "" {
			source = "control"
		}
		store.Update(u, source)
	case st.Undo:
		store.Undo()
	case st.Redo:
		store.Redo()
	case st.Reset:
		store.ResetToDefault()
	case st.Save != "":
		return store.SaveState(ctx, st.Save)
	case st.Load != "":
		if !store.LoadState(ctx, st.Load) {
			return fmt.Errorf("snapshot %q not found", st.Load)
		}
	case st.Click != nil:
		_, _, err := store.HandleInteraction(core.Interaction{
			ChartID: st.Click.Chart,
			Kind:    core.InteractionClick,
			Field:   domain.Field(st.Click.Field),
			Value:   st.Click.Value,
		})
		return err
	}
	return nil
}

func (a *app) replaySession(cmd *cobra.Command, path string) (*core.Store, error) {
	sess, err := loadSession(path)
	if err != nil {
		return nil, err
	}
	store, err := a.newStore()
	if err != nil {
		return nil, err
	}
	if err := replay(cmd.Context(), store, sess); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <session.yaml>",
		Short: "Apply a recorded session and print the final state",
		Long: `A session file lists steps, each with one action:

  steps:
    - update: {selectedRegion: Europe}
    - click: {chart: industry-pie, field: selectedIndustry, value: Retail}
    - undo: true
    - redo: true
    - save: europe-retail
    - reset: true
    - load: europe-retail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.replaySession(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"state":    store.State(),
				"position": store.Position(),
				"history":  len(store.History()),
				"canUndo":  store.CanUndo(),
				"canRedo":  store.CanRedo(),
			})
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <session.yaml>",
		Short: "Replay a session, print its transaction log and verify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.replaySession(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, tx := range store.History() {
				marker := " "
				if i == store.Position() {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %3d %-24s %s\n", marker, i, tx.Source, tx.Updates)
			}
			if err := store.VerifyHistory(); err != nil {
				return err
			}
			fmt.Fprintln(out, "history verified")
			return nil
		},
	}
}
