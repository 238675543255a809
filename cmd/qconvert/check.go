package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/spf13/cobra"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/bundle"
	"github.com/gofhir/qconvert/pkg/invariant"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

func newCheckCmd() *cobra.Command {
	var versionFlag string
	cmd := &cobra.Command{
		Use:   "check --version VERSION FILE...",
		Short: "Check Questionnaires against the post-conversion invariants",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := qconvert.ParseVersion(strings.ToUpper(versionFlag))
			if !ok {
				return fmt.Errorf("unknown version %q (want STU3, R4, R4B or R5)", versionFlag)
			}
			paths, err := expandInputs(args)
			if err != nil {
				return err
			}

			checker := invariant.New()
			failed := false
			w := cmd.OutOrStdout()
			for _, p := range paths {
				in, err := readInput(p, cmd.InOrStdin())
				if err != nil {
					fmt.Fprintf(w, "%s: %v\n", p, err)
					failed = true
					continue
				}
				vs, err := verifyOutput(checker, in.Data, v)
				if err != nil {
					fmt.Fprintf(w, "%s: %v\n", p, err)
					failed = true
					continue
				}
				if len(vs) == 0 {
					fmt.Fprintf(w, "%s: ok\n", p)
					continue
				}
				for _, viol := range vs {
					fmt.Fprintf(w, "%s: %s\n", p, viol)
				}
				failed = failed || invariant.HasErrors(vs)
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&versionFlag, "version", "", "FHIR version the files claim (STU3, R4, R4B, R5)")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

// verifyOutput checks a Questionnaire, or every Questionnaire entry of a
// Bundle. Other resources have nothing to check.
func verifyOutput(checker *invariant.Checker, data []byte, v qconvert.FHIRVersion) ([]invariant.Violation, error) {
	switch questionnaire.ResourceType(data) {
	case questionnaire.ResourceTypeQuestionnaire:
		return checker.Check(data, v)
	case bundle.ResourceTypeBundle:
	default:
		return nil, nil
	}

	var out []invariant.Violation
	var checkErr error
	index := 0
	_, err := jsonparser.ArrayEach(data, func(entry []byte, _ jsonparser.ValueType, _ int, _ error) {
		defer func() { index++ }()
		resource, dt, _, err := jsonparser.Get(entry, "resource")
		if err != nil || dt != jsonparser.Object || checkErr != nil {
			return
		}
		if questionnaire.ResourceType(resource) != questionnaire.ResourceTypeQuestionnaire {
			return
		}
		vs, err := checker.Check(resource, v)
		if err != nil {
			checkErr = fmt.Errorf("entry %d: %w", index, err)
			return
		}
		for _, viol := range vs {
			viol.Message = fmt.Sprintf("entry %d: %s", index, viol.Message)
			out = append(out, viol)
		}
	}, "entry")
	if checkErr != nil {
		return nil, checkErr
	}
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return out, nil
}
