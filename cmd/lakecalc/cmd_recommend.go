package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lake-health/lakecalc-ai/internal/audit"
	"github.com/lake-health/lakecalc-ai/internal/biometry"
	"github.com/lake-health/lakecalc-ai/internal/catalog"
	"github.com/lake-health/lakecalc-ai/internal/config"
	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/policy"
	"github.com/lake-health/lakecalc-ai/internal/recommend"
	"github.com/lake-health/lakecalc-ai/internal/refine"
)

func newRecommendCommand() *cobra.Command {
	var (
		examPath   string
		configPath string
		policyName string
		policyFile string
		familyID   string
		formula    string
		target     float64
		dbPath     string
		auditDir   string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Compute a toric IOL recommendation from an exam file",
		Long: `Compute a toric IOL recommendation from an exam file.

The exam file is YAML or JSON with per-eye biometry (K1/K2 with axes, axial
length, ACD, assumed SIA). Both eyes are computed when present. The result
is a per-eye ternary decision (toric / borderline / non-toric) with the full
rationale trail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Default()
			if configPath != "" {
				var err error
				settings, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			// Flags win over the settings file.
			flags := cmd.Flags()
			if !flags.Changed("policy") {
				policyName = settings.Policy
			}
			if !flags.Changed("family") {
				familyID = settings.Family
			}
			if !flags.Changed("formula") {
				formula = settings.Formula
			}
			if !flags.Changed("target") {
				target = settings.Target
			}
			if !flags.Changed("db") {
				dbPath = settings.DB
			}
			if !flags.Changed("audit-dir") {
				auditDir = settings.AuditDir
			}

			exam, err := biometry.LoadExam(examPath)
			if err != nil {
				return &InvalidExamError{Message: err.Error()}
			}

			var pol policy.ToricPolicy
			if policyFile != "" {
				pol, err = policy.Load(policyFile)
			} else {
				pol, err = policy.Get(policyName)
			}
			if err != nil {
				return err
			}

			sph, err := formulas.ByName(formula)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore() //nolint:errcheck

			options, err := store.ToricPowers(ctx, familyID)
			if err != nil {
				return err
			}
			consts, err := store.Constants(ctx, familyID)
			if err != nil {
				return err
			}

			eng, err := recommend.NewEngine(pol)
			if err != nil {
				return err
			}
			eng.Refine.Posterior = settings.Posterior
			eng.Refine.Selector.Ratio = settings.Toricity
			src := refine.FormulaSource{Formula: sph, Constants: consts}

			result, err := eng.RecommendExam(ctx, exam, target, options, src)
			if err != nil {
				return err
			}

			writer, err := audit.NewWriter(auditDir)
			if err != nil {
				return err
			}
			if _, err := writer.Write(audit.Record{
				Patient:  exam.Patient,
				Policy:   pol.Name,
				FamilyID: familyID,
				Result:   result,
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			suggested, err := catalog.SuggestFamilies(ctx, store, result.RecommendsToric())
			if err != nil {
				return err
			}
			printExamResult(out, result, pol.Name, familyID, suggested)
			return nil
		},
	}

	cmd.Flags().StringVar(&examPath, "exam", "", "Path to the exam file (YAML or JSON)")
	cmd.Flags().StringVar(&configPath, "config", "", "Settings file with defaults and model overrides")
	cmd.Flags().StringVar(&policyName, "policy", "", "Policy preset name (default: "+policy.DefaultName+")")
	cmd.Flags().StringVar(&policyFile, "policy-file", "", "Custom policy file (preset plus overrides)")
	cmd.Flags().StringVar(&familyID, "family", "acrysof_toric", "IOL family whose catalog and constants to use")
	cmd.Flags().StringVar(&formula, "formula", "", "Spherical formula: "+strings.Join(formulas.Names(), ", "))
	cmd.Flags().Float64Var(&target, "target", 0, "Target postoperative refraction in diopters")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite catalog database (default: embedded catalog)")
	cmd.Flags().StringVar(&auditDir, "audit-dir", "", "Directory for audit records (default: no audit trail)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("exam")

	return cmd
}

func printExamResult(out io.Writer, result *recommend.ExamResult, policyName, familyID string, suggested []catalog.Family) {
	if result.Patient != "" {
		fmt.Fprintf(out, "Patient: %s\n", result.Patient)
	}
	fmt.Fprintf(out, "Policy: %s | Family: %s\n", policyName, familyID)

	for _, rec := range []*recommend.Recommendation{result.OD, result.OS} {
		if rec == nil {
			continue
		}
		fmt.Fprintf(out, "\n%s: %s\n", rec.Eye, strings.ToUpper(string(rec.Decision)))
		fmt.Fprintf(out, "  Orientation: %s | Total: %.2fD @ %.0f° | ELP: %.2f mm (%s, %.2fD sphere)\n",
			rec.Orientation, rec.PostBias, rec.Axis, rec.ELPMM, rec.Formula, rec.SphericalPower)
		if rec.ChosenOption != nil {
			fmt.Fprintf(out, "  Lens: %s %.2fD at the IOL plane (%.2fD corneal), residual %.2fD @ %.0f°\n",
				rec.ChosenOption.SKU, rec.IOLCyl, rec.ChosenOption.Cyl, rec.ResidualMagnitude, rec.ResidualAxis)
		}
		if !rec.Converged {
			fmt.Fprintln(out, "  Warning: ELP did not fully converge within the iteration cap")
		}
		for _, line := range rec.Rationale {
			fmt.Fprintf(out, "  - %s\n", line)
		}
	}

	if len(suggested) > 0 {
		ids := make([]string, 0, len(suggested))
		for _, f := range suggested {
			ids = append(ids, f.ID)
		}
		fmt.Fprintf(out, "\nSuggested families: %s\n", strings.Join(ids, ", "))
	}
}
