package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"repowiki/internal/config"
	"repowiki/internal/enrich"
	"repowiki/internal/errors"
	"repowiki/internal/model"
	"repowiki/internal/rules"
	"repowiki/internal/source"
	"repowiki/internal/store"
)

var explainSnapshot string

var explainCmd = &cobra.Command{
	Use:   "explain <name-or-url>",
	Short: "Explain how a repository was classified and scored",
	Long: `Prints the per-category score breakdown, tags, difficulty and quality score
for one repository. The record is looked up in the persisted collection, or
in --snapshot when given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVarP(&explainSnapshot, "snapshot", "s", "", "Look the record up in this snapshot instead of the collection")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := rules.Load(config.Resolve(s.root, s.cfg.RulesFile))
	if err != nil {
		return err
	}
	rec, err := lookupRecord(s, args[0])
	if err != nil {
		return err
	}

	e := enrich.New(rs, s.logger)
	out, err := e.EnrichOne(rec)
	if err != nil {
		return err
	}
	return printResponse(cmd, &ExplainResponseCLI{
		Key:          out.Key(),
		Name:         out.Name,
		Language:     out.Language,
		Category:     out.Category,
		Scores:       e.Classifier().Scores(out),
		Tags:         out.Tags,
		Difficulty:   string(out.Difficulty),
		QualityScore: out.QualityScore,
	})
}

// lookupRecord finds the record whose url or name matches query.
func lookupRecord(s *session, query string) (model.Record, error) {
	var recs []model.Record
	if explainSnapshot != "" {
		raws, err := source.ReadFile(explainSnapshot)
		if err != nil {
			return model.Record{}, err
		}
		recs, _ = enrich.NormalizeBatch(raws)
	} else {
		st, err := store.New(config.Resolve(s.root, s.cfg.DataFile)).Read()
		if err != nil {
			return model.Record{}, err
		}
		recs = st.Repositories
	}

	for _, r := range recs {
		if r.URL == query || strings.EqualFold(r.Name, query) {
			return r, nil
		}
	}
	return model.Record{}, errors.New(errors.InternalError,
		fmt.Sprintf("no repository matches %q", query), nil)
}

// ExplainResponseCLI is the classification breakdown of one record.
type ExplainResponseCLI struct {
	Key          string                 `json:"key"`
	Name         string                 `json:"name"`
	Language     string                 `json:"language"`
	Category     string                 `json:"category"`
	Scores       []enrich.CategoryScore `json:"scores"`
	Tags         []string               `json:"tags"`
	Difficulty   string                 `json:"difficulty"`
	QualityScore float64                `json:"qualityScore"`
}
