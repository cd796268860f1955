package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"repowiki/internal/config"
	"repowiki/internal/enrich"
	"repowiki/internal/report"
	"repowiki/internal/rules"
	"repowiki/internal/source"
)

var (
	classifyOut string
	classifyTop int
)

var classifyCmd = &cobra.Command{
	Use:   "classify <snapshot>",
	Short: "Classify a snapshot into the category report",
	Long: `Enriches every record of a snapshot and prints the category report. The
persisted collection is neither read nor written.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyOut, "out", "o", "", "Write the JSON report to this file")
	classifyCmd.Flags().IntVar(&classifyTop, "top", 5, "Repositories listed per category (human format)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := rules.Load(config.Resolve(s.root, s.cfg.RulesFile))
	if err != nil {
		return err
	}
	raws, err := source.ReadFile(args[0])
	if err != nil {
		return err
	}
	res, err := enrich.New(rs, s.logger).Enrich(raws)
	if err != nil {
		return err
	}

	if classifyOut != "" {
		if err := report.WriteJSON(classifyOut, report.Build(res, time.Now())); err != nil {
			return err
		}
		s.logger.Info("Wrote category report", "path", classifyOut, "total", res.Total)
	}
	return printResponse(cmd, convertClassifyResult(res, classifyTop))
}

// ClassifyResponseCLI summarizes a classification pass.
type ClassifyResponseCLI struct {
	Total      int                   `json:"total"`
	Skipped    int                   `json:"skipped"`
	Categories []ClassifyCategoryCLI `json:"categories"`
}

// ClassifyCategoryCLI is one category with its best-scoring members.
type ClassifyCategoryCLI struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	Priority     string           `json:"priority"`
	Count        int              `json:"count"`
	Repositories []RepoSummaryCLI `json:"repositories"`
}

// RepoSummaryCLI is the one-line view of an enriched record.
type RepoSummaryCLI struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	QualityScore float64  `json:"qualityScore"`
	Difficulty   string   `json:"difficulty"`
	Tags         []string `json:"tags"`
}

func convertClassifyResult(res *enrich.Result, top int) *ClassifyResponseCLI {
	resp := &ClassifyResponseCLI{Total: res.Total, Skipped: res.Skipped}
	for _, v := range res.Categories {
		c := ClassifyCategoryCLI{Key: v.Key, Name: v.Name, Priority: string(v.Priority), Count: v.Count}
		for i, r := range v.Repositories {
			if top > 0 && formatFlag == string(FormatHuman) && i >= top {
				break
			}
			c.Repositories = append(c.Repositories, RepoSummaryCLI{
				Name:         r.Name,
				URL:          r.URL,
				QualityScore: r.QualityScore,
				Difficulty:   string(r.Difficulty),
				Tags:         r.Tags,
			})
		}
		resp.Categories = append(resp.Categories, c)
	}
	return resp
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
