package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cognicore/murmur/internal/chatlog"
	"github.com/cognicore/murmur/pkg/murmur"
	"github.com/cognicore/murmur/pkg/murmur/pmi"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addScopeFlags(cmd *cobra.Command, sc *murmur.Scope) {
	f := cmd.Flags()
	f.StringSliceVar(&sc.GroupIDs, "group", nil, "group ids to analyse (default: latest 12)")
	f.IntVar(&sc.GroupYear, "group-year", 0, "analyse groups whose id starts with this year")
	f.IntSliceVar(&sc.Years, "year", nil, "restrict to message years")
	f.IntSliceVar(&sc.Months, "month", nil, "restrict to message months (1-12)")
	f.IntSliceVar(&sc.Quarters, "quarter", nil, "restrict to message quarters (1-4)")
}

func parseRank(s string) (pmi.Rank, error) {
	switch s {
	case "", "pmi":
		return pmi.RankPMI, nil
	case "weighted":
		return pmi.RankWeighted, nil
	}
	return 0, fmt.Errorf("unknown rank %q (want pmi or weighted)", s)
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Load JSON Lines chat exports into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var all []store.Message
			for _, path := range args {
				msgs, err := chatlog.LoadFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				all = append(all, msgs...)
			}
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				if err := eng.Ingest(cmd.Context(), all); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"files": len(args), "messages": len(all)})
			})
		},
	}
}

func newFrequencyCmd(a *app) *cobra.Command {
	var req murmur.BrandRequest
	cmd := &cobra.Command{
		Use:   "frequency",
		Short: "Count a brand's keywords in the context around its mentions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.KeywordFrequency(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Brand, "brand", "", "brand name")
	cmd.Flags().IntVar(&req.HalfWidth, "window", 0, "context window half-width (default from --half-width)")
	cmd.Flags().BoolVar(&req.NoMerge, "no-merge", false, "keep overlapping windows separate")
	cmd.MarkFlagRequired("brand")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newCategoryFrequencyCmd(a *app) *cobra.Command {
	var req murmur.CategoryRequest
	cmd := &cobra.Command{
		Use:   "category-frequency",
		Short: "Count a category's keywords around mentions of any of its brands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.CategoryKeywordFrequency(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "", "category name")
	cmd.Flags().IntVar(&req.HalfWidth, "window", 0, "context window half-width (default from --half-width)")
	cmd.Flags().BoolVar(&req.NoMerge, "no-merge", false, "keep overlapping windows separate")
	cmd.MarkFlagRequired("category")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newCooccurCmd(a *app) *cobra.Command {
	var (
		req  murmur.CooccurrenceRequest
		rank string
	)
	cmd := &cobra.Command{
		Use:   "cooccur",
		Short: "Score word pairs that co-occur in messages mentioning a brand",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRank(rank)
			if err != nil {
				return err
			}
			req.Rank = r
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.Cooccurrence(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Brand, "brand", "", "brand name")
	cmd.Flags().Int64Var(&req.MinCount, "min-count", 1, "minimum pair count")
	cmd.Flags().Float64Var(&req.MinPMI, "min-pmi", 0, "minimum pmi")
	cmd.Flags().IntVar(&req.TopN, "top", 20, "number of pairs")
	cmd.Flags().StringVar(&rank, "rank", "pmi", "ranking: pmi or weighted")
	cmd.MarkFlagRequired("brand")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newSentimentCmd(a *app) *cobra.Command {
	var req murmur.BrandRequest
	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Classify the sentiment of messages mentioning a brand",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.Sentiment(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Brand, "brand", "", "brand name")
	cmd.MarkFlagRequired("brand")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newShareCmd(a *app) *cobra.Command {
	var req murmur.CategoryRequest
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share of voice of a category's brands, or of every category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				if req.Category == "" {
					rep, err := eng.CorpusShareOfVoice(cmd.Context(), req.Scope)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), rep)
				}
				rep, err := eng.ShareOfVoice(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "", "category name (default: every category)")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newPerceptionCmd(a *app) *cobra.Command {
	var req murmur.PerceptionRequest
	cmd := &cobra.Command{
		Use:   "perception",
		Short: "Mine the phrases consumers use about a brand or category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Brand == "" && req.Category == "" {
				return fmt.Errorf("--brand or --category required")
			}
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.ConsumerPerception(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&req.Brand, "brand", "", "brand name")
	cmd.Flags().StringVar(&req.Category, "category", "", "category name, used when --brand is empty")
	cmd.Flags().IntVar(&req.TopK, "top", 20, "per-chunk phrase budget; three times this many are requested")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newDiscoverCmd(a *app) *cobra.Command {
	var req murmur.DiscoverRequest
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Propose keywords that are missing from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.DiscoverKeywords(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().IntVar(&req.TopK, "top", 20, "number of keywords")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		req      murmur.CompareRequest
		analysis string
		rank     string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run one analysis on two periods",
		Example: `  murmur compare --analysis sentiment --brand huggies --granularity month --time1 202401 --time2 202406
  murmur compare --analysis share-of-voice --category diapers --granularity quarter --time1 20241 --time2 20242`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRank(rank)
			if err != nil {
				return err
			}
			req.Rank = r
			req.Analysis = murmur.Analysis(analysis)
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rep, err := eng.Compare(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&analysis, "analysis", "", "frequency, cooccurrence, sentiment, share-of-voice, associated-words or perception")
	f.StringVar(&req.Brand, "brand", "", "brand name")
	f.StringVar(&req.Category, "category", "", "category name")
	f.StringVar(&req.Granularity, "granularity", "", "year, month or quarter")
	f.IntVar(&req.First, "time1", 0, "first period (2024, 202406 or 20242)")
	f.IntVar(&req.Second, "time2", 0, "second period")
	f.IntVar(&req.TopK, "top", 0, "result size where the analysis has one")
	f.IntVar(&req.HalfWidth, "window", 0, "context window half-width")
	f.Int64Var(&req.MinCount, "min-count", 1, "minimum pair count for cooccurrence")
	f.Float64Var(&req.MinPMI, "min-pmi", 0, "minimum pmi for cooccurrence")
	f.StringVar(&rank, "rank", "pmi", "cooccurrence ranking: pmi or weighted")
	cmd.MarkFlagRequired("analysis")
	cmd.MarkFlagRequired("granularity")
	addScopeFlags(cmd, &req.Scope)
	return cmd
}

func newCorrectCmd(a *app) *cobra.Command {
	var (
		c     sentiment.Correction
		score float64
		rule  string
	)
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Override the cached sentiment of a message text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("score") {
				c.Score = &score
			}
			if cmd.Flags().Changed("rule") {
				c.Rule = &rule
			}
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rec, err := eng.CorrectSentiment(cmd.Context(), c)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().StringVar(&c.Text, "text", "", "exact message text")
	cmd.Flags().StringVar(&c.Sentiment, "sentiment", "", "positive, neutral or negative")
	cmd.Flags().Float64Var(&score, "score", 1, "confidence to store")
	cmd.Flags().StringVar(&rule, "rule", "", "rule name to record")
	cmd.Flags().BoolVar(&c.RequireExisting, "require-existing", false, "fail when the text has no cached label")
	cmd.MarkFlagRequired("text")
	cmd.MarkFlagRequired("sentiment")
	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Show the cached sentiment of a message text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
				rec, ok, err := eng.LookupSentiment(cmd.Context(), text)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no cached sentiment for %q", text)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "exact message text")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newKeywordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword",
		Short: "Manage custom brand keywords",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add BRAND KEYWORD",
			Short: "Add a custom keyword to a brand",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
					return eng.AddKeyword(cmd.Context(), args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "remove BRAND KEYWORD",
			Short: "Remove a custom keyword from a brand",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
					removed, err := eng.RemoveKeyword(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]bool{"removed": removed})
				})
			},
		},
		&cobra.Command{
			Use:   "list BRAND",
			Short: "List a brand's catalog and custom keywords",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withEngine(cmd.Context(), func(eng *murmur.Engine) error {
					kws, err := eng.Keywords(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), kws)
				})
			},
		},
	)
	return cmd
}
