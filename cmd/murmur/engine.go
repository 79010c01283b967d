package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/cognicore/murmur/internal/embed"
	"github.com/cognicore/murmur/internal/llm"
	"github.com/cognicore/murmur/internal/provider"
	"github.com/cognicore/murmur/pkg/murmur"
	"github.com/cognicore/murmur/pkg/murmur/config"
	"github.com/cognicore/murmur/pkg/murmur/store/sqlite"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	DBPath       string
	CatalogPath  string
	RulesPath    string
	StoplistPath string
	Debug        bool

	Workers   int
	HalfWidth int
	RPM       int

	LLMURL      string
	LLMModel    string
	APIKey      string
	Classifier  string
	OpenAIModel string
	EmbedURL    string
	EmbedModel  string
}

func settingsFrom(v *viper.Viper) settings {
	return settings{
		DBPath:       v.GetString("db"),
		CatalogPath:  v.GetString("catalog"),
		RulesPath:    v.GetString("rules"),
		StoplistPath: v.GetString("stoplist"),
		Debug:        v.GetBool("debug"),
		Workers:      v.GetInt("workers"),
		HalfWidth:    v.GetInt("half-width"),
		RPM:          v.GetInt("rpm"),
		LLMURL:       v.GetString("llm-url"),
		LLMModel:     v.GetString("llm-model"),
		APIKey:       v.GetString("api-key"),
		Classifier:   v.GetString("classifier"),
		OpenAIModel:  v.GetString("openai-model"),
		EmbedURL:     v.GetString("embed-url"),
		EmbedModel:   v.GetString("embed-model"),
	}
}

type app struct {
	v *viper.Viper
}

// withEngine builds an engine for one command and closes it afterwards.
func (a *app) withEngine(ctx context.Context, fn func(*murmur.Engine) error) error {
	eng, err := buildEngine(ctx, settingsFrom(a.v))
	if err != nil {
		return err
	}
	defer eng.Close()
	return fn(eng)
}

func buildEngine(ctx context.Context, s settings) (*murmur.Engine, error) {
	if s.DBPath == "" {
		return nil, fmt.Errorf("--db required")
	}

	loader := config.Loader{
		CatalogPath:  s.CatalogPath,
		RulesPath:    s.RulesPath,
		StoplistPath: s.StoplistPath,
	}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}

	st, err := sqlite.OpenSQLite(ctx, s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := murmur.Options{
		Store:     st,
		Catalog:   comp.Catalog,
		Rules:     comp.Rules,
		Tokenizer: comp.Tokenizer,
		HalfWidth: s.HalfWidth,
		Workers:   s.Workers,
		Logger:    logger,
	}
	if err := wireModels(&opts, s); err != nil {
		st.Close()
		return nil, err
	}
	return murmur.New(opts), nil
}

// wireModels attaches the configured model services. Analyses that need a
// missing service fail when they run.
func wireModels(opts *murmur.Options, s settings) error {
	if s.LLMURL != "" {
		client := &llm.Client{
			BaseURL: s.LLMURL,
			APIKey:  s.APIKey,
			Model:   s.LLMModel,
			Limiter: limiter(s.RPM),
		}
		opts.Classifier = llm.Classifier{Client: client}
		opts.Phrases = llm.PhraseExtractor{Client: client}
		opts.Tagger = llm.Tagger{Client: client}
	}

	switch s.Classifier {
	case "", "llm":
	case "openai":
		if s.APIKey == "" {
			return fmt.Errorf("--api-key required for the openai classifier")
		}
		opts.Classifier = provider.NewClassifier(s.APIKey, s.OpenAIModel)
	default:
		return fmt.Errorf("unknown classifier %q", s.Classifier)
	}

	if s.EmbedURL != "" {
		e := embed.New(s.EmbedURL, s.APIKey, s.EmbedModel)
		if l := limiter(s.RPM); l != nil {
			e.Limiter = l
		}
		opts.Embedder = e
	}
	return nil
}

func limiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}
