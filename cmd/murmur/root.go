package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// persistentSettings lists the flags that may also come from the config
// file or MURMUR_* environment variables.
var persistentSettings = []string{
	"db", "catalog", "rules", "stoplist", "debug",
	"workers", "half-width", "rpm",
	"llm-url", "llm-model", "api-key",
	"classifier", "openai-model",
	"embed-url", "embed-model",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "murmur",
		Short: "Brand mention analytics for group chats",
		Long: `murmur loads chat exports into SQLite and answers questions about brands:
keyword frequency around mentions, co-occurring words, sentiment, share of
voice, consumer perception and how each of these changes between periods.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.murmur.yaml)")
	pf.String("db", "murmur.db", "SQLite database path")
	pf.String("catalog", "", "brand catalog YAML")
	pf.String("rules", "", "sentiment override rules YAML")
	pf.String("stoplist", "", "stoplist YAML")
	pf.Bool("debug", false, "enable debug logging")
	pf.Int("workers", 4, "concurrent model requests")
	pf.Int("half-width", 6, "context window half-width in messages")
	pf.Int("rpm", 60, "model requests per minute (0 = unlimited)")
	pf.String("llm-url", "", "OpenAI-compatible chat completions URL")
	pf.String("llm-model", "", "chat model for phrases, tags and sentiment")
	pf.String("api-key", "", "API key for model endpoints")
	pf.String("classifier", "llm", "sentiment classifier: llm or openai")
	pf.String("openai-model", "", "Responses API model for the openai classifier")
	pf.String("embed-url", "", "OpenAI-compatible embeddings URL")
	pf.String("embed-model", "", "embedding model")

	for _, name := range persistentSettings {
		if err := v.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	a := &app{v: v}
	root.AddCommand(
		newIngestCmd(a),
		newFrequencyCmd(a),
		newCategoryFrequencyCmd(a),
		newCooccurCmd(a),
		newSentimentCmd(a),
		newShareCmd(a),
		newPerceptionCmd(a),
		newDiscoverCmd(a),
		newCompareCmd(a),
		newCorrectCmd(a),
		newLookupCmd(a),
		newKeywordCmd(a),
	)
	return root
}

// initConfig reads the config file and MURMUR_* environment variables.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".murmur")
	}

	v.SetEnvPrefix("murmur")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
