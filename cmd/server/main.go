package main

import (
	"log"
	"net/http"
	"time"

	"github.com/s86039924-byte/stress-dost-engine/internal/api"
	"github.com/s86039924-byte/stress-dost-engine/internal/catalog"
	"github.com/s86039924-byte/stress-dost-engine/internal/genai"
	"github.com/s86039924-byte/stress-dost-engine/internal/personality"
	"github.com/s86039924-byte/stress-dost-engine/internal/platform/config"
	"github.com/s86039924-byte/stress-dost-engine/internal/questions"
	"github.com/s86039924-byte/stress-dost-engine/internal/selector"
	"github.com/s86039924-byte/stress-dost-engine/internal/session"
	"github.com/s86039924-byte/stress-dost-engine/internal/sessionlog"
)

// #region config

type serverConfig struct {
	Addr              string        `env:"STRESS_ADDR" envDefault:":8080"`
	CatalogPath       string        `env:"STRESS_CATALOG" envDefault:"data/triggers.yaml"`
	QuestionnairePath string        `env:"STRESS_QUESTIONNAIRE" envDefault:"data/personality.yaml"`
	QuestionBankPath  string        `env:"STRESS_QUESTION_BANK"`
	DBPath            string        `env:"STRESS_DB" envDefault:"stress_sessions.db"`
	Seed              int64         `env:"STRESS_SEED"`
	GroqAPIKey        string        `env:"GROQ_API_KEY"`
	GroqModel         string        `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GenTimeout        time.Duration `env:"STRESS_GEN_TIMEOUT" envDefault:"5s"`
}

// #endregion

// #region main

func main() {
	var cfg serverConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	cat, err := catalog.Load(cfg.CatalogPath, cfg.Seed)
	if err != nil {
		log.Fatalf("load trigger catalog %s: %v", cfg.CatalogPath, err)
	}
	// Every category must have entries; an empty one is a deploy defect,
	// caught here rather than on the first unlucky request.
	if err := cat.Validate(); err != nil {
		log.Fatalf("validate trigger catalog: %v", err)
	}

	assessor, err := personality.Load(cfg.QuestionnairePath)
	if err != nil {
		log.Fatalf("load questionnaire %s: %v", cfg.QuestionnairePath, err)
	}

	var bank questions.Bank
	if cfg.QuestionBankPath != "" {
		b, err := questions.Load(cfg.QuestionBankPath)
		if err != nil {
			log.Fatalf("load question bank %s: %v", cfg.QuestionBankPath, err)
		}
		bank = b
		log.Printf("[MAIN] question bank loaded: %d questions", b.Size())
	}

	var gen selector.Generator
	if cfg.GroqAPIKey != "" {
		genCfg := genai.DefaultConfig(cfg.GroqAPIKey)
		genCfg.Model = cfg.GroqModel
		genCfg.Timeout = cfg.GenTimeout
		gen = genai.New(genCfg)
		log.Printf("[MAIN] generative provider enabled: model=%s timeout=%s", cfg.GroqModel, cfg.GenTimeout)
	} else {
		log.Println("[MAIN] no GROQ_API_KEY set, running dataset-only")
	}

	store, err := sessionlog.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open session log %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	sel := selector.New(cat, gen, cfg.Seed)
	engine := session.NewEngine(sel, assessor, store, session.DefaultConfig())
	srv := api.NewServer(engine, bank)

	log.Printf("[MAIN] listening on %s (db=%s)", cfg.Addr, cfg.DBPath)
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// #endregion
