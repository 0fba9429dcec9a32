package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/logiflow/internal/delivery"
	"github.com/zombor/logiflow/internal/fallback"
	"github.com/zombor/logiflow/internal/geocode"
	"github.com/zombor/logiflow/internal/label"
	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/locale"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("logiflow")
	var (
		_              = fs.StringLong("config", "", "Config file (one 'flag value' per line)")
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "logiflow.db", "Database file path")
		ocrType        = fs.StringLong("ocr", "tesseract", "OCR backend: 'tesseract' or 'gemini'")
		ocrLanguages   = fs.StringLong("ocr-languages", "por,eng,spa", "Comma-separated Tesseract language codes")
		extractorType  = fs.StringLong("extractor", "openai", "Address extractor: 'openai', 'gemini', 'anthropic' or 'ollama'")
		openAIKey      = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openAIURL      = fs.StringLong("openai-url", "", "OpenAI-compatible API base URL (optional)")
		openAIModel    = fs.StringLong("openai-model", "gpt-4o-mini", "OpenAI model name")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		anthropicKey   = fs.StringLong("anthropic-key", "", "Anthropic API key (or set ANTHROPIC_API_KEY env var)")
		anthropicURL   = fs.StringLong("anthropic-url", "", "Anthropic API base URL (optional)")
		anthropicModel = fs.StringLong("anthropic-model", "claude-3-5-haiku-latest", "Anthropic model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llama3.1", "Ollama model name")
		nominatimURL   = fs.StringLong("nominatim-url", geocode.DefaultBaseURL, "Nominatim base URL")
		userAgent      = fs.StringLong("user-agent", geocode.DefaultUserAgent, "User-Agent sent to Nominatim")
		languageTag    = fs.StringLong("language", "", "Language and region tag such as pt-BR or en-GB; sets replies, geocoding and units (default from LANG)")
		scanTimeout    = fs.DurationLong("scan-timeout", label.DefaultTimeout, "Time limit for one label scan")
		geocodeTimeout = fs.DurationLong("geocode-timeout", geocode.DefaultTimeout, "Time limit for resolving one address")
		geocodeRate    = fs.Float64Long("geocode-rate", 1, "Nominatim requests per second")
		geocodeCache   = fs.IntLong("geocode-cache", 1024, "Geocode cache entries (0 disables)")
		lexiconPath    = fs.StringLong("lexicon", "", "Lexicon YAML file overriding the embedded default")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFile        = fs.StringLong("log-file", "", "Rotating JSON log file (default text on stderr)")
		voiceMode      = fs.StringLong("voice", "off", "Voice assistant: 'off', 'console' or 'openai'")
		voiceClips     = fs.StringLong("voice-clips", "./clips", "Directory for synthesized speech clips")
		speechModel    = fs.StringLong("speech-model", "gpt-4o-mini-tts", "OpenAI speech model")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("LOGIFLOW"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithConfigAllowMissingFile(),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logCloser, err := setupLogger(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	profile := locale.Detect(fallback.FirstNonEmpty(*languageTag, os.Getenv("LANG")))
	lang := profile.Language
	slog.Info("Starting LogiFlow", "version", version, "language", lang, "units", profile.Units)

	lex, err := lexicon.Load(*lexiconPath)
	if err != nil {
		slog.Error("Failed to load lexicon", "path", *lexiconPath, "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := delivery.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize label scanning backends
	backends, err := newBackends(backendConfig{
		ocr:            *ocrType,
		ocrLanguages:   *ocrLanguages,
		extractor:      *extractorType,
		openAIKey:      *openAIKey,
		openAIURL:      *openAIURL,
		openAIModel:    *openAIModel,
		geminiKey:      *geminiKey,
		geminiModel:    *geminiModel,
		anthropicKey:   *anthropicKey,
		anthropicURL:   *anthropicURL,
		anthropicModel: *anthropicModel,
		ollamaURL:      *ollamaURL,
		ollamaModel:    *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize scanning backends", "error", err)
		os.Exit(1)
	}
	defer backends.Close()

	pipeline, err := label.NewPipeline(backends.ocr, backends.extractor, lex, *scanTimeout)
	if err != nil {
		slog.Error("Failed to initialize label pipeline", "error", err)
		os.Exit(1)
	}

	// Initialize geocoding
	searcher := geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:   *nominatimURL,
		UserAgent: *userAgent,
		Rate:      *geocodeRate,
		CacheSize: *geocodeCache,
	})
	resolver := geocode.NewResolver(searcher, lex, lang.AcceptLanguage(), *geocodeTimeout)

	// Initialize service
	deliveryService := delivery.NewService(db, pipeline, resolver)

	// Initialize voice assistant
	voiceEngine, err := startVoice(voiceConfig{
		mode:        *voiceMode,
		clipsDir:    *voiceClips,
		speechModel: *speechModel,
		openAIKey:   fallback.FirstNonEmpty(*openAIKey, os.Getenv("OPENAI_API_KEY")),
		openAIURL:   *openAIURL,
	}, deliveryService, lex, lang)
	if err != nil {
		slog.Error("Failed to start voice assistant", "error", err)
		os.Exit(1)
	}
	if voiceEngine != nil {
		defer voiceEngine.Close()
	}

	// Initialize server
	basicAuth := delivery.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := delivery.NewServer(deliveryService, basicAuth)
	server.SetProfile(profile)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

