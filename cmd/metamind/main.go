package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metamind/quiz/internal/confidence"
	"github.com/metamind/quiz/internal/emotion"
	"github.com/metamind/quiz/internal/handler"
	appI18n "github.com/metamind/quiz/internal/i18n"
	"github.com/metamind/quiz/internal/model"
	"github.com/metamind/quiz/internal/photo"
	"github.com/metamind/quiz/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metamind",
		Short: "Quiz server pairing answers with webcam confidence analysis",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `metamind --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "metamind.db", "SQLite database path")
	f.StringSliceP("questions", "q", []string{"questions/general_tr.json"}, "Paths to questions JSON files (repeatable)")
	f.String("quiz-name", "Genel Kültür", "Quiz name shown to students and in exports")
	f.String("scorer", confidence.VariantLinear, "Confidence scorer variant (linear, entropy)")
	f.String("emotion-url", "", "Emotion inference service base URL (empty = simulate)")
	f.Duration("emotion-timeout", emotion.DefaultTimeout, "Per-request emotion analysis deadline")
	f.Int("analyzer-workers", 4, "Maximum concurrent emotion analyses")
	f.String("photo-dir", "photos", "Directory for confidence photos")
	f.StringSlice("cors-origins", []string{"http://localhost:3000"}, "Allowed CORS origins")
	f.StringP("lang", "l", "tr", "Response language (en, tr)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "metamind.db", "SQLite database path")
	f.String("quiz-name", "Genel Kültür", "Quiz name included in export metadata")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("METAMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("metamind")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/metamind")
	v.AddConfigPath("/etc/metamind")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Load questions from all specified files.
	if err := loadQuestions(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Pick the confidence scorer.
	variant := strings.ToLower(strings.TrimSpace(v.GetString("scorer")))
	scorer, err := confidence.ForVariant(variant)
	if err != nil {
		return fmt.Errorf("select scorer: %w", err)
	}

	emotionURL := v.GetString("emotion-url")
	svc := emotion.NewService(emotionURL, v.GetDuration("emotion-timeout"))
	if emotionURL == "" {
		slog.Warn("no emotion service configured, confidence photos will be scored from simulated emotions")
	}
	analyzer := emotion.NewAnalyzer(svc, scorer, v.GetInt("analyzer-workers"))

	photos, err := photo.NewStore(v.GetString("photo-dir"))
	if err != nil {
		return fmt.Errorf("open photo dir: %w", err)
	}

	cfg := model.QuizConfig{
		QuizName:        v.GetString("quiz-name"),
		ScorerVariant:   variant,
		EmotionURL:      emotionURL,
		EmotionTimeout:  v.GetDuration("emotion-timeout"),
		AnalyzerWorkers: v.GetInt("analyzer-workers"),
		PhotoDir:        v.GetString("photo-dir"),
		CORSOrigins:     v.GetStringSlice("cors-origins"),
		Lang:            lang,
	}

	h, err := handler.New(db, svc, analyzer, photos, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)
	r.Use(appI18n.Middleware(lang))

	h.Routes(r)

	// Serve stored confidence photos for the results review screen.
	fileServer := http.StripPrefix("/photos/", http.FileServer(http.Dir(cfg.PhotoDir)))
	r.Get("/photos/*", fileServer.ServeHTTP)

	// Sweep expired resume tokens in the background.
	go func() {
		for range time.Tick(time.Hour) {
			if err := db.CleanupExpiredSessions(); err != nil {
				slog.Error("cleanup expired auth sessions", "error", err)
			}
		}
	}()

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"quiz_name", cfg.QuizName,
		"scorer", variant,
		"emotion_url", emotionURL,
		"analyzer_workers", cfg.AnalyzerWorkers,
		"photo_dir", cfg.PhotoDir,
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllSessions(v.GetString("quiz-name"))
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadQuestions(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to avoid breaking existing sessions",
				"path", path)
			continue
		}

		var questions []model.QuestionImport
		if err := json.Unmarshal(data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, qi := range questions {
			err := db.UpsertQuestion(model.Question{
				ID:             qi.ID,
				Question:       qi.Question,
				Options:        qi.Options,
				CorrectIndices: qi.CorrectIndices,
				Topic:          qi.Topic,
			})
			if err != nil {
				return fmt.Errorf("insert question from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported questions", "path", path, "count", len(questions))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
