package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/prepexam/prepexam/internal/export"
	"github.com/prepexam/prepexam/internal/grader"
	"github.com/prepexam/prepexam/internal/handler"
	appI18n "github.com/prepexam/prepexam/internal/i18n"
	"github.com/prepexam/prepexam/internal/model"
	"github.com/prepexam/prepexam/internal/parser"
	"github.com/prepexam/prepexam/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prepexam",
		Short: "Exam preparation platform with document-to-questions parsing",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `prepexam --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "prepexam.db", "SQLite database path")
	f.String("uploads-dir", "uploads", "Directory for uploaded files and extracted images")
	f.Int64("max-upload-size", 500<<20, "Maximum upload size in bytes")
	f.StringSlice("cors-origins", []string{"http://localhost:5173"}, "Allowed CORS origins (repeatable)")
	f.StringSliceP("exams", "e", nil, "Paths to exam seed JSON files (repeatable)")
	f.StringP("lang", "l", "en", "UI language (en, vi)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set PREPEXAM_ADMIN_PASSWORD)")
	f.Bool("review-essays", false, "Attach advisory LLM feedback to essay answers")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL for essay review")
	f.String("llm-key", "ollama", "API key for essay review")
	f.String("llm-model", "llama3.2", "LLM model name for essay review")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export exam results as JSON or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "prepexam.db", "SQLite database path")
	f.StringP("format", "f", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout, json only)")
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

	v.SetEnvPrefix("PREPEXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("prepexam")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/prepexam")
	v.AddConfigPath("/etc/prepexam")
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

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := seedExams(db, v.GetStringSlice("exams")); err != nil {
		return fmt.Errorf("seed exams: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	uploadsDir := v.GetString("uploads-dir")
	imagesDir := filepath.Join(uploadsDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	docParser := parser.New(parser.NewImageStore(imagesDir, "/uploads/images"))

	// Optional advisory essay reviewer. A failed health check disables the
	// feature instead of blocking startup.
	var reviewer *grader.Reviewer
	if v.GetBool("review-essays") {
		reviewer = grader.NewReviewer(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
		)
		if err := reviewer.Ping(context.Background()); err != nil {
			slog.Warn("essay review disabled, LLM endpoint unreachable",
				"url", v.GetString("llm-url"), "error", err)
			reviewer = nil
		} else {
			slog.Info("essay review enabled",
				"url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		}
	}

	cfg := model.ServerConfig{
		UploadsDir:    uploadsDir,
		MaxUploadSize: v.GetInt64("max-upload-size"),
		CORSOrigins:   v.GetStringSlice("cors-origins"),
		SecureCookies: v.GetBool("secure-cookies"),
		ReviewEssays:  reviewer != nil,
	}

	h, err := handler.New(db, docParser, reviewer, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appI18n.Middleware(lang))

	h.Routes(r)
	r.Handle("/uploads/images/*",
		http.StripPrefix("/uploads/images/", http.FileServer(http.Dir(imagesDir))))

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"uploads_dir", uploadsDir,
		"max_upload_size", cfg.MaxUploadSize,
		"cors_origins", cfg.CORSOrigins,
		"review_essays", cfg.ReviewEssays,
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

	results, err := db.ExportResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	outPath := v.GetString("output")
	switch strings.ToLower(v.GetString("format")) {
	case "xlsx":
		if outPath == "" || outPath == "-" {
			outPath = "results.xlsx"
		}
		if err := export.XLSX(outPath, results); err != nil {
			return err
		}
		slog.Info("wrote results workbook", "path", outPath)
		return nil
	case "json":
		if outPath == "" || outPath == "-" {
			return export.JSON(os.Stdout, results)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		return export.JSON(f, results)
	default:
		return fmt.Errorf("unknown format %q", v.GetString("format"))
	}
}

// seedExams imports exam files that have not been imported before. A changed
// file is skipped so existing submissions keep matching their questions.
func seedExams(db *store.Store, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	admin, err := db.GetUserByUsername("admin")
	if err != nil {
		return err
	}
	if admin == nil {
		return fmt.Errorf("admin user missing, cannot own seeded exams")
	}

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
			slog.Info("exam file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("exam file changed since last import, skipping to avoid breaking existing submissions",
				"path", path)
			continue
		}

		var imp model.ExamImport
		if err := json.Unmarshal(data, &imp); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		questions := make([]model.Question, 0, len(imp.Questions))
		for _, qi := range imp.Questions {
			points := qi.Points
			if points <= 0 {
				points = 1
			}
			questions = append(questions, model.Question{
				Text:          qi.Text,
				Type:          qi.Type,
				Options:       qi.Options,
				CorrectAnswer: qi.CorrectAnswer,
				Explanation:   qi.Explanation,
				Points:        points,
			})
		}

		duration := imp.Duration
		if duration <= 0 {
			duration = 60
		}
		examID, err := db.CreateExam(model.Exam{
			PublicID:    uuid.NewString(),
			OwnerID:     admin.ID,
			Title:       imp.Title,
			Subject:     imp.Subject,
			GradeLevel:  imp.GradeLevel,
			Description: imp.Description,
			Duration:    duration,
			Status:      model.ExamPublished,
		}, questions)
		if err != nil {
			return fmt.Errorf("import exam from %s: %w", path, err)
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported exam", "path", path, "exam_id", examID, "questions", len(questions))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PREPEXAM_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
