// Command notifctl drives the notification workflow from a terminal against the
// condominium service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stanstork/condo-notify/internal/authz"
	"github.com/stanstork/condo-notify/internal/config"
	"github.com/stanstork/condo-notify/internal/logging"
	"github.com/stanstork/condo-notify/internal/migration"
	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/notification"
	"github.com/stanstork/condo-notify/internal/repository"
	"github.com/stanstork/condo-notify/internal/upstream"

	_ "github.com/lib/pq"
)

const usage = `notifctl [flags] <command> [command flags]

Commands:
  list       list notifications of a scope (abertas, recebidas, todas)
  show       show one notification with recipients and history
  create     create a notification
  advance    move a notification to its next status
  read       mark a notification read
  comment    add a comment
  comments   list comments, newest first
  unread     unread notification count
  token      print a signed token for the configured identity
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "notifctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := pflag.NewFlagSet("notifctl", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nFlags:")
		global.PrintDefaults()
	}
	configDir := global.String("config", "", "directory containing config.yaml")
	global.Int("user-id", 0, "acting user id")
	global.String("role", string(models.RoleResident), "acting role: morador, funcionario or sindico")
	global.String("name", "", "acting user display name")
	global.String("token", "", "bearer token for the condominium service")
	global.Bool("json", false, "print JSON instead of tables")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return fmt.Errorf("missing command")
	}

	v := viper.New()
	v.SetEnvPrefix("NOTIFCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(global); err != nil {
		return err
	}

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, stderr)

	actor := models.Actor{
		UserID: v.GetInt("user-id"),
		Name:   strings.TrimSpace(v.GetString("name")),
		Role:   models.NormalizeRole(v.GetString("role")),
	}
	if actor.UserID <= 0 {
		return fmt.Errorf("--user-id is required")
	}
	if !models.IsValidRole(actor.Role) {
		return fmt.Errorf("invalid --role %q", v.GetString("role"))
	}

	command, rest := global.Arg(0), global.Args()[1:]
	if command == "token" {
		if cfg.JWTSecret == "" {
			return fmt.Errorf("jwt_secret is not configured")
		}
		token, err := authz.IssueToken(cfg.JWTSecret, actor, 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, token)
		return nil
	}

	token, err := resolveToken(v.GetString("token"), cfg, actor)
	if err != nil {
		return err
	}
	comments, closeStore, err := openCommentStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client := upstream.NewClient(cfg.Upstream.BaseURL, logger,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithStaticToken(token),
	)
	c := &cli{
		service: notification.NewService(client, comments, logger, notification.NewAuditNotifier(logger)),
		actor:   actor,
		out:     stdout,
		errOut:  stderr,
		json:    v.GetBool("json"),
	}
	return c.dispatch(ctx, command, rest)
}

// resolveToken prefers an explicit token, then upstream.token, then a token
// signed with jwt_secret for the acting identity.
func resolveToken(flagToken string, cfg *config.Config, actor models.Actor) (string, error) {
	if t := strings.TrimSpace(flagToken); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(cfg.Upstream.Token); t != "" {
		return t, nil
	}
	if cfg.JWTSecret != "" {
		return authz.IssueToken(cfg.JWTSecret, actor, time.Hour)
	}
	return "", nil
}

func openCommentStore(cfg *config.Config, logger zerolog.Logger) (repository.CommentRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemoryCommentRepository(), func() {}, nil
	}
	if err := migration.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCommentRepository(db), func() { db.Close() }, nil
}
