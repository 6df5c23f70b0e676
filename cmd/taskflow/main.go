package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskflow/internal/app"
	"taskflow/internal/config"
	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/events"
	"taskflow/internal/identity"
	"taskflow/internal/migrate"
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "TaskFlow CLI",
	Long: `TaskFlow tracks developers, their assigned tasks and task comments.
The API server issues JWT access tokens with rotating refresh tokens and
pushes task notifications over websockets. The workspace holds the
taskflow.yml config, the SQLite database and the uploaded files.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(developerCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(logCmd())
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.Load(viper.GetString("workspace"), newLogger())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a workspace with a default taskflow.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			key, err := randomKey()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(key)), 0o600); err != nil {
				return err
			}
			fmt.Println("created", path)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TaskFlow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				handler, err := a.Handler()
				if err != nil {
					return err
				}
				listen := addr
				if listen == "" {
					listen = a.Cfg.Server.Addr
				}
				a.Logger.Info("server listening", "addr", listen)
				return http.ListenAndServe(listen, handler)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			v, err := migrate.Version(conn)
			if err != nil {
				return err
			}
			fmt.Println("schema version", v)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage accounts"}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userListCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case identity.RoleAdmin, identity.RoleManager, identity.RoleDeveloper:
			default:
				return fmt.Errorf("role must be one of %s, %s, %s", identity.RoleAdmin, identity.RoleManager, identity.RoleDeveloper)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				existing, err := a.Users.FindByEmail(ctx, email)
				if err != nil {
					return err
				}
				if existing != nil {
					return errors.New("account already exists")
				}
				u := identity.NewUser(email)
				if err := a.Users.CreateUser(ctx, u, password); err != nil {
					return err
				}
				if err := a.Users.AddToRole(ctx, u.ID, role); err != nil {
					return err
				}
				fmt.Println("created user", u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", identity.RoleDeveloper, "role (Admin, Manager, Developer)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				users, err := a.Users.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				t := newTable("ID", "EMAIL", "ROLES", "CREATED")
				for _, u := range users {
					roles, err := a.Users.GetRoles(ctx, u.ID)
					if err != nil {
						return err
					}
					t.AppendRow(table.Row{u.ID, u.Email, strings.Join(roles, ","), u.CreatedAt.Format("2006-01-02")})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	}
}

func developerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "developer", Short: "Inspect developers"}
	cmd.AddCommand(developerListCmd())
	return cmd
}

func developerListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List developers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res := a.Developers.GetAll(ctx, page, 10)
				if res.IsFailure() {
					return errors.New(res.Err().Description)
				}
				result := res.Value()
				if viper.GetBool("json") {
					return printJSON(result)
				}
				t := newTable("ID", "NAME", "JOB TITLE", "LEVEL", "EXPERIENCE")
				for _, d := range result.Items {
					t.AppendRow(table.Row{d.ID, d.FullName, d.JobTitle, d.JobLevel.String(), d.YearOfExperience})
				}
				fmt.Println(t.Render())
				fmt.Printf("page %d/%d, %d total\n", result.PageNumber, result.TotalPages, result.TotalCount)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Inspect tasks"}
	cmd.AddCommand(taskListCmd())
	return cmd
}

func taskListCmd() *cobra.Command {
	var page int
	var progress string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var res domain.ValueResult[domain.PagesResult[*domain.TaskEntity]]
				if progress != "" {
					p, ok := parseProgress(progress)
					if !ok {
						return fmt.Errorf("progress must be not_started, in_progress or completed")
					}
					res = a.Tasks.GetByStatus(ctx, p, page, 10)
				} else {
					res = a.Tasks.GetAll(ctx, page, 10)
				}
				if res.IsFailure() {
					return errors.New(res.Err().Description)
				}
				result := res.Value()
				if viper.GetBool("json") {
					return printJSON(result)
				}
				t := newTable("ID", "CONTENT", "PROGRESS", "DEVELOPER", "START", "END")
				for _, task := range result.Items {
					t.AppendRow(table.Row{
						task.ID, truncate(task.Content, 40), task.Progress.String(),
						task.AssignedToDeveloperID,
						task.StartAt.Format("2006-01-02"), task.EndAt.Format("2006-01-02"),
					})
				}
				fmt.Println(t.Render())
				fmt.Printf("page %d/%d, %d total\n", result.PageNumber, result.TotalPages, result.TotalCount)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&progress, "progress", "", "filter by progress")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Inspect the audit log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := events.Tail(ctx, a.DB, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				t := newTable("TS", "TYPE", "ENTITY", "ACTOR")
				for _, e := range items {
					t.AppendRow(table.Row{e.TS.Format("2006-01-02 15:04:05"), e.Type, e.EntityKind + " " + e.EntityID.String(), e.ActorID})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events")
	return cmd
}

func parseProgress(v string) (domain.TaskProgress, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "not_started":
		return domain.TaskProgressNotStarted, true
	case "in_progress":
		return domain.TaskProgressInProgress, true
	case "completed":
		return domain.TaskProgressCompleted, true
	default:
		return 0, false
	}
}

func newTable(columns ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(columns))
	return t
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func randomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
