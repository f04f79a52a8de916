package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/argo-inference/model-dashboard/catalog"
	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/database"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web"
	"github.com/argo-inference/model-dashboard/web/service"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			_ = server.Stop()
			_ = database.CloseDB()
			logger.CloseLogger()
			return
		}
	}
}

func withDB(run func() error) {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.CloseDB()
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newUserCmd() *cobra.Command {
	userService := service.UserService{}

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	createCmd := &cobra.Command{
		Use:   "create <username> <password> <display_name>",
		Short: "Create a local user",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			withDB(func() error {
				_, err := userService.CreateUser(args[0], args[1], args[2], email)
				if err != nil {
					return err
				}
				fmt.Println("created user:", args[0])
				return nil
			})
		},
	}
	createCmd.Flags().String("email", "", "user email address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List local users",
		Run: func(cmd *cobra.Command, args []string) {
			withDB(func() error {
				users, err := userService.ListUsers()
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Println("no local users found")
					return nil
				}
				for _, u := range users {
					state := "active"
					if !u.IsActive {
						state = "disabled"
					}
					fmt.Printf("%-20s %-30s %-30s %s\n", u.Username, u.DisplayName, u.Email, state)
				}
				return nil
			})
		},
	}

	setActive := func(use, short string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				withDB(func() error {
					if err := userService.SetActive(args[0], active); err != nil {
						return err
					}
					fmt.Printf("%sd user: %s\n", use, args[0])
					return nil
				})
			},
		}
	}

	resetCmd := &cobra.Command{
		Use:   "reset-password <username> <new_password>",
		Short: "Reset a local user's password",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			withDB(func() error {
				if err := userService.ResetPassword(args[0], args[1]); err != nil {
					return err
				}
				fmt.Println("password reset for user:", args[0])
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a local user and their tokens",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withDB(func() error {
				if err := userService.DeleteUser(args[0]); err != nil {
					return err
				}
				fmt.Println("deleted user:", args[0])
				return nil
			})
		},
	}

	userCmd.AddCommand(createCmd, listCmd,
		setActive("enable", "Enable a local user", true),
		setActive("disable", "Disable a local user", false),
		resetCmd, deleteCmd)
	return userCmd
}

func newTokenCmd() *cobra.Command {
	tokenService := service.TokenService{}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	issueCmd := &cobra.Command{
		Use:   "issue <username>",
		Short: "Issue an API token; the raw value is printed exactly once",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			description, _ := cmd.Flags().GetString("description")
			ttlDays, _ := cmd.Flags().GetInt("ttl-days")
			if ttlDays == 0 {
				ttlDays = config.GetTokenExpiryDays()
			}
			withDB(func() error {
				raw, token, err := tokenService.Issue(args[0], description, ttlDays)
				if err != nil {
					return err
				}
				fmt.Println("token:", raw)
				fmt.Println("expires at:", token.ExpiresAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
	issueCmd.Flags().String("description", "No description", "token description")
	issueCmd.Flags().Int("ttl-days", 0, "token lifetime in days (default from API_TOKEN_EXPIRY_DAYS)")

	listCmd := &cobra.Command{
		Use:   "list <username>",
		Short: "List a user's tokens (metadata only)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withDB(func() error {
				tokens, err := tokenService.ListTokens(args[0])
				if err != nil {
					return err
				}
				for _, t := range tokens {
					lastUsed := "never"
					if t.LastUsedAt != nil {
						lastUsed = t.LastUsedAt.Format("2006-01-02 15:04:05")
					}
					state := "valid"
					if t.Revoked {
						state = "revoked"
					}
					fmt.Printf("%-4d %-40s expires %s, last used %s, %s\n",
						t.Id, t.Description, t.ExpiresAt.Format("2006-01-02"), lastUsed, state)
				}
				return nil
			})
		},
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke <username> <id>",
		Short: "Revoke a token by its listing id",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			withDB(func() error {
				var id int
				if _, err := fmt.Sscanf(args[1], "%d", &id); err != nil {
					return err
				}
				if err := tokenService.RevokeByID(args[0], id); err != nil {
					return err
				}
				fmt.Println("token revoked")
				return nil
			})
		},
	}

	tokenCmd.AddCommand(issueCmd, listCmd, revokeCmd)
	return tokenCmd
}

func newSeedCmd() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed <dir>",
		Short: "Load model JSON files from a directory into the object store",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			ctx := context.Background()

			store, err := catalog.NewStore(ctx, config.GetObjectStore())
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			if err := store.EnsureBucket(ctx); err != nil {
				fmt.Println("ensure bucket failed:", err)
				os.Exit(1)
			}

			files, err := filepath.Glob(filepath.Join(args[0], "*.json"))
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			for _, file := range files {
				data, err := os.ReadFile(file)
				if err != nil {
					fmt.Printf("skipping %s: %v\n", file, err)
					continue
				}
				m, err := catalog.LoadModel(data)
				if err != nil {
					fmt.Printf("skipping %s: %v\n", file, err)
					continue
				}
				if err := store.Put(ctx, m, overwrite); err != nil {
					fmt.Printf("skipping %s: %v\n", file, err)
					continue
				}
				fmt.Println("seeded model:", m.Key())
			}
		},
	}
	seedCmd.Flags().Bool("overwrite", false, "overwrite existing model records")
	return seedCmd
}

func main() {
	rootCmd := &cobra.Command{
		Use: "model-dashboard",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	settingCmd := &cobra.Command{
		Use:   "setting",
		Short: "Show settings",
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			ldap := config.GetLdap()
			store := config.GetObjectStore()
			fmt.Println("port:", config.GetPort())
			fmt.Println("base path:", config.GetBasePath())
			fmt.Println("db path:", config.GetDBPath())
			fmt.Println("ldap enabled:", ldap.Enabled)
			fmt.Println("ldap server:", ldap.ServerURL)
			fmt.Println("ldap required group:", ldap.RequiredGroup)
			fmt.Println("object store endpoint:", store.Endpoint)
			fmt.Println("object store bucket:", store.Bucket)
			fmt.Println("token expiry days:", config.GetTokenExpiryDays())
		},
	}
	settingCmd.AddCommand(showCmd)

	rootCmd.AddCommand(runCmd, newUserCmd(), newTokenCmd(), newSeedCmd(), settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
