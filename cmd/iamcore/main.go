// Command iamcore is the IAM backend's CLI entrypoint: it wires the core
// engine and the IAM domain into one fx application and exposes a cobra
// command tree over the command/query bus, the same shape the core engine's
// own demo CLI uses for its single-aggregate example.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nexusiam/iamcore/internal"
	"github.com/nexusiam/iamcore/internal/application"
	"github.com/nexusiam/iamcore/internal/application/projection"
	"github.com/nexusiam/iamcore/pkg"
	pkgapp "github.com/nexusiam/iamcore/pkg/application"
	"github.com/nexusiam/iamcore/pkg/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "iamcore",
		Short: "Multi-tenant IAM backend CLI",
		Long:  "A CLI over the IAM backend's command/query bus: org and project provisioning, user and session management, federation (IDP/SAML) intents, execution-hook graphs, and operator diagnostics.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configFile != "" {
				os.Setenv("IAMCORE_CONFIG_FILE", configFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(initDBCmd())
	root.AddCommand(orgCmd())
	root.AddCommand(userCmd())
	root.AddCommand(projectCmd())
	root.AddCommand(adminCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// serveCmd starts the fx application and blocks until signalled, which is
// what actually runs the projection engine's tail loops — every other
// subcommand starts and stops the app around a single bus call instead.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the IAM backend (projection engine, ready for command/query traffic)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := pkg.NewApp(internal.Module, fx.Invoke(func(logger domain.Logger) {
				logger.Info("iamcore starting")
			}))
			app.Run()
			return nil
		},
	}
}

// initDBCmd forces construction of the event store and every registered
// projection, which is where their AutoMigrate calls actually live — there
// is no separate migration step to run, just the dependency graph to build.
func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the event store and projection tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, logger domain.Logger, db *gorm.DB, engine *projection.Engine) error {
				logger.Info("initializing event store and projection tables")
				if err := engine.Start(ctx); err != nil {
					return fmt.Errorf("init projections: %w", err)
				}
				statuses, err := engine.Summary(ctx)
				if err != nil {
					return fmt.Errorf("read projection summary: %w", err)
				}
				fmt.Printf("database ready, %d projections registered\n", len(statuses))
				return nil
			})
		},
	}
}

func orgCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "org", Short: "Org and project provisioning"}

	var instanceID, orgName, projectName, adminUsername, adminEmail string
	var adminRoles []string
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Provision a new org, its first project, and its admin in one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCommandBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.CommandBus) error {
				c := application.SetupOrgCommand{
					InstanceID:         instanceID,
					OrgName:            orgName,
					DefaultProjectName: projectName,
					AdminUsername:      adminUsername,
					AdminEmail:         adminEmail,
					AdminRoleKeys:      adminRoles,
				}
				if err := c.Validate(); err != nil {
					return err
				}
				if err := bus.Handle(ctx, logger, c); err != nil {
					return err
				}
				fmt.Println("org provisioned")
				return nil
			})
		},
	}
	setup.Flags().StringVar(&instanceID, "instance-id", "", "instance ID")
	setup.Flags().StringVar(&orgName, "name", "", "org name")
	setup.Flags().StringVar(&projectName, "project-name", "default", "default project name")
	setup.Flags().StringVar(&adminUsername, "admin-username", "", "admin username")
	setup.Flags().StringVar(&adminEmail, "admin-email", "", "admin email")
	setup.Flags().StringSliceVar(&adminRoles, "admin-roles", nil, "admin role keys")
	cmd.AddCommand(setup)

	var orgID string
	get := &cobra.Command{
		Use:   "get",
		Short: "Fetch an org by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.GetOrgQuery{OrgID: orgID})
			})
		},
	}
	get.Flags().StringVar(&orgID, "org-id", "", "org ID")
	cmd.AddCommand(get)

	var listInstanceID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List orgs within an instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ListOrgsQuery{InstanceID: listInstanceID})
			})
		},
	}
	list.Flags().StringVar(&listInstanceID, "instance-id", "", "instance ID")
	cmd.AddCommand(list)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "User management"}

	var orgID, username, email, firstName, lastName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCommandBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.CommandBus) error {
				c := application.CreateUserCommand{
					OrgID:     orgID,
					Kind:      "human",
					Username:  username,
					Email:     email,
					FirstName: firstName,
					LastName:  lastName,
				}
				if err := c.Validate(); err != nil {
					return err
				}
				if err := bus.Handle(ctx, logger, c); err != nil {
					return err
				}
				fmt.Println("user created")
				return nil
			})
		},
	}
	create.Flags().StringVar(&orgID, "org-id", "", "org ID")
	create.Flags().StringVar(&username, "username", "", "username")
	create.Flags().StringVar(&email, "email", "", "email")
	create.Flags().StringVar(&firstName, "first-name", "", "first name")
	create.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.AddCommand(create)

	var userID string
	get := &cobra.Command{
		Use:   "get",
		Short: "Fetch a user by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.GetUserQuery{UserID: userID})
			})
		},
	}
	get.Flags().StringVar(&userID, "user-id", "", "user ID")
	cmd.AddCommand(get)

	var listOrgID, listState string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users within an org",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ListUsersQuery{OrgID: listOrgID, State: listState})
			})
		},
	}
	list.Flags().StringVar(&listOrgID, "org-id", "", "org ID")
	list.Flags().StringVar(&listState, "state", "", "filter by state")
	cmd.AddCommand(list)

	var lockUserID string
	lock := &cobra.Command{
		Use:   "lock",
		Short: "Lock a user out (failed login threshold, operator action)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCommandBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.CommandBus) error {
				if err := bus.Handle(ctx, logger, application.LockUserCommand{UserID: lockUserID}); err != nil {
					return err
				}
				fmt.Println("user locked")
				return nil
			})
		},
	}
	lock.Flags().StringVar(&lockUserID, "user-id", "", "user ID")
	cmd.AddCommand(lock)

	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Project, role, and membership management"}

	var getProjectID string
	get := &cobra.Command{
		Use:   "get",
		Short: "Fetch a project by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.GetProjectQuery{ProjectID: getProjectID})
			})
		},
	}
	get.Flags().StringVar(&getProjectID, "project-id", "", "project ID")
	cmd.AddCommand(get)

	var membersProjectID string
	members := &cobra.Command{
		Use:   "members",
		Short: "List a project's members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ListProjectMembersQuery{ProjectID: membersProjectID})
			})
		},
	}
	members.Flags().StringVar(&membersProjectID, "project-id", "", "project ID")
	cmd.AddCommand(members)

	var rolesProjectID string
	roles := &cobra.Command{
		Use:   "roles",
		Short: "List a project's roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ListProjectRolesQuery{ProjectID: rolesProjectID})
			})
		},
	}
	roles.Flags().StringVar(&rolesProjectID, "project-id", "", "project ID")
	cmd.AddCommand(roles)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Operator diagnostics"}

	cmd.AddCommand(&cobra.Command{
		Use:   "projection-status",
		Short: "Show every registered projection's cursor (position, last processed time, failures; no lag figure)",
		RunE: func(c *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ProjectionStatusQuery{})
			})
		},
	})

	var aggregateType string
	var limit int
	events := &cobra.Command{
		Use:   "events",
		Short: "Scan the global event stream",
		RunE: func(c *cobra.Command, args []string) error {
			return withQueryBus(func(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus) error {
				return printQuery(ctx, logger, bus, application.ListEventsQuery{AggregateType: aggregateType, Limit: limit})
			})
		},
	}
	events.Flags().StringVar(&aggregateType, "aggregate-type", "", "filter by aggregate type")
	events.Flags().IntVar(&limit, "limit", 100, "max events to return")
	cmd.AddCommand(events)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("iamcore 0.1.0")
		},
	}
}

// printQuery runs q through the bus and prints the result as indented JSON,
// the one generic rendering every query subcommand shares.
func printQuery(ctx context.Context, logger domain.Logger, bus pkgapp.QueryBus, q pkgapp.Query) error {
	result, err := bus.Handle(ctx, logger, q)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// withDB, withCommandBus and withQueryBus start the fx application long
// enough to run fn against it, then stop it — the shape every one-shot CLI
// subcommand needs, as opposed to serveCmd's long-running app.Run().
func withDB(fn func(context.Context, domain.Logger, *gorm.DB, *projection.Engine) error) error {
	return runWithApp(fn)
}

func withCommandBus(fn func(context.Context, domain.Logger, pkgapp.CommandBus) error) error {
	return runWithApp(fn)
}

func withQueryBus(fn func(context.Context, domain.Logger, pkgapp.QueryBus) error) error {
	return runWithApp(fn)
}

func runWithApp(fn interface{}) error {
	var result error
	done := make(chan struct{})

	var app *fx.App
	switch f := fn.(type) {
	case func(context.Context, domain.Logger, pkgapp.CommandBus) error:
		app = pkg.NewApp(internal.Module, fx.Invoke(func(logger domain.Logger, bus pkgapp.CommandBus) {
			defer close(done)
			result = f(context.Background(), logger, bus)
		}))
	case func(context.Context, domain.Logger, pkgapp.QueryBus) error:
		app = pkg.NewApp(internal.Module, fx.Invoke(func(logger domain.Logger, bus pkgapp.QueryBus) {
			defer close(done)
			result = f(context.Background(), logger, bus)
		}))
	case func(context.Context, domain.Logger, *gorm.DB, *projection.Engine) error:
		app = pkg.NewApp(internal.Module, fx.Invoke(func(logger domain.Logger, db *gorm.DB, engine *projection.Engine) {
			defer close(done)
			result = f(context.Background(), logger, db, engine)
		}))
	default:
		return fmt.Errorf("unsupported function type")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start app: %w", err)
	}

	<-done

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop app: %w", err)
	}
	return result
}
