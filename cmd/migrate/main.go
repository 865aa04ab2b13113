// Command migrate applies and inspects Postgres schema migrations for the
// shortener catalog.
//
// Usage Examples:
//
//	go run cmd/migrate/main.go up                  # Run all pending migrations
//	go run cmd/migrate/main.go down                # Rollback 1 migration (with confirmation)
//	go run cmd/migrate/main.go down -steps 5        # Rollback 5 migrations (with confirmation)
//	go run cmd/migrate/main.go status               # Show migration status
//	go run cmd/migrate/main.go goto -version 5       # Migrate to specific version (with confirmation)
//	go run cmd/migrate/main.go force -version 3      # Force version (with confirmation)
//	go run cmd/migrate/main.go drop                  # Drop all tables (with confirmation)
//	go run cmd/migrate/main.go steps -steps 2        # Run 2 steps forward
//	go run cmd/migrate/main.go create -name "add_links"  # Create new migration
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"shortcut/internal/config"
	"shortcut/internal/migration"
)

// migrateFlags holds all parsed command-line flags.
type migrateFlags struct {
	Steps   int
	Version int
	Name    string
	DryRun  bool
}

// parseFlags parses flags from arguments, supporting flags before or after the command.
func parseFlags(args []string) (*migrateFlags, string, error) {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" || arg == "help" {
			return nil, "help", nil
		}
	}

	if len(args) == 0 {
		return nil, "", fmt.Errorf("no command specified")
	}

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := &migrateFlags{}
	fs.IntVar(&flags.Steps, "steps", 0, "Number of migration steps (0 = all)")
	fs.IntVar(&flags.Version, "version", 0, "Target version for goto/force commands")
	fs.StringVar(&flags.Name, "name", "", "Migration name for create command")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Show what would be migrated without executing")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		return nil, "", fmt.Errorf("no command specified")
	}

	command := remainingArgs[0]
	if len(remainingArgs) > 1 {
		if err := fs.Parse(remainingArgs[1:]); err != nil {
			return nil, "", err
		}
	}

	return flags, command, nil
}

func main() {
	flags, command, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	if command == "help" || command == "" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	manager, err := migration.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize migration manager: %v", err)
	}
	defer manager.Shutdown()

	ctx := context.Background()

	switch command {
	case "up":
		if err := manager.Up(ctx, flags.Steps, flags.DryRun); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("migrations completed successfully")

	case "down":
		downSteps := flags.Steps
		if downSteps == 0 {
			downSteps = 1
		}
		if !confirmDestructiveOperation(fmt.Sprintf("rollback %d migration(s)", downSteps)) {
			fmt.Println("operation cancelled")
			return
		}
		if err := manager.Down(ctx, downSteps, flags.DryRun); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("rollback completed successfully")

	case "status":
		if err := manager.ShowStatus(ctx); err != nil {
			log.Fatalf("Failed to show status: %v", err)
		}

	case "goto":
		if flags.Version == 0 {
			log.Fatal("version must be specified for goto command (use -version flag)")
		}
		if !confirmDestructiveOperation(fmt.Sprintf("migrate to version %d", flags.Version)) {
			fmt.Println("operation cancelled")
			return
		}
		if err := manager.Goto(uint(flags.Version)); err != nil {
			log.Fatalf("Failed to migrate to version %d: %v", flags.Version, err)
		}
		fmt.Printf("migrated to version %d successfully\n", flags.Version)

	case "force":
		if flags.Version == 0 {
			log.Fatal("version must be specified for force command (use -version flag)")
		}
		if !confirmDestructiveOperation(fmt.Sprintf("FORCE migration to version %d (DANGEROUS)", flags.Version)) {
			fmt.Println("operation cancelled")
			return
		}
		if err := manager.Force(flags.Version); err != nil {
			log.Fatalf("Failed to force migration to version %d: %v", flags.Version, err)
		}
		fmt.Printf("forced migration to version %d successfully\n", flags.Version)

	case "drop":
		if !confirmDestructiveOperation("DROP ALL TABLES (PERMANENT DATA LOSS)") {
			fmt.Println("operation cancelled")
			return
		}
		if err := manager.Drop(); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("tables dropped successfully")

	case "steps":
		if flags.Steps == 0 {
			log.Fatal("steps must be specified for steps command (use -steps flag)")
		}
		if flags.Steps < 0 && !confirmDestructiveOperation(fmt.Sprintf("rollback %d migration steps", -flags.Steps)) {
			fmt.Println("operation cancelled")
			return
		}
		if err := manager.Steps(flags.Steps); err != nil {
			log.Fatalf("Failed to run %d migration steps: %v", flags.Steps, err)
		}
		fmt.Printf("ran %d migration steps successfully\n", flags.Steps)

	case "create":
		if flags.Name == "" {
			log.Fatal("migration name is required for create command (use -name flag)")
		}
		if err := manager.CreateMigration(flags.Name); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}

	default:
		fmt.Printf("unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// confirmDestructiveOperation prompts the user for confirmation on dangerous operations.
func confirmDestructiveOperation(operation string) bool {
	fmt.Printf("DANGER: About to %s.\n", operation)
	fmt.Printf("This action cannot be undone and may result in data loss.\n")
	fmt.Print("Type 'yes' to confirm (anything else will cancel): ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes"
}

func printUsage() {
	fmt.Println("shortcut migration tool")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  migrate <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  up                    Run all pending migrations")
	fmt.Println("  down                  Rollback 1 migration (use -steps for more)")
	fmt.Println("  status                Show migration status")
	fmt.Println("  goto -version N       Migrate to specific version (with confirmation)")
	fmt.Println("  force -version N      Force version without migration (DANGEROUS)")
	fmt.Println("  drop                  Drop all tables (DANGEROUS)")
	fmt.Println("  steps -steps N        Run N migration steps (negative for rollback)")
	fmt.Println("  create -name NAME     Create new migration files")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -steps int           Number of migration steps")
	fmt.Println("  -version int         Target version for goto/force commands")
	fmt.Println("  -name string         Migration name for create command")
	fmt.Println("  -dry-run             Show what would happen without executing")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  migrate up                              # Run all pending migrations")
	fmt.Println("  migrate status                           # Show migration status")
	fmt.Println("  migrate down                             # Rollback 1 migration")
	fmt.Println("  migrate down -steps 5                    # Rollback 5 migrations")
	fmt.Println("  migrate goto -version 5                  # Go to version 5 with confirmation")
	fmt.Println("  migrate steps -steps 2                   # Run 2 migration steps")
	fmt.Println("  migrate create -name 'add_links'         # Create new migration")
	fmt.Println("  migrate up -dry-run                      # Preview migrations")
	fmt.Println()
	fmt.Println("SAFETY:")
	fmt.Println("  Destructive operations require explicit 'yes' confirmation")
	fmt.Println("  Use -dry-run to preview changes safely")
	fmt.Println("  Check 'status' before running migrations")
}
