package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wagerpool/api"
	"wagerpool/cmd"
	"wagerpool/config"
	"wagerpool/database"
	"wagerpool/events"
	"wagerpool/repository"
	"wagerpool/service"

	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error:", err)
			}
			return
		case "fund":
			if err := handleFundCommand(); err != nil {
				log.Fatal("Fund error:", err)
			}
			return
		case "token":
			if err := handleTokenCommand(); err != nil {
				log.Fatal("Token error:", err)
			}
			return
		case "serve":
		default:
			log.Fatalf("unknown command: %s (expected serve, migrate, fund or token)", os.Args[1])
		}
	}

	// Normal server operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wagerpool migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleFundCommand deposits value into an account from outside the pool
func handleFundCommand() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: wagerpool fund <address> <amount>")
	}

	amount, err := decimal.NewFromString(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", os.Args[3], err)
	}

	ctx := context.Background()
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	accountService := service.NewAccountService(repository.NewUnitOfWorkFactory(db, events.NewBus()))
	account, err := accountService.Deposit(ctx, os.Args[2], amount)
	if err != nil {
		return err
	}

	log.Printf("Funded %s, balance is now %s", account.Address, account.Balance)
	return nil
}

// handleTokenCommand prints a bearer token for an address
func handleTokenCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wagerpool token <address>")
	}

	token, err := api.NewAuthenticator(config.Get().JWTSecret).GenerateToken(os.Args[2])
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
