package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/database"
	"github.com/crackcu/portal-backend/internal/logger"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/crackcu/portal-backend/internal/validator"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// candidateInput mirrors the registration form.
type candidateInput struct {
	Username string `json:"username" binding:"required,min=3,max=64,username"`
	FullName string `json:"full_name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	HSCYear  string `json:"hsc_year" binding:"omitempty,numeric,len=4"`
	Role     string `json:"role" binding:"required,oneof=student mentor moderator admin"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	fmt.Println("=== Create New Portal Account ===")

	in := candidateInput{
		Username: prompt("Username: "),
		FullName: prompt("Full name: "),
		Email:    prompt("Email: "),
		HSCYear:  prompt("HSC year (blank if none): "),
		Role:     prompt("Role [student]: "),
	}
	if in.Role == "" {
		in.Role = string(model.RoleStudent)
	}
	premium := strings.EqualFold(prompt("Premium member? [y/N]: "), "y")

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	in.Password = string(bytePassword)

	if fields := validator.Struct(in); fields != nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("Error: %s\n", fields[k])
		}
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	candidate := &model.Candidate{
		Username:     in.Username,
		PasswordHash: string(hashedPassword),
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         model.Role(in.Role),
		Premium:      premium,
		HSCYear:      in.HSCYear,
	}

	if err := candidateRepo.Create(ctx, candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			fmt.Printf("Error: username %q is already taken\n", in.Username)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create account")
	}

	fmt.Printf("\nSuccess! %s '%s' created with ID: %d\n", candidate.Role, candidate.Username, candidate.ID)
	if candidate.HSCYear != "" {
		fmt.Println("Run apply-penalty-rule if this HSC year carries the second-timer penalty.")
	}
}
