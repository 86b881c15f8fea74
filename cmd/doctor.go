package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/warelay/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("warelay doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND — defaults + env apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Database:")
	if cfg.Database.PostgresDSN == "" {
		fmt.Printf("    %-12s WARELAY_POSTGRES_DSN not set\n", "Status:")
	} else {
		checkPostgres(cfg.Database.PostgresDSN)
	}

	fmt.Println()
	fmt.Println("  Redis:")
	checkRedis(cfg.Redis.URL)

	fmt.Println()
	fmt.Println("  Twilio:")
	checkCredential("SID", cfg.Twilio.AccountSID)
	checkCredential("Token", cfg.Twilio.AuthToken)
	if cfg.Twilio.PhoneNumber != "" {
		fmt.Printf("    %-12s %s\n", "From:", cfg.Twilio.PhoneNumber)
	} else {
		fmt.Printf("    %-12s (not configured)\n", "From:")
	}

	fmt.Println()
	fmt.Println("  Agent:")
	checkAgent(cfg.Agent.URL)
}

func checkPostgres(dsn string) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	fmt.Printf("    %-12s OK\n", "Status:")

	var version int64
	var dirty bool
	err = db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	switch {
	case err != nil:
		fmt.Printf("    %-12s not migrated (run: warelay migrate up)\n", "Schema:")
	case dirty:
		fmt.Printf("    %-12s v%d (DIRTY — run: warelay migrate force %d)\n", "Schema:", version, version-1)
	default:
		fmt.Printf("    %-12s v%d\n", "Schema:", version)
	}
}

func checkRedis(url string) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		fmt.Printf("    %-12s INVALID URL (%s)\n", "Status:", err)
		return
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	fmt.Printf("    %-12s OK (%s)\n", "Status:", opt.Addr)
}

func checkAgent(url string) {
	if url == "" {
		fmt.Printf("    %-12s (not configured)\n", "URL:")
		return
	}
	fmt.Printf("    %-12s %s\n", "URL:", url)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("    %-12s UNREACHABLE (%s)\n", "Status:", err)
		return
	}
	resp.Body.Close()
	fmt.Printf("    %-12s reachable (HTTP %d)\n", "Status:", resp.StatusCode)
}

func checkCredential(name, value string) {
	if value == "" {
		fmt.Printf("    %-12s (not configured)\n", name+":")
		return
	}
	masked := value
	if len(value) > 8 {
		masked = value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
	}
	fmt.Printf("    %-12s %s\n", name+":", masked)
}
