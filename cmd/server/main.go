package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	iofs "io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/backup"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/bridge"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/cleanup"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/config"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/container"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/container/docker"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/mcp"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/schedule"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

func main() {
	// Check for subcommands before parsing flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			cmdInit()
			return
		case "token":
			cmdToken(os.Args[2:])
			return
		case "mcp":
			cmdMCP(os.Args[2:])
			return
		case "--version", "-v":
			fmt.Printf("blender-mcp %s\n", Version)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	// Default: run server
	runServer()
}

func printUsage() {
	fmt.Printf(`Blender MCP Server %s

Usage: blender-mcp [command] [options]

Commands:
  (default)    Start the MCP server
  init         Initialize the config and data directories
  token        Manage authentication tokens
  mcp          Configure MCP integration with AI tools

Server Options:
  --dir <path>       Home directory
  --daemon           Start server in background and exit when ready

Config Precedence (for server):
  1. --dir flag
  2. BLENDERMCP_HOME env var
  3. ./config/blendermcp.jsonc (if present in current directory)
  4. ~/.blender-mcp (default)

Examples:
  blender-mcp                            Start the server (auto-detect config)
  blender-mcp --dir /path/to/home        Start with specific home directory
  blender-mcp --daemon                   Start in background
  blender-mcp init                       Set up ~/.blender-mcp
  blender-mcp token create --name "Local Dev" --scope admin
  blender-mcp mcp --setup claude         Configure MCP for Claude Desktop
`, Version)
}

func runServer() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	dirFlag := flag.String("dir", "", "Home directory (default: ~/.blender-mcp)")
	daemonFlag := flag.Bool("daemon", false, "Run in background and exit after server is ready")
	flag.Parse()

	if *showVersion {
		fmt.Printf("blender-mcp %s\n", Version)
		os.Exit(0)
	}

	if *daemonFlag {
		runDaemon(*dirFlag)
		return
	}

	homeDir := resolveHomeDir(*dirFlag)
	configDir := filepath.Join(homeDir, "config")

	if _, err := os.Stat(filepath.Join(configDir, "blendermcp.jsonc")); errors.Is(err, iofs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Not initialized. Run 'blender-mcp init' first.")
		os.Exit(1)
	}

	configPath, err := config.FindConfigPath(configDir)
	if err != nil {
		log.Fatalf("Failed to locate configuration: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dataDir := resolvePath(homeDir, cfg.Data.Dir)
	cfg.Data.Dir = dataDir
	cfg.Server.SocketPath = resolvePath(homeDir, cfg.Server.SocketPath)
	cfg.Backup.Directory = resolvePath(homeDir, cfg.Backup.Directory)
	logDir := filepath.Join(dataDir, "logs")

	if err := logger.Init(logDir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Println("Blender MCP Server")
	logger.Printf("Config: %s", configPath)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Fatalf("Failed to create data directory: %v", err)
	}

	auditLog, err := audit.NewFileLogger(filepath.Join(dataDir, "audit", "audit.log"))
	if err != nil {
		logger.Fatalf("Failed to initialize audit log: %v", err)
	}
	audit.SetDefault(auditLog)
	defer func() { _ = auditLog.Close() }()
	logger.Printf("Audit log: %s/audit/audit.log", dataDir)

	host, port := cfg.BlenderAddr()
	blenderAddr := net.JoinHostPort(host, strconv.Itoa(port))
	timeout := time.Duration(cfg.Blender.TimeoutSeconds) * time.Second

	// Optionally launch a headless Blender container exposing the
	// listener port before connecting.
	var managed *container.Blender
	if cfg.Blender.Managed {
		rt, err := docker.NewRuntime()
		if err != nil {
			logger.Fatalf("Failed to initialize Docker runtime: %v", err)
		}
		defer func() { _ = rt.Close() }()

		managed = container.NewBlender(rt, cfg.Blender.Image, host, port)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if err := managed.Start(ctx); err != nil {
			cancel()
			logger.Fatalf("Failed to start managed Blender container: %v", err)
		}
		if err := managed.WaitReady(ctx, 60*time.Second); err != nil {
			if logs, lerr := managed.Logs(ctx, "50"); lerr == nil && logs != "" {
				logger.Error("Container output:\n%s", logs)
			}
			_ = managed.Stop(ctx)
			cancel()
			logger.Fatalf("Managed Blender container did not become ready: %v", err)
		}
		cancel()
	}

	br := bridge.NewManager(blenderAddr, timeout)
	defer br.Close()

	// The listener may not be up yet; the bridge reconnects on demand,
	// so a failed startup probe is not fatal.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if info, err := br.ValidateStartup(probeCtx); err != nil {
		logger.Warn("Blender listener not reachable on %s: %v", blenderAddr, err)
		logger.Warn("Tool calls will fail until Blender is running with the listener addon enabled")
	} else if version, ok := info["version"].(string); ok {
		logger.Printf("Connected to Blender listener on %s (version %s)", blenderAddr, version)
	} else {
		logger.Printf("Connected to Blender listener on %s", blenderAddr)
	}
	probeCancel()

	authStore, err := auth.NewStore(dataDir)
	if err != nil {
		logger.Fatalf("Failed to initialize auth store: %v", err)
	}
	defer func() { _ = authStore.Close() }()
	logger.Printf("Auth database: %s/auth.db", dataDir)

	scheduleStore, err := schedule.NewStore(dataDir)
	if err != nil {
		logger.Fatalf("Failed to initialize schedule store: %v", err)
	}
	defer func() { _ = scheduleStore.Close() }()
	logger.Printf("Schedule database: %s/schedules.db", dataDir)

	server := mcp.NewServer(br, authStore, scheduleStore, cfg)

	if err := server.GetSocketHandler().Start(); err != nil {
		logger.Fatalf("Failed to start local socket: %v", err)
	}
	logger.Printf("Local socket: %s", cfg.Server.SocketPath)

	var cleaner *cleanup.Cleaner
	if cfg.Cleanup.Enabled {
		cleaner = cleanup.New(cleanup.Config{
			DataDir:          dataDir,
			Interval:         time.Duration(cfg.Cleanup.IntervalMinutes) * time.Minute,
			Retention:        time.Duration(cfg.Cleanup.RetentionMinutes) * time.Minute,
			DiskWarnPercent:  80,
			DiskErrorPercent: 90,
			Pruner:           scheduleStore,
		})
		cleaner.Start()
	}

	var backupMgr *backup.Manager
	if cfg.Backup.Enabled {
		backupMgr, err = backup.New(backup.Config{
			DataDir:   dataDir,
			BackupDir: cfg.Backup.Directory,
			Retention: cfg.Backup.Retention,
			Interval:  time.Duration(cfg.Backup.IntervalHours) * time.Hour,
		})
		if err != nil {
			logger.Printf("Failed to initialize backup: %v", err)
		} else {
			backupMgr.Start()
		}
	}

	addr := cfg.Server.Address
	logger.Printf("Server address: http://localhost%s/mcp", addr)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(addr)
	}()

	select {
	case err := <-serverErr:
		logger.Fatalf("Server error: %v", err)
	case sig := <-shutdownChan:
		logger.Printf("Received signal %v, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
		server.Close()

		if cleaner != nil {
			cleaner.Stop()
		}
		if backupMgr != nil {
			backupMgr.Stop()
		}
		if managed != nil {
			if err := managed.Stop(ctx); err != nil {
				logger.Printf("Failed to stop managed container: %v", err)
			}
		}

		logger.Println("Shutdown complete")
	}
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Directory to initialize (default: ~/.blender-mcp)")
	_ = fs.Parse(os.Args[2:])

	var homeDir string
	if *dirFlag != "" {
		absDir, err := filepath.Abs(*dirFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid directory: %v\n", err)
			os.Exit(1)
		}
		homeDir = absDir
	} else {
		userHome, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not determine home directory: %v\n", err)
			os.Exit(1)
		}
		homeDir = filepath.Join(userHome, ".blender-mcp")
	}

	configDir := filepath.Join(homeDir, "config")
	dataDir := filepath.Join(homeDir, "data")

	fmt.Println("Initializing Blender MCP Server")
	fmt.Println("")

	dirs := []string{
		configDir,
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "renders"),
		filepath.Join(dataDir, "backups"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}
		fmt.Printf("   Created %s\n", dir)
	}

	configPath, err := config.WriteDefault(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   Created %s\n", configPath)

	fmt.Println("")
	fmt.Println("Creating admin token...")
	authStore, err := auth.NewStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing auth store: %v\n", err)
		os.Exit(1)
	}

	_, tokenID, err := authStore.CreateToken("admin", auth.ScopeAdmin, nil)
	if err != nil {
		_ = authStore.Close()
		fmt.Fprintf(os.Stderr, "Error creating token: %v\n", err)
		os.Exit(1)
	}
	_ = authStore.Close()

	fmt.Println("")
	fmt.Println("Admin token (save this - it cannot be retrieved later):")
	fmt.Printf("   %s\n", tokenID)

	fmt.Println("")
	fmt.Println("Initialized!")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Printf("   1. Review %s (Blender listener host/port)\n", configPath)
	fmt.Println("   2. Start Blender with the listener addon, or set blender.managed=true")
	fmt.Println("   3. Run 'blender-mcp' to start the server")
}

// cmdToken handles the 'token' subcommand for managing authentication tokens
func cmdToken(args []string) {
	if len(args) < 1 {
		printTokenUsage()
		os.Exit(1)
	}

	homeDir := resolveHomeDir("")
	dataDir := filepath.Join(homeDir, "data")

	store, err := auth.NewStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing auth store: %v\n", err)
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "create":
		tokenCreate(store, cmdArgs)
	case "list":
		tokenList(store)
	case "revoke":
		tokenRevoke(store, cmdArgs)
	case "info":
		tokenInfo(store, cmdArgs)
	case "help", "-h", "--help":
		_ = store.Close()
		printTokenUsage()
		return
	default:
		_ = store.Close()
		fmt.Fprintf(os.Stderr, "Unknown token command: %s\n", cmd)
		printTokenUsage()
		os.Exit(1)
	}
	_ = store.Close()
}

func printTokenUsage() {
	fmt.Println(`Token Management

Usage: blender-mcp token <command> [options]

Commands:
  create    Create a new API token
  list      List all tokens
  revoke    Revoke a token
  info      Get token details
  help      Show this help

Scopes:
  admin     Full access including execute_blender_code and token/schedule admin
  admin:ro  Read-only scene inspection
  operator  Scene read and write, no code execution or admin tools

Examples:
  blender-mcp token create --name "Local Dev" --scope admin
  blender-mcp token create --name "Render Bot" --scope operator
  blender-mcp token list
  blender-mcp token revoke bmc_xxxx...
  blender-mcp token info bmc_xxxx...`)
}

func tokenCreate(store *auth.Store, args []string) {
	fs := flag.NewFlagSet("token create", flag.ExitOnError)
	name := fs.String("name", "", "Human-readable token name (required)")
	scope := fs.String("scope", "", "Token scope: admin, admin:ro, or operator (required)")
	_ = fs.Parse(args)

	if *name == "" || *scope == "" {
		fmt.Fprintln(os.Stderr, "Error: --name and --scope are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	if !auth.IsValidScope(*scope) {
		fmt.Fprintf(os.Stderr, "Error: invalid scope '%s'\n", *scope)
		fmt.Fprintln(os.Stderr, "Valid scopes: admin, admin:ro, operator")
		os.Exit(1)
	}

	token, tokenID, err := store.CreateToken(*name, *scope, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Token created successfully!")
	fmt.Println()
	fmt.Printf("Token ID: %s\n", tokenID)
	fmt.Printf("Name:     %s\n", token.Name)
	fmt.Printf("Scope:    %s\n", token.Scope)
	fmt.Println()
	fmt.Println("IMPORTANT: Save this token now. It cannot be retrieved later.")
}

func tokenList(store *auth.Store) {
	tokens, err := store.ListTokens()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tokens: %v\n", err)
		os.Exit(1)
	}

	if len(tokens) == 0 {
		fmt.Println("No tokens found.")
		fmt.Println()
		fmt.Println("Create one with: blender-mcp token create --name \"My Token\" --scope admin")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSCOPE\tCREATED\tLAST USED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-------\t---------")

	for _, t := range tokens {
		lastUsed := "never"
		if t.LastUsedAt != nil {
			lastUsed = t.LastUsedAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			maskTokenID(t.ID),
			t.Name,
			t.Scope,
			t.CreatedAt.Format("2006-01-02 15:04"),
			lastUsed,
		)
	}
	_ = w.Flush()
}

func tokenRevoke(store *auth.Store, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: token ID required")
		fmt.Fprintln(os.Stderr, "Usage: blender-mcp token revoke <token_id>")
		os.Exit(1)
	}

	tokenID := args[0]
	if err := store.RevokeToken(tokenID); err != nil {
		fmt.Fprintf(os.Stderr, "Error revoking token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token %s revoked successfully.\n", maskTokenID(tokenID))
}

func tokenInfo(store *auth.Store, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: token ID required")
		fmt.Fprintln(os.Stderr, "Usage: blender-mcp token info <token_id>")
		os.Exit(1)
	}

	token, err := store.GetToken(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token ID:    %s\n", maskTokenID(token.ID))
	fmt.Printf("Name:        %s\n", token.Name)
	fmt.Printf("Scope:       %s\n", token.Scope)
	fmt.Printf("Created:     %s\n", token.CreatedAt.Format("2006-01-02 15:04:05"))
	if token.LastUsedAt != nil {
		fmt.Printf("Last Used:   %s\n", token.LastUsedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Last Used:   never\n")
	}
	if token.ExpiresAt != nil {
		fmt.Printf("Expires:     %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Expires:     never\n")
	}
}

func maskTokenID(tokenID string) string {
	if len(tokenID) <= 12 {
		return "***"
	}
	return tokenID[:8] + "..." + tokenID[len(tokenID)-4:]
}

// cmdMCP writes a server entry into an MCP client's config file.
func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	setup := fs.String("setup", "", "Tool to configure: claude, cursor")
	configFlag := fs.String("config", "", "Output MCP config file path (overrides tool default)")
	dirFlag := fs.String("dir", "", "Home directory (default: ~/.blender-mcp)")
	_ = fs.Parse(args)

	if *setup == "" {
		fmt.Println("Usage: blender-mcp mcp --setup <tool> [options]")
		fmt.Println("")
		fmt.Println("Tools:")
		fmt.Println("  claude   Claude Desktop")
		fmt.Println("  cursor   Cursor editor")
		fmt.Println("")
		fmt.Println("Options:")
		fmt.Println("  --config <path>  Output MCP config file (overrides tool default)")
		fmt.Println("  --dir <path>     Home directory (default: ~/.blender-mcp)")
		os.Exit(1)
	}

	tool := *setup

	userHome, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	homeDir := resolveHomeDir(*dirFlag)
	configDir := filepath.Join(homeDir, "config")
	dataDir := filepath.Join(homeDir, "data")

	var configPath string
	switch {
	case *configFlag != "":
		configPath, err = filepath.Abs(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid config path: %v\n", err)
			os.Exit(1)
		}
	default:
		switch tool {
		case "claude":
			if runtime.GOOS == "darwin" {
				configPath = filepath.Join(userHome, "Library", "Application Support", "Claude", "claude_desktop_config.json")
			} else {
				configPath = filepath.Join(userHome, ".config", "claude", "claude_desktop_config.json")
			}
		case "cursor":
			configPath = filepath.Join(userHome, ".cursor", "mcp.json")
		default:
			fmt.Fprintf(os.Stderr, "Unknown tool: %s\n", tool)
			fmt.Println("Supported tools: claude, cursor")
			os.Exit(1)
		}
	}

	if _, err := os.Stat(dataDir); errors.Is(err, iofs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error: not initialized. Run 'blender-mcp init' first.")
		os.Exit(1)
	}

	cfgFile, err := config.FindConfigPath(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	serverAddr := cfg.Server.Address
	port := serverAddr
	if idx := strings.LastIndex(serverAddr, ":"); idx >= 0 {
		port = serverAddr[idx+1:]
	}
	mcpURL := fmt.Sprintf("http://localhost:%s/mcp", port)

	fmt.Printf("Setting up MCP for %s...\n", tool)
	fmt.Printf("Config file: %s\n", configPath)
	fmt.Println("")

	authStore, err := auth.NewStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening auth store: %v\n", err)
		os.Exit(1)
	}

	// Reuse an existing setup token per tool so repeated runs do not
	// accumulate tokens.
	tokens, err := authStore.ListTokens()
	if err != nil {
		_ = authStore.Close()
		fmt.Fprintf(os.Stderr, "Error listing tokens: %v\n", err)
		os.Exit(1)
	}

	var tokenID string
	for _, t := range tokens {
		if t.Name == "mcp-"+tool {
			tokenID = t.ID
			break
		}
	}

	if tokenID == "" {
		fmt.Printf("Creating auth token for %s...\n", tool)
		_, tokenID, err = authStore.CreateToken("mcp-"+tool, auth.ScopeAdmin, nil)
		if err != nil {
			_ = authStore.Close()
			fmt.Fprintf(os.Stderr, "Error creating token: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("Using existing token for %s\n", tool)
	}
	_ = authStore.Close()

	var mcpConfig map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &mcpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing existing config: %v\n", err)
			os.Exit(1)
		}
	} else {
		mcpConfig = make(map[string]interface{})
	}

	mcpServers, ok := mcpConfig["mcpServers"].(map[string]interface{})
	if !ok {
		mcpServers = make(map[string]interface{})
		mcpConfig["mcpServers"] = mcpServers
	}

	mcpServers["blender"] = map[string]interface{}{
		"type": "http",
		"url":  mcpURL,
		"headers": map[string]string{
			"Authorization": "Bearer " + tokenID,
		},
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		os.Exit(1)
	}

	configData, err := json.MarshalIndent(mcpConfig, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting config: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, configData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("")
	fmt.Printf("MCP configured for %s\n", tool)
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Start the server: blender-mcp")
	fmt.Println("  2. Restart your MCP client to pick up the new server.")
}

// resolveHomeDir determines the home directory with precedence:
// 1. Explicit flag (if provided)
// 2. BLENDERMCP_HOME env var
// 3. Current directory (if it holds config/blendermcp.jsonc)
// 4. ~/.blender-mcp (default)
func resolveHomeDir(flagDir string) string {
	if flagDir != "" {
		absDir, err := filepath.Abs(flagDir)
		if err != nil {
			log.Fatalf("Invalid directory: %v", err)
		}
		return absDir
	}

	if envDir := os.Getenv("BLENDERMCP_HOME"); envDir != "" {
		absDir, err := filepath.Abs(envDir)
		if err != nil {
			log.Fatalf("Invalid BLENDERMCP_HOME: %v", err)
		}
		return absDir
	}

	cwd, err := os.Getwd()
	if err == nil {
		if _, err := os.Stat(filepath.Join(cwd, "config", "blendermcp.jsonc")); err == nil {
			return cwd
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	return filepath.Join(userHome, ".blender-mcp")
}

// resolvePath makes a config-relative path absolute under the home dir.
func resolvePath(homeDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(homeDir, path)
}

// runDaemon starts the server in background and waits for it to be ready
func runDaemon(dirFlag string) {
	executable, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding executable: %v\n", err)
		os.Exit(1)
	}

	homeDir := resolveHomeDir(dirFlag)
	configDir := filepath.Join(homeDir, "config")

	configPath, err := config.FindConfigPath(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	serverAddr := cfg.Server.Address
	port := serverAddr
	if idx := strings.LastIndex(serverAddr, ":"); idx >= 0 {
		port = serverAddr[idx+1:]
	}
	healthURL := fmt.Sprintf("http://localhost:%s/health", port)

	// Check if already running
	resp, err := http.Get(healthURL)
	if err == nil {
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			fmt.Printf("blender-mcp already running on port %s\n", port)
			os.Exit(0)
		}
	}

	logFile := filepath.Join(homeDir, "data", "logs", "daemon.log")
	cmdStr := fmt.Sprintf("nohup %s", executable)
	if dirFlag != "" {
		cmdStr += fmt.Sprintf(" --dir %s", dirFlag)
	}
	cmdStr += fmt.Sprintf(" > %s 2>&1 &", logFile)

	cmd := exec.Command("sh", "-c", cmdStr)
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting blender-mcp on port %s...\n", port)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(healthURL)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				fmt.Printf("blender-mcp running on port %s\n", port)
				os.Exit(0)
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Fprintf(os.Stderr, "Error: server failed to start within 30s\n")
	fmt.Fprintf(os.Stderr, "Check logs at: %s\n", logFile)
	os.Exit(1)
}
