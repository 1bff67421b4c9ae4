package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/slotted/internal/ai"
	"github.com/christopherklint97/slotted/internal/config"
	"github.com/christopherklint97/slotted/internal/gcal"
	"github.com/christopherklint97/slotted/internal/resolve"
	"github.com/christopherklint97/slotted/internal/schedule"
	"github.com/christopherklint97/slotted/internal/slots"
	"github.com/christopherklint97/slotted/internal/store"
	"github.com/christopherklint97/slotted/internal/tui"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "slotted",
	Short: "Calendar scheduling assistant",
	Long:  "slotted reads your calendar, finds open meeting slots within working hours, ranks them against your scheduling habits, and turns plain-English requests into booked events.",
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Calendar",
	RunE:  runAuth,
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show open slots and ranked recommendations",
	RunE:  runSlots,
}

var bookCmd = &cobra.Command{
	Use:   "book <request...>",
	Short: "Resolve a plain-English request to a slot and book it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBook,
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick a slot interactively and book it",
	RunE:  runPick,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	bookCmd.Flags().BoolP("yes", "y", false, "book without confirmation prompt")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(slotsCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newInterpreter(cfg *config.Config, logger *slog.Logger) ai.Interpreter {
	if cfg.AI.Provider != "openai" || cfg.AI.APIKey == "" {
		return ai.Disabled{}
	}
	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	return ai.NewOpenAI(cfg.AI.APIKey, cfg.AI.Model, timeout, logger)
}

func newSource(cfg *config.Config, logger *slog.Logger) (schedule.Source, error) {
	if cfg.Calendar.Source == "google" {
		if cfg.Calendar.ClientID == "" {
			return nil, fmt.Errorf("google client ID not configured: run 'slotted config' or set GOOGLE_CLIENT_ID")
		}
		auth := gcal.NewAuth(cfg.Calendar.ClientID, cfg.Calendar.ClientSecret, logger)
		return &schedule.GoogleSource{Auth: auth, Client: gcal.NewClient("", logger)}, nil
	}
	return &schedule.ICSSource{Location: cfg.Calendar.Source}, nil
}

func buildAssistant(logger *slog.Logger) (*schedule.Assistant, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	source, err := newSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open()
	if err != nil {
		logger.Warn("event cache unavailable", "error", err)
		db = nil
	}

	resolver := resolve.New(newInterpreter(cfg, logger), logger)
	assistant := schedule.NewAssistant(source, db, resolver, cfg.Schedule.Policy(), cfg.Schedule.DaysAhead, logger)
	return assistant, cfg, nil
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Calendar.ClientID == "" {
		return fmt.Errorf("google client ID not configured: run 'slotted config' or set GOOGLE_CLIENT_ID")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	auth := gcal.NewAuth(cfg.Calendar.ClientID, cfg.Calendar.ClientSecret, newLogger())

	dc, err := auth.StartDeviceCodeFlow(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Open %s and enter code: %s\n", dc.VerificationURL, dc.UserCode)
	fmt.Println("Waiting for authorization...")

	tokens, err := auth.PollForToken(ctx, dc.DeviceCode, dc.Interval)
	if err != nil {
		return err
	}
	if err := gcal.SaveTokens(tokens); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}

	fmt.Println("Authenticated with Google Calendar.")
	return nil
}

func runSlots(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	assistant, _, err := buildAssistant(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	av := assistant.Availability(ctx, time.Now().UTC())

	if av.Degraded {
		fmt.Println("Note: calendar unavailable, slots computed from stand-in busy data.")
	}
	fmt.Printf("Preference summary: %s\n\n", av.Summary)

	if len(av.Slots) == 0 {
		fmt.Println(av.Ranking.Message)
		return nil
	}

	fmt.Println("Recommended:")
	for i, rec := range av.Ranking.Top {
		fmt.Printf("  %d. %s  (%s)\n", i+1, rec.Slot.Start.UTC().Format("Mon Jan 2 15:04"), rec.Rationale)
	}

	fmt.Printf("\nAll open slots (%d):\n", len(av.Slots))
	for _, s := range av.Slots {
		fmt.Printf("  %s\n", s.Start.UTC().Format("Mon Jan 2 15:04"))
	}
	return nil
}

func runBook(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	assistant, cfg, err := buildAssistant(logger)
	if err != nil {
		return err
	}
	request := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, av := assistant.Resolve(ctx, request, time.Now().UTC())
	fmt.Println(result.Message)

	if result.FoundSlot == nil {
		// No automatic match; hand over to the interactive picker.
		picked, err := pickSlot(av)
		if err != nil || picked == nil {
			return err
		}
		result.FoundSlot = &picked.Start
	}

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm && !confirm("Schedule event?") {
		fmt.Println("Canceled.")
		return nil
	}

	id, err := assistant.Book(ctx, result.EventName, result.Description, *result.FoundSlot)
	if err != nil {
		return err
	}

	fmt.Printf("Event created (%s).\n", id)
	if cfg.Notify.Enabled {
		if err := schedule.SendNotification("slotted", result.Message); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
	return nil
}

func runPick(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	assistant, _, err := buildAssistant(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	av := assistant.Availability(ctx, time.Now().UTC())
	picked, err := pickSlot(av)
	if err != nil || picked == nil {
		return err
	}

	fmt.Print("Event name: ")
	reader := bufio.NewReader(os.Stdin)
	name, _ := reader.ReadString('\n')

	id, err := assistant.Book(ctx, strings.TrimSpace(name), "", picked.Start)
	if err != nil {
		return err
	}
	fmt.Printf("Event created (%s).\n", id)
	return nil
}

func pickSlot(av schedule.Availability) (*slots.Slot, error) {
	app := tui.NewSlotPickerApp(av.Slots, av.Summary, av.Degraded)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		return nil, fmt.Errorf("running slot picker: %w", err)
	}

	result := app.GetResult()
	if result == nil || result.Canceled {
		fmt.Println("Canceled.")
		return nil, nil
	}
	return result.Slot, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
