package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/executor"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/orchestrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/version"
)

const banner = `
██████╗  ██╗  ██╗  █████╗  ██████╗   ██████╗  ███████╗
██╔══██╗ ██║  ██║ ██╔══██╗ ██╔══██╗ ██╔═══██╗ ██╔════╝
██████╔╝ ███████║ ███████║ ██████╔╝ ██║   ██║ ███████╗
██╔═══╝  ██╔══██║ ██╔══██║ ██╔══██╗ ██║   ██║ ╚════██║
██║      ██║  ██║ ██║  ██║ ██║  ██║ ╚██████╔╝ ███████║
╚═╝      ╚═╝  ╚═╝ ╚═╝  ╚═╝ ╚═╝  ╚═╝  ╚═════╝  ╚══════╝
`

var errExit = errors.New("exit")

type menuOption struct {
	label  string
	action func(ctx context.Context) error
	// pause waits for Enter before showing the menu again
	pause bool
}

// menu is the interactive front end. It keeps one run context for the whole
// session so the transaction count set from the menu sticks.
type menu struct {
	app *app
	in  *bufio.Reader
	out io.Writer
	rc  *orchestrator.RunContext
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start the interactive menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd)
	},
}

func runMenu(cmd *cobra.Command) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	wallets, err := a.loadWallets()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	m := &menu{
		app: a,
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
		rc:  a.runContext(wallets, 0),
	}
	fmt.Fprint(m.out, banner)
	fmt.Fprintf(m.out, "       %s v%s\n\n", a.cfg.BotName, version.Get())
	fmt.Fprintf(m.out, "Wallets loaded: %d\n", len(wallets))
	fmt.Fprintf(m.out, "Using config for transaction count: %d\n", m.rc.CurrentTxCount())
	return m.loop(ctx)
}

func (m *menu) options() []menuOption {
	var opts []menuOption
	for _, name := range m.taskNames() {
		opts = append(opts, menuOption{
			label:  m.app.catalogue.Label(name),
			action: func(ctx context.Context) error { return m.invoke(ctx, name) },
			pause:  true,
		})
	}
	return append(opts,
		menuOption{label: "Auto with DB Manager", action: m.runAll, pause: true},
		menuOption{label: "Database Manager", action: m.databaseManager},
		menuOption{label: "Wallet Statistics", action: m.statistics, pause: true},
		menuOption{label: "Set Transaction Count", action: m.setTxCount},
		menuOption{label: "Exit", action: func(context.Context) error { return errExit }},
	)
}

// taskNames lists the known tasks in menu order, then any extra scripts.
func (m *menu) taskNames() []string {
	known := executor.KnownTaskNames()
	extra := lo.Without(m.app.catalogue.Names(), known...)
	return append(known, extra...)
}

func (m *menu) loop(ctx context.Context) error {
	opts := m.options()
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprintln(m.out, "\n>═══ Pharos Testnet Bot Menu ═══<")
		for i, opt := range opts {
			fmt.Fprintf(m.out, "  %02d > %-35s <\n", i+1, opt.label)
		}
		fmt.Fprintln(m.out, ">═══════════════════════════════<")

		line, err := m.readLine(fmt.Sprintf("Select an option (1-%d)", len(opts)))
		if err != nil {
			return nil
		}
		choice, convErr := strconv.Atoi(line)
		if convErr != nil || choice < 1 || choice > len(opts) {
			fmt.Fprintln(m.out, "Invalid option. Try again.")
			continue
		}

		opt := opts[choice-1]
		err = opt.action(ctx)
		switch {
		case errors.Is(err, errExit):
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		case err != nil:
			fmt.Fprintf(m.out, "Error in %s: %v\n", opt.label, err)
		}
		if opt.pause {
			if _, err := m.readLine("Press Enter to continue..."); err != nil {
				return nil
			}
		}
	}
}

// readLine prompts and returns the trimmed answer; io.EOF ends the session.
func (m *menu) readLine(question string) (string, error) {
	fmt.Fprintf(m.out, "%s: ", question)
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *menu) invoke(ctx context.Context, name string) error {
	label := m.app.catalogue.Label(name)
	fmt.Fprintf(m.out, "Starting %s...\n", label)
	result, err := m.app.orchestrator().InvokeTask(ctx, m.rc, name)
	if result != nil {
		printTask(m.out, label, result)
	}
	return err
}

func (m *menu) runAll(ctx context.Context) error {
	result, err := m.app.orchestrator().Run(ctx, m.rc)
	if result != nil {
		printBatch(m.out, result)
	}
	return err
}

func (m *menu) setTxCount(context.Context) error {
	current := m.rc.CurrentTxCount()
	answer := prompt(m.in, m.out, "Enter number of transactions", strconv.Itoa(current))
	n, err := strconv.Atoi(answer)
	if err != nil || !m.rc.SetTxCount(n) {
		fmt.Fprintf(m.out, "Invalid transaction count. Keeping current: %d\n", current)
		return nil
	}
	fmt.Fprintf(m.out, "Set transaction count to: %d\n", n)
	return nil
}

func (m *menu) statistics(ctx context.Context) error {
	fmt.Fprintln(m.out, "Starting Wallet Statistics...")
	report, err := collectStats(ctx, m.app)
	if err != nil {
		return err
	}
	fmt.Fprint(m.out, report.Table())

	notify := false
	if m.app.cfg.Settings.TelegramEnabled() && m.app.cfg.Settings.TelegramBotToken != "" {
		notify = confirm(m.in, m.out, "Send this table to Telegram?")
	}
	if err := finishStats(ctx, m.out, m.app, report, notify); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Wallet Statistics completed.")
	return nil
}

func (m *menu) databaseManager(ctx context.Context) error {
	for {
		fmt.Fprintln(m.out, "\nDatabase Management Options:")
		fmt.Fprintln(m.out, "  1 > Create/Reset Database")
		fmt.Fprintln(m.out, "  2 > Show Database Contents")
		fmt.Fprintln(m.out, "  3 > Add Wallets from wallet.json")
		fmt.Fprintln(m.out, "  4 > Exit")

		line, err := m.readLine("Select an option (1-4)")
		if err != nil {
			return nil
		}

		switch line {
		case "1":
			if !confirm(m.in, m.out, "This will reset the DB for all wallets in wallet.json. Continue?") {
				continue
			}
			if err := dbReset(ctx, m.out, m.app, m.selectTasks("Select tasks to assign to all wallets")); err != nil {
				return err
			}
		case "2":
			if err := dbShow(ctx, m.out, m.app, false); err != nil {
				return err
			}
		case "3":
			if err := dbAdd(ctx, m.out, m.app, m.selectTasks("Select tasks to assign to new wallets")); err != nil {
				return err
			}
		case "4":
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid option. Try again.")
		}
	}
}

// selectTasks lets the user pick tasks by number and returns them in the
// comma separated form --tasks takes. Empty or unparsable input picks all.
func (m *menu) selectTasks(question string) string {
	names := executor.KnownTaskNames()
	for i, name := range names {
		fmt.Fprintf(m.out, "  %2d. %s\n", i+1, name)
	}
	answer := prompt(m.in, m.out, question+" (comma separated numbers, empty for all)", "")

	var picked []string
	for _, field := range strings.Split(answer, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(names) {
			continue
		}
		picked = append(picked, names[n-1])
	}
	return strings.Join(picked, ",")
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
