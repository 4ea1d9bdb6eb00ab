package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"scheduleall/internal/domain"
	"scheduleall/internal/session"
)

type embeddedServer struct {
	cmd *exec.Cmd
}

func main() {
	addr := flag.String("addr", "http://localhost:8091", "scheduled base URL")
	interval := flag.Duration("interval", 2*time.Second, "refresh interval")
	embedded := flag.Bool("embedded", false, "start scheduled alongside the monitor")
	serverBinary := flag.String("server-bin", "", "path to scheduled binary (optional in embedded mode)")
	configPath := flag.String("config", "", "config.toml passed to the embedded server")
	flag.Parse()

	c := newClient(*addr)

	if *embedded {
		proc, err := startEmbeddedServer(*addr, *serverBinary, *configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start embedded server: %v\n", err)
			os.Exit(1)
		}
		defer proc.Stop()
	}

	if err := c.waitHealth(30 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "scheduled health check failed: %v\n", err)
		os.Exit(1)
	}

	app := tview.NewApplication()
	agentsTable := tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false)
	agentsTable.SetTitle("Colonists").SetBorder(true)

	ledgerView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	ledgerView.SetTitle("Override Ledger").SetBorder(true)

	slotsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	slotsView.SetTitle("Slots").SetBorder(true)

	decisionsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	decisionsView.SetTitle("Decisions").SetBorder(true)

	statusView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	statusView.SetBorder(true).SetTitle("Status")
	statusView.SetText("Connected to " + c.baseURL)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ledgerView, 0, 2, false).
		AddItem(slotsView, domain.SlotCount+2, 0, false)

	top := tview.NewFlex().
		AddItem(agentsTable, 0, 3, true).
		AddItem(right, 0, 2, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, true).
		AddItem(decisionsView, 0, 2, false).
		AddItem(statusView, 3, 0, false)

	pages := tview.NewPages().AddPage("main", layout, true, true)

	setStatusAsync := func(msg string) {
		app.QueueUpdateDraw(func() {
			statusView.SetText(msg)
		})
	}

	refresh := func() {
		type result struct {
			status    session.Status
			agents    []session.AgentView
			slots     []domain.Slot
			ledger    []domain.LedgerEntry
			decisions []domain.DecisionLog
			err       error
		}
		var r result
		var errs [5]error
		r.status, errs[0] = c.status()
		r.agents, errs[1] = c.listAgents()
		r.slots, errs[2] = c.listSlots()
		r.ledger, errs[3] = c.listLedger()
		r.decisions, errs[4] = c.listDecisions(200)
		r.err = combineErrors(errs[:]...)

		app.QueueUpdateDraw(func() {
			hour := -1
			if r.status.HasMap {
				hour = r.status.Hour
			}
			renderAgentsTable(agentsTable, r.agents, slotColors(r.slots), hour)
			ledgerView.SetText(renderLedger(r.ledger))
			slotsView.SetText(renderSlots(r.slots))
			decisionsView.SetText(renderDecisions(r.decisions))
			if r.err != nil {
				statusView.SetText("[red]refresh error:[-] " + r.err.Error())
				return
			}
			statusView.SetText(renderStatus(r.status, c.baseURL))
		})
	}

	runAction := func(label string, fn func() (string, error)) {
		setStatusAsync(label + "...")
		go func() {
			msg, err := fn()
			if err != nil {
				setStatusAsync(fmt.Sprintf("[red]%s failed:[-] %v", label, err))
				return
			}
			refresh()
			setStatusAsync(msg)
		}()
	}

	confirmUninstall := func() {
		modal := tview.NewModal().
			SetText("Restore every overridden priority and remove all custom slots from timetables?").
			AddButtons([]string{"Uninstall", "Cancel"}).
			SetDoneFunc(func(_ int, button string) {
				pages.RemovePage("confirm")
				app.SetFocus(agentsTable)
				if button != "Uninstall" {
					return
				}
				runAction("Uninstall", func() (string, error) {
					report, err := c.uninstall()
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("restored %d, dropped %d, fixed %d cells", report.Restored, report.Dropped, report.FixedCells), nil
				})
			})
		pages.AddPage("confirm", modal, false, true)
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if name, _ := pages.GetFrontPage(); name == "confirm" {
			return event
		}
		switch event.Key() {
		case tcell.KeyF10:
			app.Stop()
			return nil
		case tcell.KeyF5:
			go refresh()
			return nil
		case tcell.KeyRune:
		default:
			return event
		}
		switch event.Rune() {
		case 'c':
			runAction("Capture", func() (string, error) {
				n, err := c.capture()
				return fmt.Sprintf("saved %d", n), err
			})
		case 'r':
			runAction("Restore", func() (string, error) {
				n, err := c.restore()
				return fmt.Sprintf("restored %d", n), err
			})
		case 's':
			runAction("Save", func() (string, error) {
				return "saved session", c.save()
			})
		case 'u':
			confirmUninstall()
		case 'q':
			app.Stop()
		default:
			return event
		}
		return nil
	})

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()

		refresh()
		for range ticker.C {
			refresh()
		}
	}()

	if err := app.SetRoot(pages, true).EnableMouse(true).SetFocus(agentsTable).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor failed: %v\n", err)
		os.Exit(1)
	}
}

func startEmbeddedServer(addr string, serverBinary string, configPath string) (*embeddedServer, error) {
	parsed, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	port := parsed.Port()
	if port == "" {
		return nil, fmt.Errorf("addr must include explicit port, got %q", addr)
	}
	args := []string{"serve", "--addr", "127.0.0.1:" + port}
	if strings.TrimSpace(configPath) != "" {
		args = append([]string{"--config", configPath}, args...)
	}

	var cmd *exec.Cmd
	if strings.TrimSpace(serverBinary) != "" {
		cmd = exec.Command(serverBinary, args...)
	} else {
		self, err := os.Executable()
		if err == nil {
			sibling := filepath.Join(filepath.Dir(self), "scheduled")
			if fileExists(sibling) {
				cmd = exec.Command(sibling, args...)
			}
		}
		if cmd == nil {
			cmd = exec.Command("go", append([]string{"run", "./cmd/scheduled"}, args...)...)
			cwd, _ := os.Getwd()
			cmd.Dir = cwd
		}
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start scheduled process: %w", err)
	}
	return &embeddedServer{cmd: cmd}, nil
}

func (e *embeddedServer) Stop() {
	if e == nil || e.cmd == nil || e.cmd.Process == nil {
		return
	}
	_ = e.cmd.Process.Kill()
	_, _ = e.cmd.Process.Wait()
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
