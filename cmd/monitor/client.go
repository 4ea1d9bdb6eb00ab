package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scheduleall/internal/domain"
	"scheduleall/internal/engine"
	"scheduleall/internal/session"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *client) waitHealth(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"/healthz", nil)
		if err == nil {
			resp, err := c.http.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode < 300 {
					return nil
				}
			}
		}
		time.Sleep(400 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for /healthz")
}

func (c *client) status() (session.Status, error) {
	var out struct {
		Session session.Status `json:"session"`
	}
	err := c.getJSON("/healthz", &out)
	return out.Session, err
}

func (c *client) listAgents() ([]session.AgentView, error) {
	var out []session.AgentView
	err := c.getJSON("/agents", &out)
	return out, err
}

func (c *client) listSlots() ([]domain.Slot, error) {
	var out []domain.Slot
	err := c.getJSON("/slots", &out)
	return out, err
}

func (c *client) listLedger() ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	err := c.getJSON("/ledger", &out)
	return out, err
}

func (c *client) listDecisions(limit int) ([]domain.DecisionLog, error) {
	var out []domain.DecisionLog
	err := c.getJSON(fmt.Sprintf("/decisions?limit=%d", limit), &out)
	return out, err
}

func (c *client) capture() (int, error) {
	var out struct {
		Saved int `json:"saved"`
	}
	err := c.postJSON("/snapshots/capture", nil, &out)
	return out.Saved, err
}

func (c *client) restore() (int, error) {
	var out struct {
		Restored int `json:"restored"`
	}
	err := c.postJSON("/snapshots/restore", nil, &out)
	return out.Restored, err
}

func (c *client) uninstall() (engine.TeardownReport, error) {
	var out engine.TeardownReport
	err := c.postJSON("/uninstall", nil, &out)
	return out, err
}

func (c *client) save() error {
	return c.postJSON("/save", nil, nil)
}

func (c *client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %s", resp.Status, apiError(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return err
	}
	return nil
}

func (c *client) postJSON(path string, in any, out any) error {
	var payload io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %s", resp.Status, apiError(body))
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return err
	}
	return nil
}

func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func combineErrors(errs ...error) error {
	var parts []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		parts = append(parts, err.Error())
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}
