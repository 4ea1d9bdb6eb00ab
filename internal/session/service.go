// Package session owns one running colony and everything attached to it:
// the reconciliation engine, snapshot store, decision log and save file.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scheduleall/internal/config"
	"scheduleall/internal/domain"
	"scheduleall/internal/engine"
	"scheduleall/internal/host/sim"
	"scheduleall/internal/policy"
	"scheduleall/internal/savefile"
	"scheduleall/internal/slots"
	"scheduleall/internal/snapshot"
)

const decisionSubscriber = "decision-log"

type Store interface {
	snapshot.Persister
	LogDecision(ctx context.Context, entry domain.DecisionLog) error
	ListDecisions(ctx context.Context, sessionID string, limit int) ([]domain.DecisionLog, error)
}

type Bus interface {
	Register(name string) <-chan domain.Event
	Unregister(name string)
	Publish(evt domain.Event) error
}

type Config struct {
	StepInterval     time.Duration
	TicksPerStep     int
	AutosaveInterval time.Duration
	PollInterval     int
	SavePath         string
	SettingsPath     string
}

func (c Config) withDefaults() Config {
	if c.StepInterval <= 0 {
		c.StepInterval = 50 * time.Millisecond
	}
	if c.TicksPerStep <= 0 {
		c.TicksPerStep = 25
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = domain.PollIntervalTicks
	}
	return c
}

type Service struct {
	id     string
	store  Store
	bus    Bus
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	colony    *sim.Colony
	registry  *slots.Registry
	engine    *engine.Engine
	policy    *policy.Engine
	snapshots *snapshot.Store
	jobHour   int

	wg sync.WaitGroup
}

// New wires a session around colony. A nil settings means the slot table has
// not been loaded, in which case reconciliation stays idle.
func New(colony *sim.Colony, settings *config.Settings, store Store, bus Bus, cfg Config, logger *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	var slotTable []domain.SlotConfig
	if settings != nil {
		normalized := settings.Normalize()
		config.CheckTargets(normalized, colony.Defs().WorkTypes(), logger)
		slotTable = normalized.Slots
	}
	registry := slots.New(colony.Defs(), slotTable, logger)
	registry.SyncDefinitions()

	eng := engine.New(engine.Deps{
		Colony:   colony,
		Clock:    colony,
		Defs:     colony.Defs(),
		Registry: registry,
		Events:   bus,
		Logger:   logger,
	}, engine.Config{PollInterval: cfg.PollInterval})
	colony.SetObserver(eng)

	return &Service{
		id:        id,
		store:     store,
		bus:       bus,
		cfg:       cfg,
		logger:    logger,
		colony:    colony,
		registry:  registry,
		engine:    eng,
		policy:    policy.New(registry, colony.Defs()),
		snapshots: snapshot.New(colony, colony.Defs(), store, eng, logger),
		jobHour:   -1,
	}
}

func (s *Service) ID() string {
	return s.id
}

func (s *Service) Start(ctx context.Context) {
	events := s.bus.Register(decisionSubscriber)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.stepLoop(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.decisionLoop(ctx, events)
	}()
	if s.cfg.SavePath != "" {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.autosaveLoop(ctx)
		}()
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) stepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(s.cfg.TicksPerStep)
		}
	}
}

func (s *Service) autosaveLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Save(s.cfg.SavePath); err != nil {
				s.logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) decisionLoop(ctx context.Context, events <-chan domain.Event) {
	defer s.bus.Unregister(decisionSubscriber)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := s.store.LogDecision(ctx, s.decision(evt)); err != nil && ctx.Err() == nil {
				s.logger.Warn("log decision failed", zap.String("kind", string(evt.Kind)), zap.Error(err))
			}
		}
	}
}

func (s *Service) decision(evt domain.Event) domain.DecisionLog {
	return domain.DecisionLog{
		SessionID: s.id,
		Kind:      evt.Kind,
		AgentID:   evt.AgentID,
		AgentName: evt.AgentName,
		Work:      evt.Work,
		From:      evt.From,
		To:        evt.To,
		Count:     evt.Count,
		Tick:      evt.Tick,
		Reason:    evt.Reason,
		CreatedAt: evt.CreatedAt,
	}
}

// Step advances the colony n ticks, feeding every tick to the engine, then
// lets idle colonists pick new jobs.
func (s *Service) Step(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.colony.TicksGame()
	for i := 0; i < n; i++ {
		tick = s.colony.Advance()
		s.engine.Tick(tick)
	}
	s.assignJobs(false)
	return tick
}

func (s *Service) assignJobs(force bool) {
	hour, ok := s.colony.HourOfDay()
	if !ok {
		return
	}
	changed := hour != s.jobHour
	s.jobHour = hour
	for _, p := range s.colony.Pawns() {
		if p.Destroyed() {
			continue
		}
		if force || changed || p.Job() == "" {
			p.SetJob(s.policy.Decide(p, hour))
		}
	}
}

func (s *Service) publish(evt domain.Event) {
	evt.Tick = s.colony.TicksGame()
	evt.CreatedAt = time.Now().UTC()
	if err := s.bus.Publish(evt); err != nil {
		s.logger.Debug("event dropped", zap.String("kind", string(evt.Kind)), zap.Error(err))
	}
}

// Save writes the session to path, or to the configured save path when path
// is empty.
func (s *Service) Save(path string) error {
	if path == "" {
		path = s.cfg.SavePath
	}
	if path == "" {
		return errors.New("no save path configured")
	}

	s.mu.Lock()
	doc := savefile.Document{
		Header: savefile.Header{SessionID: s.id, Tick: s.colony.TicksGame()},
		Colony: s.colony.Export(),
		Ledger: s.engine.ExportState(),
	}
	s.mu.Unlock()

	if err := savefile.Write(path, doc); err != nil {
		return err
	}
	s.logger.Info("session saved", zap.String("path", path), zap.Int("tick", doc.Header.Tick), zap.Int("ledger_entries", len(doc.Ledger.Pawns)))
	return nil
}

// Load replaces the colony with a save, repairs timetables that reference
// missing definitions and rebuilds the ledger.
func (s *Service) Load(path string) (LoadReport, error) {
	doc, err := savefile.Read(path)
	if err != nil {
		return LoadReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.colony.Import(doc.Colony)
	fixed := s.engine.SanitizeSchedules()
	s.engine.ImportState(doc.Ledger)
	s.assignJobs(true)

	report := LoadReport{
		Pawns:      len(s.colony.Pawns()),
		Entries:    len(s.engine.Entries()),
		FixedCells: fixed,
	}
	s.logger.Info("session loaded",
		zap.String("path", path),
		zap.Int("pawns", report.Pawns),
		zap.Int("ledger_entries", report.Entries),
		zap.Int("fixed_cells", report.FixedCells),
	)
	return report, nil
}

type LoadReport struct {
	Pawns      int `json:"pawns"`
	Entries    int `json:"ledger_entries"`
	FixedCells int `json:"fixed_cells"`
}

func (s *Service) CaptureAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.snapshots.CaptureAll(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(domain.Event{Kind: domain.EventSnapshotCaptured, Count: len(snaps), Reason: fmt.Sprintf("saved %d", len(snaps))})
	return len(snaps), nil
}

func (s *Service) RestoreAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, err := s.snapshots.RestoreAll(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(domain.Event{Kind: domain.EventSnapshotRestored, Count: matched, Reason: fmt.Sprintf("restored %d", matched)})
	return matched, nil
}

func (s *Service) Uninstall() engine.TeardownReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.engine.Uninstall()
	s.assignJobs(true)
	return report
}

// SlotUpdate is a partial edit of one slot. Nil fields are left alone.
type SlotUpdate struct {
	TargetWork *string
	Label      *string
	Color      *string
}

// UpdateSlot validates the whole edit, applies it and writes settings once.
// On error nothing has changed.
func (s *Service) UpdateSlot(i int, u SlotUpdate) (domain.Slot, error) {
	change := slots.Change{Target: u.TargetWork, Label: u.Label}
	if u.Color != nil {
		color, err := domain.ParseColor(*u.Color)
		if err != nil {
			return domain.Slot{}, err
		}
		change.Color = &color
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Update(i, change); err != nil {
		return domain.Slot{}, err
	}
	if err := s.persistSettings(); err != nil {
		return domain.Slot{}, err
	}
	return s.registry.Slots()[i], nil
}

func (s *Service) SetSlotTarget(i int, work string) error {
	_, err := s.UpdateSlot(i, SlotUpdate{TargetWork: &work})
	return err
}

func (s *Service) SetSlotAppearance(i int, label string, hex string) error {
	_, err := s.UpdateSlot(i, SlotUpdate{Label: &label, Color: &hex})
	return err
}

// ApplySettings swaps in a freshly loaded slot table, typically from the
// settings file watcher.
func (s *Service) ApplySettings(settings config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := settings.Normalize()
	config.CheckTargets(normalized, s.colony.Defs().WorkTypes(), s.logger)
	s.registry.Replace(normalized.Slots)
	s.publish(domain.Event{Kind: domain.EventSettingsSynced, Count: len(normalized.Slots)})
}

func (s *Service) persistSettings() error {
	s.publish(domain.Event{Kind: domain.EventSettingsSynced, Count: len(s.registry.Configs())})
	if s.cfg.SettingsPath == "" {
		return nil
	}
	if err := config.SaveSettings(s.cfg.SettingsPath, config.Settings{Slots: s.registry.Configs()}); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Service) Slots() []domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Slots()
}

func (s *Service) Ledger() []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Entries()
}

func (s *Service) Decisions(ctx context.Context, limit int) ([]domain.DecisionLog, error) {
	return s.store.ListDecisions(ctx, s.id, limit)
}

type AgentView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Job         string         `json:"job"`
	CanWork     bool           `json:"can_work"`
	CurrentSlot string         `json:"current_slot"`
	Priorities  map[string]int `json:"priorities"`
	Schedule    []string       `json:"schedule"`
}

func (s *Service) Agents() []AgentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour, hasHour := s.colony.HourOfDay()
	works := s.colony.Defs().WorkTypes()
	pawns := s.colony.Pawns()
	out := make([]AgentView, 0, len(pawns))
	for _, p := range pawns {
		v := AgentView{
			ID:         p.ID(),
			Name:       p.Name(),
			Job:        p.Job(),
			CanWork:    p.CanEverWork(),
			Priorities: make(map[string]int, len(works)),
		}
		for _, w := range works {
			if prio := p.Priority(w.DefName); prio > 0 {
				v.Priorities[w.DefName] = prio
			}
		}
		if sched := p.Schedule(); sched != nil {
			v.Schedule = make([]string, sched.Len())
			for h := range v.Schedule {
				v.Schedule[h] = sched.At(h)
			}
			if hasHour {
				v.CurrentSlot = sched.At(hour)
			}
		}
		out = append(out, v)
	}
	return out
}

type Status struct {
	SessionID string `json:"session_id"`
	Tick      int    `json:"tick"`
	Hour      int    `json:"hour"`
	HasMap    bool   `json:"has_map"`
	Slots     bool   `json:"slots_loaded"`
	Entries   int    `json:"ledger_entries"`
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour, ok := s.colony.HourOfDay()
	return Status{
		SessionID: s.id,
		Tick:      s.colony.TicksGame(),
		Hour:      hour,
		HasMap:    ok,
		Slots:     s.registry.Loaded(),
		Entries:   len(s.engine.Entries()),
	}
}
