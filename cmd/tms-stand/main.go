// Command tms-stand runs the static-fire test stand controller: it arms the
// ignition relay on a confirmed control-signal trigger, samples the load and
// pressure channels at a fixed rate, and journals every sample to removable
// storage for the session window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hollis/tms-stand/internal/config"
	"github.com/hollis/tms-stand/internal/fsutil"
	"github.com/hollis/tms-stand/internal/gpio"
	"github.com/hollis/tms-stand/internal/history"
	"github.com/hollis/tms-stand/internal/journal"
	"github.com/hollis/tms-stand/internal/mqtt"
	"github.com/hollis/tms-stand/internal/relay"
	"github.com/hollis/tms-stand/internal/sensor"
	"github.com/hollis/tms-stand/internal/session"
	"github.com/hollis/tms-stand/internal/status"
	"github.com/hollis/tms-stand/internal/trigger"
	"github.com/hollis/tms-stand/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/tms-stand/config.yaml", "Config file path")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	dataDir := flag.String("data-dir", "", "Session data directory (overrides config)")
	writeConfig := flag.Bool("write-config", false, "Write the default config file and exit")
	printLines := flag.Bool("print-lines", false, "Read the three GPIO lines once and exit")

	flag.Parse()

	if *writeConfig {
		if err := config.Default().Save(*configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		log.Printf("wrote default config to %s", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.Broker = *broker
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if err := run(cfg, *printLines); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printLines bool) error {
	var health session.Health

	// Single-slot handoff from the edge handler to the main loop. The
	// handler only performs a non-blocking send; the debounce observation
	// itself runs on the main loop's poll tick.
	edgeCh := make(chan struct{}, 1)

	pins := gpio.Pins{Trigger: cfg.Pins.Trigger, Confirm: cfg.Pins.Confirm, Relay: cfg.Pins.Relay}
	var lines gpio.Lines
	realLines, err := gpio.NewRealLines(cfg.Pins.Chip, pins, func() {
		select {
		case edgeCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		// Log and continue: the stand stays up for diagnostics, and the
		// health value blocks sessions. Inert lines keep the loop running.
		log.Printf("gpio init failed: %v", err)
		health.GPIO = err
		lines = gpio.NewFakeLines()
	} else {
		lines = realLines
		defer realLines.Close()
	}

	if printLines {
		return doPrintLines(lines)
	}

	loadCh, pressureCh, closeBus := initChannels(cfg, &health)
	defer closeBus()

	fsys := fsutil.OSFileSystem{}
	if err := fsys.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Printf("storage init failed: %v", err)
		health.Storage = err
	} else if err := journal.SelfTest(fsys, cfg.DataDir, cfg.MaxSessions); err != nil {
		log.Printf("%v", err)
		health.Storage = err
	} else {
		log.Printf("storage self-test ok (%s)", cfg.DataDir)
	}

	relayCtrl, err := relay.New(lines)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}

	var store *history.Store
	if cfg.HistoryDB != "" {
		store, err = history.Open(cfg.HistoryDB)
		if err != nil {
			// Best-effort: the journal files are authoritative.
			log.Printf("session history unavailable: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		DataDir:        cfg.DataDir,
		TickIntervalUS: cfg.Session.TickInterval.Microseconds(),
		DurationMS:     cfg.Session.Duration.Milliseconds(),
		DebouncePolls:  cfg.Debounce.Polls,
		Broker:         cfg.Broker,
		HTTPAddr:       cfg.HTTPAddr,
	})
	tracker.SetHealth(health)
	if store != nil {
		if n, err := store.Count(); err == nil {
			tracker.SetSessionsDone(n)
		}
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			log.Printf("mqtt unavailable: %v", err)
		} else {
			publisher = real
			mqttStatus = real
			defer real.Close()
		}
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		var lister web.SessionLister
		if store != nil {
			lister = store
		}
		srv := web.New(cfg.HTTPAddr, tracker, lister)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	runner := &session.Runner{
		FS:          fsys,
		DataDir:     cfg.DataDir,
		MaxSessions: cfg.MaxSessions,
		Load:        loadCh,
		Pressure:    pressureCh,
		Relay:       relayCtrl,
		Clock:       session.WallClock{},
		Desc:        cfg.Descriptor(),
		Trace:       cfg.TraceSamples,
	}

	st := &stand{
		lines:      lines,
		debouncer:  trigger.New(cfg.Debounce.Polls, cfg.Debounce.Threshold, cfg.Debounce.Interval),
		runner:     runner,
		relay:      relayCtrl,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		store:      store,
		health:     health,
		now:        time.Now,
	}
	runner.OnState = st.onState
	runner.OnEvent = st.onSessionEvent

	log.Printf("started: tick=%v window=%v data=%s broker=%q",
		cfg.Session.TickInterval, cfg.Session.Duration, cfg.DataDir, cfg.Broker)

	ticker := time.NewTicker(cfg.Debounce.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return st.runLoop(ticker.C, edgeCh, sigCh)
}

// initChannels configures the two converters on the shared bus, feeding
// handshake failures into the health value. The channels stay usable either
// way; readings are undefined until the hardware responds.
func initChannels(cfg *config.Config, health *session.Health) (load, pressure sensor.Channel, closeBus func()) {
	bus, err := sensor.OpenBus(cfg.I2C.Bus)
	if err != nil {
		log.Printf("i2c init failed: %v", err)
		health.ADCLoad = err
		health.ADCPressure = err
		return sensor.NewFakeChannel(), sensor.NewFakeChannel(), func() {}
	}

	rate := rateFromConfig(cfg.I2C.Rate)
	gain := gainFromConfig(cfg.I2C.Gain)

	loadCh, err := sensor.NewADS1115(bus, uint16(cfg.I2C.LoadAddr), "load", rate, gain)
	if err != nil {
		log.Printf("load channel init: %v", err)
		health.ADCLoad = err
	}
	pressureCh, err := sensor.NewADS1115(bus, uint16(cfg.I2C.PressureAddr), "pressure", rate, gain)
	if err != nil {
		log.Printf("pressure channel init: %v", err)
		health.ADCPressure = err
	}

	return loadCh, pressureCh, func() { bus.Close() }
}

func rateFromConfig(sps int) sensor.Rate {
	switch sps {
	case 8, 16, 32, 64, 128, 250, 475, 860:
		return sensor.Rate(sps)
	default:
		log.Printf("unsupported i2c rate %d, using 860", sps)
		return sensor.Rate860
	}
}

func gainFromConfig(fs string) sensor.Gain {
	switch fs {
	case "6.144":
		return sensor.Gain6V144
	case "4.096":
		return sensor.Gain4V096
	case "2.048":
		return sensor.Gain2V048
	case "1.024":
		return sensor.Gain1V024
	case "0.512":
		return sensor.Gain0V512
	case "0.256":
		return sensor.Gain0V256
	default:
		log.Printf("unsupported i2c gain %q, using 4.096", fs)
		return sensor.Gain4V096
	}
}

func doPrintLines(lines gpio.Lines) error {
	trig, err := lines.Trigger()
	if err != nil {
		return fmt.Errorf("read trigger: %w", err)
	}
	conf, err := lines.Confirm()
	if err != nil {
		return fmt.Errorf("read confirm: %w", err)
	}
	fmt.Printf("trigger: %s, confirm: %s, relay: OPEN\n", levelString(trig), levelString(conf))
	return nil
}

func levelString(on bool) string {
	if on {
		return "HIGH"
	}
	return "LOW"
}

// stand bundles the main-loop collaborators.
type stand struct {
	lines      gpio.Lines
	debouncer  *trigger.Debouncer
	runner     *session.Runner
	relay      *relay.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	store      *history.Store
	health     session.Health
	now        func() time.Time
}

// runLoop is the single-threaded control loop: it waits for edges from the
// handler, advances the debounce observation on each poll tick, and drives a
// full session when a trigger is confirmed. A session blocks the loop; that
// is by construction — sessions and new triggers are mutually exclusive.
func (st *stand) runLoop(tick <-chan time.Time, edge <-chan struct{}, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			st.publishShutdown(signalName)
			return nil

		case <-edge:
			if st.debouncer.Edge(st.now()) {
				log.Printf("control-signal edge, observing for %v", st.debouncer.Window())
			}

		case <-tick:
			t := st.now()
			if st.debouncer.Active() {
				level, err := st.lines.Trigger()
				if err != nil {
					log.Printf("trigger read error: %v", err)
					level = false
				}
				switch st.debouncer.Poll(level, t) {
				case trigger.ResultConfirmed:
					st.tracker.SetDebounce(st.debouncer.Counts())
					log.Printf("trigger confirmed")
					st.runSession()
					// A second assertion while the session ran is ignored:
					// the system was busy.
					select {
					case <-edge:
						log.Printf("discarding trigger edge raised during session")
					default:
					}
				case trigger.ResultRejected:
					st.tracker.SetDebounce(st.debouncer.Counts())
					log.Printf("trigger rejected: unstable control signal")
					st.publishEvent(mqtt.Event{
						Timestamp: t,
						Type:      mqtt.EventTriggerRejected,
					})
				}
			}

			st.tracker.SetRelay(st.relay.Energized())
			if st.mqttStatus != nil {
				st.tracker.SetMQTTConnected(st.mqttStatus.IsConnected())
			}
		}
	}
}

// runSession consults the startup health and drives one full session.
func (st *stand) runSession() {
	if !st.health.SessionsAllowed() {
		detail := strings.Join(st.health.Problems(), "; ")
		log.Printf("session blocked: %s", detail)
		st.publishEvent(mqtt.Event{
			Timestamp: st.now(),
			Type:      mqtt.EventSessionBlocked,
			Detail:    detail,
		})
		return
	}

	sum, err := st.runner.Run()
	if err != nil {
		log.Printf("session failed: %v", err)
		st.publishEvent(mqtt.Event{
			Timestamp: st.now(),
			Type:      mqtt.EventSessionAborted,
			Session:   sum.Sequence,
			File:      sum.File,
			Detail:    err.Error(),
		})
		if !errors.Is(err, session.ErrConfirmTimeout) {
			return
		}
		// A timed-out session still opened and closed a journal; fall
		// through to record it.
	} else {
		log.Printf("session %d complete: %d samples, %d overruns, %d write errors (%s)",
			sum.Sequence, sum.Samples, sum.Overruns, sum.WriteErrors, sum.File)
	}

	st.tracker.SessionDone(sum)
	if st.store != nil {
		if err := st.store.Record(sum); err != nil {
			log.Printf("record session history: %v", err)
		}
	}
}

// onState mirrors controller state into the status tracker.
func (st *stand) onState(s session.State) {
	st.tracker.SetState(s)
	st.tracker.SetRelay(st.relay.Energized())
}

// onSessionEvent maps runner lifecycle points to MQTT events.
func (st *stand) onSessionEvent(kind string, sum session.Summary) {
	var typ mqtt.EventType
	detail := ""
	switch kind {
	case session.EventArmed:
		typ = mqtt.EventSessionArmed
	case session.EventStart:
		typ = mqtt.EventSessionStart
	case session.EventFailsafe:
		typ = mqtt.EventFailsafeTrip
		log.Printf("failsafe tripped during session %d", sum.Sequence)
	case session.EventClosed:
		typ = mqtt.EventSessionClosed
		detail = string(sum.Reason)
	default:
		return
	}
	st.publishEvent(mqtt.Event{
		Timestamp: st.now(),
		Type:      typ,
		Session:   sum.Sequence,
		File:      sum.File,
		Detail:    detail,
	})
}

func (st *stand) publishEvent(ev mqtt.Event) {
	if st.publisher == nil {
		return
	}
	if err := st.publisher.Publish(ev); err != nil {
		log.Printf("publish %s: %v", ev.Type, err)
	}
}

func (st *stand) publishShutdown(reason string) {
	if st.publisher == nil {
		return
	}
	if st.mqttStatus != nil {
		st.tracker.SetMQTTConnected(st.mqttStatus.IsConnected())
	}
	snap := st.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := st.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}
