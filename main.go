package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dhowden/tag"
	_ "github.com/joho/godotenv/autoload"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"baton/cmd"
	"baton/config"
	"baton/live"
)

func main() {
	var (
		server     bool
		port       int
		scan       bool
		play       string
		stop       string
		clipRef    string
		tempo      float64
		watch      bool
		dump       string
		restore    string
		host       string
		livePort   int
		listenPort int
		debug      bool
	)

	flag.BoolVar(&server, "server", false, "Start in bridge server mode")
	flag.IntVar(&port, "port", 0, "Port for bridge server mode (overrides BATON_PORT)")
	flag.BoolVar(&scan, "scan", false, "Scan the Live set and print the session grid")
	flag.StringVar(&play, "play", "", "Fire a clip slot, e.g. -play 1:0")
	flag.StringVar(&stop, "stop", "", "Stop a clip, e.g. -stop 1:0")
	flag.StringVar(&clipRef, "clip", "", "Print details and notes for a clip, e.g. -clip 1:0")
	flag.Float64Var(&tempo, "tempo", 0, "Set the song tempo in BPM")
	flag.BoolVar(&watch, "watch", false, "Print beat events until interrupted")
	flag.StringVar(&dump, "dump", "", "Scan the set and write a YAML snapshot to `FILE`")
	flag.StringVar(&restore, "restore", "", "Load a YAML snapshot from `FILE` and print it")
	flag.StringVar(&host, "host", "", "AbletonOSC host (overrides LIVE_HOST)")
	flag.IntVar(&livePort, "live-port", 0, "AbletonOSC command port (overrides LIVE_PORT)")
	flag.IntVar(&listenPort, "listen-port", 0, "Reply port (overrides LIVE_LISTEN_PORT)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.FromEnv()
	if host != "" {
		cfg.LiveHost = host
	}
	if livePort != 0 {
		cfg.LivePort = livePort
	}
	if listenPort != 0 {
		cfg.ListenPort = listenPort
	}
	if port != 0 {
		cfg.ServerPort = port
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// Server mode takes precedence
	if server {
		cmd.StartBridgeServer(cfg)
		return
	}

	actions := 0
	for _, active := range []bool{scan, play != "", stop != "", clipRef != "", tempo != 0, watch, dump != "", restore != ""} {
		if active {
			actions++
		}
	}
	if actions == 0 {
		flag.Usage()
		return
	}
	if actions > 1 {
		logrus.Fatalf("Pick one of -scan, -play, -stop, -clip, -tempo, -watch, -dump or -restore at a time")
	}

	query := live.NewQuery(cfg.LiveHost, cfg.LivePort, cfg.ListenPort)
	query.SetTimeout(cfg.QueryTimeout)
	if err := query.Listen(); err != nil {
		logrus.Fatalf("Cannot listen for OSC replies on port %d: %v", cfg.ListenPort, err)
	}
	defer query.Close()
	set := live.NewSet(query)

	switch {
	case scan:
		runScan(set)
	case play != "":
		runPlay(set, play)
	case stop != "":
		runStop(set, stop)
	case clipRef != "":
		runClipInfo(set, clipRef)
	case tempo != 0:
		if tempo < 20 || tempo > 999 {
			logrus.Fatalf("Tempo %g is outside Live's 20..999 BPM range", tempo)
		}
		if err := set.SetTempo(tempo); err != nil {
			logrus.Fatalf("Cannot set tempo: %v", err)
		}
		fmt.Printf("Tempo: %g BPM\n", tempo)
	case watch:
		runWatch(query, set)
	case dump != "":
		runDump(set, dump)
	case restore != "":
		runRestore(query, restore)
	}
}

// runScan walks the session grid with a progress bar and prints it.
func runScan(set *live.Set) {
	var bar *progressbar.ProgressBar
	opts := live.ScanOptions{
		ClipNames:   true,
		ClipLengths: true,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "scanning")
			}
			bar.Set(done)
		},
	}
	if err := set.Scan(opts); err != nil {
		logrus.Fatalf("Scan failed: %v", err)
	}
	fmt.Println()
	printGrid(set)
}

// printGrid prints the scanned session in its string form.
func printGrid(set *live.Set) {
	if tempo, err := set.Tempo(); err == nil {
		fmt.Printf("Tempo: %g BPM\n", tempo)
	}
	for _, tr := range set.Tracks() {
		fmt.Println(tr)
		for _, c := range tr.Clips() {
			if c != nil {
				fmt.Printf("  %s\n", c)
			}
		}
	}
}

// runPlay fires one clip slot without scanning first.
func runPlay(set *live.Set, ref string) {
	c, err := adHocClip(set, ref)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if err := c.Play(); err != nil {
		logrus.Fatalf("Cannot fire clip %s: %v", ref, err)
	}
	fmt.Printf("Fired clip slot %s\n", ref)
}

// runStop stops one clip without scanning first.
func runStop(set *live.Set, ref string) {
	c, err := adHocClip(set, ref)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	if err := c.Stop(); err != nil {
		logrus.Fatalf("Cannot stop clip %s: %v", ref, err)
	}
	fmt.Printf("Stopped clip slot %s\n", ref)
}

// runClipInfo prints everything Live reports about one clip. For audio clips
// whose file is readable from here, embedded tags are printed too.
func runClipInfo(set *live.Set, ref string) {
	c, err := adHocClip(set, ref)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	details, err := c.Details()
	if err != nil {
		logrus.Fatalf("Cannot read clip %s: %v", ref, err)
	}
	fmt.Printf("Clip (%s): %s\n", ref, details.Name)
	fmt.Printf("  length: %d beats, signature %d/%d\n",
		details.Length, details.SignatureNumerator, details.SignatureDenominator)
	fmt.Printf("  markers: %g..%g, loop %g..%g\n",
		details.StartMarker, details.EndMarker, details.LoopStart, details.LoopEnd)

	if midi, err := c.IsMIDIClip(); err == nil && midi {
		notes, err := c.Notes()
		if err != nil {
			logrus.Fatalf("Cannot read notes of clip %s: %v", ref, err)
		}
		fmt.Printf("  notes: %d\n", len(notes))
		for _, n := range notes {
			fmt.Printf("    pitch %d @ %g for %g vel %d", n.Pitch, n.StartTime, n.Duration, n.Velocity)
			if n.Mute {
				fmt.Print(" muted")
			}
			fmt.Println()
		}
		return
	}

	if audio, err := c.IsAudioClip(); err == nil && audio {
		if pitch, err := c.PitchCoarse(); err == nil {
			fmt.Printf("  pitch: %+d semitones\n", pitch)
		}
		printFileTags(c)
	}
}

// printFileTags prints embedded tags of an audio clip's file, best effort.
func printFileTags(c *live.Clip) {
	path, err := c.FilePath()
	if err != nil || path == "" {
		return
	}
	fmt.Printf("  file: %s\n", path)

	f, err := os.Open(path)
	if err != nil {
		logrus.WithError(err).Debug("Clip file not readable from here")
		return
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		logrus.WithError(err).Debug("Clip file has no readable tags")
		return
	}
	if meta.Title() != "" {
		fmt.Printf("  tags: %s", meta.Title())
		if meta.Artist() != "" {
			fmt.Printf(" by %s", meta.Artist())
		}
		if meta.Album() != "" {
			fmt.Printf(" (%s)", meta.Album())
		}
		fmt.Println()
	}
}

// runWatch prints beat events until interrupted.
func runWatch(query *live.Query, set *live.Set) {
	query.OnBeat(func(beat int) {
		fmt.Printf("beat %d\n", beat)
	})
	if err := set.StartBeatListener(); err != nil {
		logrus.Fatalf("Cannot start beat listener: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	set.StopBeatListener()
}

// runDump scans the set and writes a YAML snapshot.
func runDump(set *live.Set, path string) {
	var bar *progressbar.ProgressBar
	opts := live.ScanOptions{
		ClipNames:   true,
		ClipLengths: true,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "scanning")
			}
			bar.Set(done)
		},
	}
	if err := set.Scan(opts); err != nil {
		logrus.Fatalf("Scan failed: %v", err)
	}
	if err := set.Save(path); err != nil {
		logrus.Fatalf("Cannot write snapshot: %v", err)
	}
	fmt.Printf("\nSnapshot written to %s\n", path)
}

// runRestore loads a snapshot into local proxies and prints the grid.
func runRestore(query *live.Query, path string) {
	set, err := live.LoadSet(path, query)
	if err != nil {
		logrus.Fatalf("Cannot load snapshot: %v", err)
	}
	printGrid(set)
}

// adHocClip builds a clip proxy for a track:clip reference without a scan.
// A scanned clip at that slot is reused; otherwise a bare proxy is built on
// the set's transport.
func adHocClip(set *live.Set, ref string) (*live.Clip, error) {
	trackIdx, clipIdx, err := parseSlotRef(ref)
	if err != nil {
		return nil, err
	}
	if c := set.Clip(trackIdx, clipIdx); c != nil {
		return c, nil
	}
	tr := live.NewTrack(set.Transport(), trackIdx, "")
	return live.NewClip(tr, clipIdx, "", 0), nil
}

// parseSlotRef parses a "track:clip" reference like "1:0".
func parseSlotRef(ref string) (int, int, error) {
	trackPart, clipPart, found := strings.Cut(ref, ":")
	if !found {
		return 0, 0, fmt.Errorf("slot reference %q must look like track:clip, e.g. 1:0", ref)
	}
	trackIdx, err := strconv.Atoi(trackPart)
	if err != nil || trackIdx < 0 {
		return 0, 0, fmt.Errorf("slot reference %q has an invalid track index", ref)
	}
	clipIdx, err := strconv.Atoi(clipPart)
	if err != nil || clipIdx < 0 {
		return 0, 0, fmt.Errorf("slot reference %q has an invalid clip index", ref)
	}
	return trackIdx, clipIdx, nil
}
