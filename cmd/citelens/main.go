// citelens normalizes one raw LLM vendor response or captured browser
// payload into the canonical interaction record, printed as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/citelens/citelens/pkg/normalize"
)

func main() {
	var (
		model      = flag.String("model", "", "model id of the vendor response payload")
		capture    = flag.String("capture", "", "capture tag (chatgpt_web, google_ai_overview) for browser-captured payloads")
		inPath     = flag.String("in", "-", "payload file, or - for stdin")
		configPath = flag.String("config", "", "optional YAML config with the model table")
		latencyMS  = flag.Int64("latency-ms", 0, "caller-measured request latency in milliseconds")
		display    = flag.String("display-text", "", "optional separately-extracted display text (captures only)")
		pretty     = flag.Bool("pretty", false, "indent JSON output")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := run(log, *model, *capture, *inPath, *configPath, *display, *latencyMS, *pretty); err != nil {
		log.Error().Err(err).Msg("Normalization failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, model, capture, inPath, configPath, display string, latencyMS int64, pretty bool) error {
	if (model == "") == (capture == "") {
		return fmt.Errorf("exactly one of -model or -capture is required")
	}

	cfg := normalize.DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		cfg, err = normalize.ParseConfig(data)
		if err != nil {
			return err
		}
	}

	payload, err := readPayload(inPath)
	if err != nil {
		return err
	}

	registry := normalize.NewRegistry(cfg, log)
	var (
		adapter normalize.Adapter
		raw     any
	)
	if capture != "" {
		adapter, err = registry.ForCapture(capture)
		raw = string(payload)
	} else {
		adapter, err = registry.ForModel(model)
		raw = json.RawMessage(payload)
	}
	if err != nil {
		return err
	}

	resp, err := adapter.Normalize(context.Background(), raw, normalize.Options{
		Model:       model,
		LatencyMS:   latencyMS,
		DisplayText: display,
	})
	if err != nil {
		return err
	}

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(resp, "", "  ")
	} else {
		out, err = json.Marshal(resp)
	}
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}
