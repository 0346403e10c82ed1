package logger_test

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/AgencyDesk/AgencyDesk/internal/logger"
)

func TestLogger(t *testing.T) {
	type testCase struct {
		name             string
		cfg              logger.Log
		wantErr          bool
		shouldHaveOutPut bool
		outPutIsJSON     bool
	}

	testCases := []testCase{
		{
			name: "no logger enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
			},
			shouldHaveOutPut: false,
		},
		{
			name: "missing service name",
			cfg: logger.Log{
				LogLevel: "info",
				AppName:  "test",
			},
			wantErr: true,
		},
		{
			name: "missing app name",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			wantErr: true,
		},
		{
			name: "unsupported level",
			cfg: logger.Log{
				LogLevel:    "shouting",
				ServiceName: "test",
				AppName:     "test",
			},
			wantErr: true,
		},
		{
			name: "console enabled console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer disabled expect json",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := testLoggerConfig(t, tc.cfg)

			if (err != nil) != tc.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tc.wantErr)
			}

			if tc.wantErr {
				return
			}

			switch {
			case out == "" && tc.shouldHaveOutPut:
				t.Errorf("expected console output but got none")
			case out != "" && !tc.shouldHaveOutPut:
				t.Errorf("expected no console output but got: %s", out)
			case tc.outPutIsJSON:
				for _, outLine := range strings.Split(out, "\n") {
					if outLine == "" {
						continue
					}

					var dummy map[string]any
					if err := json.Unmarshal([]byte(outLine), &dummy); err != nil {
						t.Errorf("expected json output but got: %s", outLine)
					}
				}
			}
		})
	}
}

// testLoggerConfig initializes the logger with the given config and captures stdout.
func testLoggerConfig(t *testing.T, cfg logger.Log) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	os.Stdout = w

	initErr := logger.Init(cfg)
	if initErr == nil {
		log.Info().Str("test", t.Name()).Msg("test log statement")
	}

	_ = w.Close()

	os.Stdout = origStdout

	outBytes, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}

	return string(outBytes), initErr
}
